// Package crawler implements the crawl-and-extract engine: the per-site crawler
// that walks an origin page and its same-site links within a page budget, and the
// run orchestrator that drives it over seed URLs or search results. Pages come from
// a PageFetcher collaborator; everything found is deduplicated into a run-scoped
// leads.Store.
package crawler
