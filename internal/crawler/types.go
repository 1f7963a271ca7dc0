package crawler

import (
	"time"
)

// Page is what a Session returns for one visited URL.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	HTML       string
	// Anchors holds the raw href attribute of every a[href] element, unresolved.
	Anchors  []string
	Duration time.Duration
}

// SiteState is a step of the per-site crawl.
type SiteState string

// Site crawl states, in order.
const (
	StateInit             SiteState = "init"
	StateFetchedOrigin    SiteState = "fetched_origin"
	StateDiscoveringLinks SiteState = "discovering_links"
	StateFetchingMore     SiteState = "fetching_more"
	StateDone             SiteState = "done"
)

// SiteResult reports what one site crawl did.
type SiteResult struct {
	Origin string
	// State is the last state reached before Done.
	State SiteState
	// Visited lists the URLs fetched for this site, origin first.
	Visited    []string
	Failed     int
	Discovered int
	NewLeads   int
	Err        error
}

// Skipped reports whether the origin was ineligible and nothing was fetched.
func (r SiteResult) Skipped() bool {
	return r.State == StateInit
}

// Mode names how a run was seeded.
type Mode string

// Run modes.
const (
	ModeURLs     Mode = "urls"
	ModeSearches Mode = "searches"
)

// RunSummary aggregates one run. It is what gets published at the end.
type RunSummary struct {
	RunID         string    `json:"run_id"`
	Mode          Mode      `json:"mode"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Sites         int       `json:"sites"`
	SitesSkipped  int       `json:"sites_skipped"`
	SitesFailed   int       `json:"sites_failed"`
	Queries       int       `json:"queries"`
	QueriesFailed int       `json:"queries_failed"`
	PagesVisited  int       `json:"pages_visited"`
	PagesFailed   int       `json:"pages_failed"`
	Emails        int       `json:"emails"`
	Phones        int       `json:"phones"`
	Canceled      bool      `json:"canceled"`
}

func (s *RunSummary) addSite(res SiteResult) {
	s.Sites++
	if res.Skipped() {
		s.SitesSkipped++
	}
	if res.Err != nil {
		s.SitesFailed++
	}
	s.PagesVisited += len(res.Visited)
	s.PagesFailed += res.Failed
}
