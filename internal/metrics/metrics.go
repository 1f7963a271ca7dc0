// Package metrics exposes Prometheus collectors for lead-hunter runs.
package metrics

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusSkipped = "skipped"
)

var (
	pagesTotal            *prometheus.CounterVec
	pageFetchSeconds      *prometheus.HistogramVec
	leadsTotal            *prometheus.CounterVec
	sitesTotal            *prometheus.CounterVec
	searchQueriesTotal    *prometheus.CounterVec
	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDurationMs *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times. Observe functions are no-ops
// until Init has run.
func Init() {
	once.Do(func() {
		pagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_hunter_pages_total",
				Help: "Total number of page visits, labeled by site and status.",
			},
			[]string{"site", "status"},
		)

		pageFetchSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lead_hunter_page_fetch_seconds",
				Help:    "Histogram of page visit durations, labeled by status.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"status"},
		)

		leadsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_hunter_leads_total",
				Help: "Total number of unique leads discovered, labeled by kind.",
			},
			[]string{"kind"},
		)

		sitesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_hunter_sites_total",
				Help: "Total number of site crawls, labeled by status.",
			},
			[]string{"status"},
		)

		searchQueriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_hunter_search_queries_total",
				Help: "Total number of search queries, labeled by status.",
			},
			[]string{"status"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_hunter_http_requests_total",
				Help: "Total number of requests served by the metrics server, labeled by route and code.",
			},
			[]string{"route", "code"},
		)

		httpRequestDurationMs = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lead_hunter_http_request_duration_ms",
				Help:    "Histogram of metrics server request latencies in milliseconds.",
				Buckets: []float64{1, 5, 10, 50, 100, 500},
			},
			[]string{"route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePage records one page visit.
func ObservePage(pageURL string, status string, duration time.Duration) {
	if pagesTotal == nil {
		return
	}
	pagesTotal.WithLabelValues(SanitizeSite(pageURL), status).Inc()
	pageFetchSeconds.WithLabelValues(status).Observe(duration.Seconds())
}

// ObserveLead increments the lead counter for kind.
func ObserveLead(kind string) {
	if leadsTotal == nil {
		return
	}
	leadsTotal.WithLabelValues(kind).Inc()
}

// ObserveSite increments the site counter for the given status.
func ObserveSite(status string) {
	if sitesTotal == nil {
		return
	}
	sitesTotal.WithLabelValues(status).Inc()
}

// ObserveSearch increments the search query counter for the given status.
func ObserveSearch(status string) {
	if searchQueriesTotal == nil {
		return
	}
	searchQueriesTotal.WithLabelValues(status).Inc()
}

func observeHTTPRequest(route string, code int, duration time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(route, http.StatusText(code)).Inc()
	httpRequestDurationMs.WithLabelValues(route).Observe(float64(duration.Microseconds()) / 1000)
}
