package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://Example.com/path", "example.com"},
		{"no scheme", "example.com/path", "example.com"},
		{"just host", "example.com", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"ip address", "192.168.1.1", "192.168.1.1"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SanitizeSite(tc.input))
		})
	}
}

func TestInitIsIdempotent(t *testing.T) {
	Init()
	first := pagesTotal
	Init()

	require.NotNil(t, pagesTotal)
	require.NotNil(t, leadsTotal)
	require.NotNil(t, sitesTotal)
	require.NotNil(t, searchQueriesTotal)
	assert.Same(t, first, pagesTotal)
}

func TestObserveFunctions(t *testing.T) {
	Init()

	before := testutil.ToFloat64(pagesTotal.WithLabelValues("acme.test", StatusSuccess))
	ObservePage("https://ACME.test/contact", StatusSuccess, 120*time.Millisecond)
	assert.InDelta(t, before+1, testutil.ToFloat64(pagesTotal.WithLabelValues("acme.test", StatusSuccess)), 0.001)

	leadsBefore := testutil.ToFloat64(leadsTotal.WithLabelValues("email"))
	ObserveLead("email")
	ObserveLead("email")
	assert.InDelta(t, leadsBefore+2, testutil.ToFloat64(leadsTotal.WithLabelValues("email")), 0.001)

	sitesBefore := testutil.ToFloat64(sitesTotal.WithLabelValues(StatusFailure))
	ObserveSite(StatusFailure)
	assert.InDelta(t, sitesBefore+1, testutil.ToFloat64(sitesTotal.WithLabelValues(StatusFailure)), 0.001)

	searchBefore := testutil.ToFloat64(searchQueriesTotal.WithLabelValues(StatusSuccess))
	ObserveSearch(StatusSuccess)
	assert.InDelta(t, searchBefore+1, testutil.ToFloat64(searchQueriesTotal.WithLabelValues(StatusSuccess)), 0.001)

	assert.Positive(t, testutil.CollectAndCount(pageFetchSeconds))
}

// Fuzz test for SanitizeSite.
func FuzzSanitizeSite(f *testing.F) {
	testcases := []string{"http://example.com", "https://google.com", "ftp://example.com"}
	for _, tc := range testcases {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		sanitized := SanitizeSite(orig)
		if sanitized == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}
