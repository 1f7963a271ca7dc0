package crawler

import (
	"errors"
	"fmt"
)

// ErrFetcherUnavailable means no page fetcher could be started. It is the only
// condition that aborts a run, and it does so before any crawling begins.
var ErrFetcherUnavailable = errors.New("page fetcher unavailable")

// FetchError is a failed page visit: timeout, navigation error or DOM query error.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// SiteError is a failure spanning a whole site's crawl, such as a browsing
// context that could not be created.
type SiteError struct {
	Origin string
	Err    error
}

func (e *SiteError) Error() string {
	return fmt.Sprintf("crawl site %s: %v", e.Origin, e.Err)
}

func (e *SiteError) Unwrap() error {
	return e.Err
}

// SearchError is a failed search query.
type SearchError struct {
	Query string
	Err   error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search %q: %v", e.Query, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

func recoveredError(v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", v)
}
