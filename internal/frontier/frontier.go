// Package frontier tracks which URLs a run may still fetch.
//
// URL identity is exact string equality on the URL as passed in: no trailing-slash,
// query or case normalization is applied, so "http://x.com" and "http://x.com/" are
// two different pages.
package frontier

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrMalformedURL marks a URL that does not parse or has no network location.
var ErrMalformedURL = errors.New("malformed url")

// Frontier holds the run's visited set. It only grows.
//
// Frontier is not safe for concurrent use.
type Frontier struct {
	visited map[string]struct{}
}

// New returns an empty Frontier.
func New() *Frontier {
	return &Frontier{
		visited: make(map[string]struct{}),
	}
}

// IsEligible reports whether raw parses to a URL with a network location and has
// not been visited yet. Parse failures simply make the URL ineligible.
func (f *Frontier) IsEligible(raw string) bool {
	if _, err := Parse(raw); err != nil {
		return false
	}
	_, seen := f.visited[raw]
	return !seen
}

// MarkVisited records raw as visited. Calling it twice has no further effect.
func (f *Frontier) MarkVisited(raw string) {
	f.visited[raw] = struct{}{}
}

// Visited reports whether raw is in the visited set.
func (f *Frontier) Visited(raw string) bool {
	_, ok := f.visited[raw]
	return ok
}

// Len returns the size of the visited set.
func (f *Frontier) Len() int {
	return len(f.visited)
}

// Parse parses raw and requires a non-empty network location (host[:port]).
func Parse(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrMalformedURL, raw)
	}
	return u, nil
}

// SameNetloc reports whether a and b have identical network locations. The
// comparison is case-sensitive and includes the port.
func SameNetloc(a, b string) bool {
	ua, err := Parse(a)
	if err != nil {
		return false
	}
	ub, err := Parse(b)
	if err != nil {
		return false
	}
	return ua.Host == ub.Host
}
