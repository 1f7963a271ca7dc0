package crawler

import (
	"context"
	"errors"
	"time"

	"github.com/stretchr/testify/mock"
)

var errNotFound = errors.New("navigation failed")

// fakeFetcher serves canned pages by URL. Unknown URLs fail to load.
type fakeFetcher struct {
	pages      map[string]Page
	sessionErr error
	panicOn    string

	visits   []string
	sessions int
	closed   int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: make(map[string]Page)}
}

func (f *fakeFetcher) add(url, html string, anchors ...string) {
	f.pages[url] = Page{URL: url, FinalURL: url, StatusCode: 200, HTML: html, Anchors: anchors}
}

func (f *fakeFetcher) NewSession(context.Context) (Session, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	f.sessions++
	return &fakeSession{fetcher: f}, nil
}

type fakeSession struct {
	fetcher *fakeFetcher
}

func (s *fakeSession) Visit(_ context.Context, rawURL string) (Page, error) {
	s.fetcher.visits = append(s.fetcher.visits, rawURL)
	if rawURL == s.fetcher.panicOn {
		panic("browser crashed")
	}
	page, ok := s.fetcher.pages[rawURL]
	if !ok {
		return Page{}, errNotFound
	}
	return page, nil
}

func (s *fakeSession) Close() error {
	s.fetcher.closed++
	return nil
}

type recordingPacer struct {
	pauses []time.Duration
}

func (p *recordingPacer) Pause(_ context.Context, d time.Duration) {
	p.pauses = append(p.pauses, d)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type staticIDs struct {
	id string
}

func (s staticIDs) NewID() (string, error) { return s.id, nil }

// MockSearcher is a mock implementation of the Searcher interface.
type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	args := m.Called(ctx, query, maxResults)
	urls, _ := args.Get(0).([]string)
	return urls, args.Error(1)
}
