// Package collyfetcher implements crawler.PageFetcher with plain HTTP requests via gocolly.
// Pages are not rendered, so script-built content is invisible to it.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/lead-hunter/internal/crawler"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher implements crawler.PageFetcher using the Colly collector.
type Fetcher struct {
	cfg       Config
	transport http.RoundTripper
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnHTML(string, colly.HTMLCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher. All sessions share one pooled transport.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Fetcher{
		cfg:       cfg,
		transport: newHTTPTransport(),
	}
}

// NewSession returns a session with its own collector and cookie jar.
func (f *Fetcher) NewSession(_ context.Context) (crawler.Session, error) {
	c := colly.NewCollector(colly.Async(false))
	if f.cfg.UserAgent != "" {
		c.UserAgent = f.cfg.UserAgent
	}
	c.WithTransport(f.transport)
	c.SetRequestTimeout(f.cfg.Timeout)
	// The frontier owns deduplication.
	c.AllowURLRevisit = true
	// Error pages are still scanned for contacts.
	c.ParseHTTPErrorResponse = true
	c.IgnoreRobotsTxt = true
	return &session{collector: c}, nil
}

type session struct {
	collector *colly.Collector
}

// Visit performs one GET and collects the body and raw anchors.
func (s *session) Visit(ctx context.Context, rawURL string) (crawler.Page, error) {
	var (
		page     = crawler.Page{URL: rawURL}
		fetchErr error
	)
	start := time.Now()
	collector := s.collector.Clone()
	configureCollectorHooks(collector, &page, &fetchErr)

	if err := runCollector(ctx, collector, rawURL, &fetchErr); err != nil {
		return crawler.Page{}, err
	}
	page.Duration = time.Since(start)
	return page, nil
}

// Close is a no-op; the collector holds no resources beyond the shared transport.
func (s *session) Close() error {
	return nil
}

func configureCollectorHooks(hooks collectorHooks, page *crawler.Page, fetchErr *error) {
	hooks.OnResponse(func(r *colly.Response) {
		page.StatusCode = r.StatusCode
		page.FinalURL = r.Request.URL.String()
		page.HTML = string(r.Body)
	})

	hooks.OnHTML("a[href]", func(e *colly.HTMLElement) {
		page.Anchors = append(page.Anchors, e.Attr("href"))
	})

	hooks.OnError(func(_ *colly.Response, err error) {
		*fetchErr = err
	})
}

func runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
