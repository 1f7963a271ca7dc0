// Package headless contains page fetchers that execute JavaScript via browsers.
package headless

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/JakeFAU/lead-hunter/internal/crawler"
)

// anchorsScript returns the raw href attribute of every anchor, unresolved.
const anchorsScript = `Array.from(document.querySelectorAll('a[href]')).map(a => a.getAttribute('href'))`

// Config controls the behavior of the headless fetcher.
type Config struct {
	Headless          bool
	UserAgent         string
	NavigationTimeout time.Duration
	// Settle is how long to wait after the body is ready for scripts to fill the page.
	Settle time.Duration
}

// Fetcher implements crawler.PageFetcher using chromedp and one Chrome process per run.
type Fetcher struct {
	cfg           Config
	logger        *zap.Logger
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewChromedp starts Chrome and returns a fetcher backed by it. A browser that
// cannot be launched yields crawler.ErrFetcherUnavailable.
func NewChromedp(cfg Config, logger *zap.Logger) (*Fetcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}
	if cfg.Settle < 0 {
		cfg.Settle = 0
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(cfg)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: chromedp warmup: %w", crawler.ErrFetcherUnavailable, err)
	}
	logger.Info("headless browser started", zap.Bool("headless", cfg.Headless))

	return &Fetcher{
		cfg:           cfg,
		logger:        logger,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

func allocatorOptions(cfg Config) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	if cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	opts = append(opts,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	return opts
}

// Close shuts the browser down.
func (f *Fetcher) Close() error {
	f.browserCancel()
	f.allocCancel()
	return nil
}

// NewSession opens an isolated browser context (own cookies and storage) for one site.
func (f *Fetcher) NewSession(ctx context.Context) (crawler.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("open browser context: %w", err)
	}
	tabCtx, cancel := chromedp.NewContext(f.browserCtx, chromedp.WithNewBrowserContext())
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("open browser context: %w", err)
	}
	meta := &responseMeta{}
	chromedp.ListenTarget(tabCtx, meta.captureEvent)
	return &session{
		fetcher: f,
		tabCtx:  tabCtx,
		cancel:  cancel,
		meta:    meta,
	}, nil
}

type session struct {
	fetcher *Fetcher
	tabCtx  context.Context
	cancel  context.CancelFunc
	meta    *responseMeta
}

// Visit navigates the session's tab to rawURL and snapshots the rendered DOM.
func (s *session) Visit(ctx context.Context, rawURL string) (crawler.Page, error) {
	taskCtx, cancel := context.WithTimeout(s.tabCtx, s.fetcher.cfg.NavigationTimeout)
	defer cancel()
	stopForward := forwardCancel(ctx, cancel)
	defer stopForward()

	s.meta.reset()
	start := time.Now()

	var (
		html     string
		finalURL string
		anchors  []string
	)
	actions := []chromedp.Action{
		s.networkSetupAction(),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.fetcher.cfg.Settle),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Evaluate(anchorsScript, &anchors),
	}
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return crawler.Page{}, fmt.Errorf("chromedp run: %w", err)
	}

	status, responseURL := s.meta.snapshot()
	if finalURL == "" {
		finalURL = responseURL
	}
	return crawler.Page{
		URL:        rawURL,
		FinalURL:   finalURL,
		StatusCode: status,
		HTML:       html,
		Anchors:    anchors,
		Duration:   time.Since(start),
	}, nil
}

func (s *session) networkSetupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if ua := s.fetcher.cfg.UserAgent; ua != "" {
			if err := emulation.SetUserAgentOverride(ua).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

// Close disposes the browser context and its tab.
func (s *session) Close() error {
	s.cancel()
	return nil
}

// responseMeta records the status of the most recent document response.
type responseMeta struct {
	mu     sync.Mutex
	status int
	url    string
}

func (m *responseMeta) captureEvent(ev any) {
	resp, ok := ev.(*network.EventResponseReceived)
	if !ok || resp.Type != network.ResourceTypeDocument || resp.Response == nil {
		return
	}
	m.mu.Lock()
	m.status = int(resp.Response.Status)
	m.url = resp.Response.URL
	m.mu.Unlock()
}

func (m *responseMeta) reset() {
	m.mu.Lock()
	m.status = 0
	m.url = ""
	m.mu.Unlock()
}

func (m *responseMeta) snapshot() (int, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, m.url
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
