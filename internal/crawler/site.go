package crawler

import (
	"context"
	"time"

	"github.com/JakeFAU/lead-hunter/internal/frontier"
	"github.com/JakeFAU/lead-hunter/internal/leads"
	"github.com/JakeFAU/lead-hunter/internal/links"
	"github.com/JakeFAU/lead-hunter/internal/metrics"
	"go.uber.org/zap"
)

// SiteConfig bounds a single site crawl.
type SiteConfig struct {
	// MaxPages is the per-site visit budget, origin included.
	MaxPages int
	Pacing   Pacing
}

// SiteCrawler visits an origin and up to MaxPages-1 same-site links, feeding every
// page through the extractor into the run's lead store.
type SiteCrawler struct {
	fetcher   PageFetcher
	frontier  *frontier.Frontier
	store     *leads.Store
	extractor ContactExtractor
	pacer     Pacer
	clock     Clock
	cfg       SiteConfig
	logger    *zap.Logger
}

// NewSiteCrawler wires a SiteCrawler. The frontier and store are shared across the run.
func NewSiteCrawler(
	fetcher PageFetcher,
	front *frontier.Frontier,
	store *leads.Store,
	extractor ContactExtractor,
	pacer Pacer,
	clock Clock,
	cfg SiteConfig,
	logger *zap.Logger,
) *SiteCrawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pacer == nil {
		pacer = NoopPacer{}
	}
	if cfg.MaxPages < 1 {
		cfg.MaxPages = 1
	}
	return &SiteCrawler{
		fetcher:   fetcher,
		frontier:  front,
		store:     store,
		extractor: extractor,
		pacer:     pacer,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// Crawl runs one site to completion. It never returns an error directly; failures
// are reported in the result and the run moves on.
func (c *SiteCrawler) Crawl(ctx context.Context, origin string) (res SiteResult) {
	res = SiteResult{Origin: origin, State: StateInit}
	if ctx.Err() != nil || !c.frontier.IsEligible(origin) {
		c.logger.Debug("skipping origin", zap.String("url", origin))
		metrics.ObserveSite(metrics.StatusSkipped)
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			res.Err = &SiteError{Origin: origin, Err: recoveredError(r)}
			c.logger.Error("site crawl panicked", zap.String("url", origin), zap.Error(res.Err))
		}
		if res.Err != nil {
			metrics.ObserveSite(metrics.StatusFailure)
		} else {
			metrics.ObserveSite(metrics.StatusSuccess)
		}
	}()

	session, err := c.fetcher.NewSession(ctx)
	if err != nil {
		res.Err = &SiteError{Origin: origin, Err: err}
		c.logger.Error("failed to open browsing session", zap.String("url", origin), zap.Error(err))
		res.State = StateDone
		return res
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			c.logger.Warn("failed to close browsing session", zap.String("url", origin), zap.Error(cerr))
		}
	}()

	c.logger.Info("crawling site", zap.String("url", origin), zap.Int("max_pages", c.cfg.MaxPages))

	page, ok := c.visit(ctx, session, origin, &res)
	res.State = StateFetchedOrigin
	if !ok || c.cfg.MaxPages <= 1 {
		res.State = StateDone
		return res
	}

	res.State = StateDiscoveringLinks
	candidates := links.Discover(c.anchors(page), origin)
	res.Discovered = len(candidates)
	c.logger.Debug("discovered links", zap.String("url", origin), zap.Int("count", len(candidates)))

	res.State = StateFetchingMore
	for _, link := range candidates {
		if len(res.Visited) >= c.cfg.MaxPages || ctx.Err() != nil {
			break
		}
		if !c.frontier.IsEligible(link) {
			continue
		}
		c.visit(ctx, session, link, &res)
	}

	res.State = StateDone
	c.logger.Info("finished site",
		zap.String("url", origin),
		zap.Int("pages", len(res.Visited)),
		zap.Int("failed", res.Failed),
		zap.Int("new_leads", res.NewLeads),
	)
	return res
}

// visit marks, fetches and mines one page. The URL is marked before the fetch so
// a failure is never retried and still counts against the budget.
func (c *SiteCrawler) visit(ctx context.Context, session Session, pageURL string, res *SiteResult) (Page, bool) {
	c.frontier.MarkVisited(pageURL)
	res.Visited = append(res.Visited, pageURL)
	defer c.pacer.Pause(ctx, c.cfg.Pacing.Page)

	start := time.Now()
	page, err := session.Visit(ctx, pageURL)
	if err != nil {
		res.Failed++
		metrics.ObservePage(pageURL, metrics.StatusFailure, time.Since(start))
		c.logger.Warn("failed to fetch page", zap.Error(&FetchError{URL: pageURL, Err: err}))
		return Page{}, false
	}
	metrics.ObservePage(pageURL, metrics.StatusSuccess, time.Since(start))
	fields := []zap.Field{zap.String("url", pageURL), zap.Int("status_code", page.StatusCode), zap.Duration("duration", page.Duration)}
	if page.FinalURL != "" && page.FinalURL != pageURL {
		fields = append(fields, zap.String("final_url", page.FinalURL))
	}
	c.logger.Info("visited page", fields...)

	found := c.extractor.Extract(page.HTML)
	if found.Empty() {
		c.logger.Debug("no contacts on page", zap.String("url", pageURL))
		return page, true
	}
	now := c.clock.Now()
	res.NewLeads += c.record(leads.KindEmail, found.Emails, pageURL, now)
	res.NewLeads += c.record(leads.KindPhone, found.Phones, pageURL, now)
	return page, true
}

// anchors returns the fetcher's anchor list, or parses the HTML when the fetcher
// returned none.
func (c *SiteCrawler) anchors(page Page) []string {
	if page.Anchors != nil {
		return page.Anchors
	}
	hrefs, err := links.Anchors(page.HTML)
	if err != nil {
		c.logger.Warn("failed to parse anchors", zap.String("url", page.URL), zap.Error(err))
		return nil
	}
	return hrefs
}

func (c *SiteCrawler) record(kind leads.Kind, values []string, sourceURL string, at time.Time) int {
	added := 0
	for _, v := range values {
		if !c.store.Add(kind, v, sourceURL, at) {
			continue
		}
		added++
		metrics.ObserveLead(string(kind))
		c.logger.Info("found lead",
			zap.String("kind", string(kind)),
			zap.String("value", v),
			zap.String("url", sourceURL),
		)
	}
	return added
}
