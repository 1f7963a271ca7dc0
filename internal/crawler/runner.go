package crawler

import (
	"context"
	"errors"

	"github.com/JakeFAU/lead-hunter/internal/leads"
	"github.com/JakeFAU/lead-hunter/internal/metrics"
	"go.uber.org/zap"
)

// Runner drives a whole run: a list of seed sites or a list of search queries,
// one site at a time, with pauses in between.
type Runner struct {
	sites    *SiteCrawler
	searcher Searcher
	store    *leads.Store
	pacer    Pacer
	pacing   Pacing
	clock    Clock
	ids      IDGenerator
	logger   *zap.Logger
}

// RunnerDeps are the collaborators a Runner needs. Searcher may be nil when only
// URL runs are performed.
type RunnerDeps struct {
	Sites    *SiteCrawler
	Searcher Searcher
	Store    *leads.Store
	Pacer    Pacer
	Pacing   Pacing
	Clock    Clock
	IDs      IDGenerator
	Logger   *zap.Logger
}

// NewRunner builds a Runner from deps.
func NewRunner(deps RunnerDeps) *Runner {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pacer := deps.Pacer
	if pacer == nil {
		pacer = NoopPacer{}
	}
	return &Runner{
		sites:    deps.Sites,
		searcher: deps.Searcher,
		store:    deps.Store,
		pacer:    pacer,
		pacing:   deps.Pacing,
		clock:    deps.Clock,
		ids:      deps.IDs,
		logger:   logger,
	}
}

// Leads returns every lead collected so far, in discovery order.
func (r *Runner) Leads() []leads.Lead {
	return r.store.All()
}

// RunURLs crawls each seed in order, pausing between sites.
func (r *Runner) RunURLs(ctx context.Context, seeds []string) RunSummary {
	summary := r.begin(ModeURLs)
	r.logger.Info("starting url run", zap.String("run_id", summary.RunID), zap.Int("seeds", len(seeds)))

	r.crawlSites(ctx, seeds, &summary)
	return r.finish(ctx, summary)
}

// RunSearches resolves each query into at most maxResults sites and crawls them.
// A failed query is logged and skipped.
func (r *Runner) RunSearches(ctx context.Context, queries []string, maxResults int) RunSummary {
	summary := r.begin(ModeSearches)
	r.logger.Info("starting search run", zap.String("run_id", summary.RunID), zap.Int("queries", len(queries)))

	for i, query := range queries {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			r.pacer.Pause(ctx, r.pacing.Query)
			if ctx.Err() != nil {
				break
			}
		}
		summary.Queries++

		urls, err := r.search(ctx, query, maxResults)
		if err != nil {
			summary.QueriesFailed++
			metrics.ObserveSearch(metrics.StatusFailure)
			r.logger.Error("search failed", zap.String("query", query), zap.Error(err))
			continue
		}
		metrics.ObserveSearch(metrics.StatusSuccess)
		r.logger.Info("search returned results", zap.String("query", query), zap.Int("results", len(urls)))

		r.crawlSites(ctx, urls, &summary)
	}
	return r.finish(ctx, summary)
}

func (r *Runner) search(ctx context.Context, query string, maxResults int) (urls []string, err error) {
	if r.searcher == nil {
		return nil, &SearchError{Query: query, Err: errors.New("no searcher configured")}
	}
	defer func() {
		if rec := recover(); rec != nil {
			urls = nil
			err = &SearchError{Query: query, Err: recoveredError(rec)}
		}
	}()
	urls, err = r.searcher.Search(ctx, query, maxResults)
	if err != nil {
		return nil, &SearchError{Query: query, Err: err}
	}
	if maxResults > 0 && len(urls) > maxResults {
		urls = urls[:maxResults]
	}
	return urls, nil
}

func (r *Runner) crawlSites(ctx context.Context, origins []string, summary *RunSummary) {
	for i, origin := range origins {
		if ctx.Err() != nil {
			return
		}
		if i > 0 {
			r.pacer.Pause(ctx, r.pacing.Site)
			if ctx.Err() != nil {
				return
			}
		}
		summary.addSite(r.sites.Crawl(ctx, origin))
	}
}

func (r *Runner) begin(mode Mode) RunSummary {
	summary := RunSummary{Mode: mode, StartedAt: r.clock.Now()}
	if r.ids != nil {
		id, err := r.ids.NewID()
		if err != nil {
			r.logger.Warn("failed to generate run id", zap.Error(err))
		}
		summary.RunID = id
	}
	return summary
}

func (r *Runner) finish(ctx context.Context, summary RunSummary) RunSummary {
	summary.FinishedAt = r.clock.Now()
	summary.Emails = r.store.Count(leads.KindEmail)
	summary.Phones = r.store.Count(leads.KindPhone)
	summary.Canceled = ctx.Err() != nil
	r.logger.Info("run finished",
		zap.String("run_id", summary.RunID),
		zap.Int("sites", summary.Sites),
		zap.Int("pages", summary.PagesVisited),
		zap.Int("emails", summary.Emails),
		zap.Int("phones", summary.Phones),
		zap.Bool("canceled", summary.Canceled),
	)
	return summary
}
