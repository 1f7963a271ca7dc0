// Package app builds the services a hunt needs from configuration and holds them
// for the duration of one run.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/lead-hunter/internal/clock/system"
	"github.com/JakeFAU/lead-hunter/internal/config"
	"github.com/JakeFAU/lead-hunter/internal/crawler"
	"github.com/JakeFAU/lead-hunter/internal/export"
	"github.com/JakeFAU/lead-hunter/internal/extract"
	collyfetcher "github.com/JakeFAU/lead-hunter/internal/fetcher/colly"
	"github.com/JakeFAU/lead-hunter/internal/fetcher/headless"
	"github.com/JakeFAU/lead-hunter/internal/frontier"
	"github.com/JakeFAU/lead-hunter/internal/id/uuid"
	"github.com/JakeFAU/lead-hunter/internal/leads"
	"github.com/JakeFAU/lead-hunter/internal/metrics"
	pubsubpublisher "github.com/JakeFAU/lead-hunter/internal/publisher/pubsub"
	"github.com/JakeFAU/lead-hunter/internal/search"
	gcsstorage "github.com/JakeFAU/lead-hunter/internal/storage/gcs"
	localstorage "github.com/JakeFAU/lead-hunter/internal/storage/local"
	pgstore "github.com/JakeFAU/lead-hunter/internal/storage/postgres"
)

// RunRecorder persists a finished run's summary.
type RunRecorder interface {
	RecordRun(ctx context.Context, summary crawler.RunSummary) error
}

// App holds the shared, long-lived services for one run. It is built once at
// startup and closed when the command returns.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	fetcher  crawler.PageFetcher
	runner   *crawler.Runner
	exporter *export.Exporter
	// exportStem is the export file name without extension, relative to the blob store.
	exportStem string

	leadSink  crawler.LeadSink
	runs      RunRecorder
	publisher crawler.Publisher

	closers []func(context.Context) error
}

type buildOptions struct {
	fetcher   crawler.PageFetcher
	blobStore crawler.BlobStore
	leadSink  crawler.LeadSink
	runs      RunRecorder
	publisher crawler.Publisher
	pacer     crawler.Pacer
	clock     crawler.Clock
	ids       crawler.IDGenerator
}

// Option overrides a service Build would otherwise construct from config.
type Option func(*buildOptions)

// WithFetcher injects the page fetcher.
func WithFetcher(f crawler.PageFetcher) Option {
	return func(o *buildOptions) { o.fetcher = f }
}

// WithBlobStore injects the export destination.
func WithBlobStore(s crawler.BlobStore) Option {
	return func(o *buildOptions) { o.blobStore = s }
}

// WithLeadSink injects the lead sink and, optionally, the run recorder.
func WithLeadSink(s crawler.LeadSink, runs RunRecorder) Option {
	return func(o *buildOptions) {
		o.leadSink = s
		o.runs = runs
	}
}

// WithPublisher injects the run-summary publisher.
func WithPublisher(p crawler.Publisher) Option {
	return func(o *buildOptions) { o.publisher = p }
}

// WithPacer injects the pacer, typically crawler.NoopPacer in tests.
func WithPacer(p crawler.Pacer) Option {
	return func(o *buildOptions) { o.pacer = p }
}

// WithClock injects the clock.
func WithClock(c crawler.Clock) Option {
	return func(o *buildOptions) { o.clock = c }
}

// WithIDGenerator injects the run ID generator.
func WithIDGenerator(g crawler.IDGenerator) Option {
	return func(o *buildOptions) { o.ids = g }
}

// Build creates the application's dependencies. Any failure closes what was
// already opened. A fetcher that cannot start yields crawler.ErrFetcherUnavailable.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (_ *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := buildOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	if cfg.Metrics.Enabled {
		srv := metrics.Serve(cfg.Metrics.Addr, logger.Named("metrics"))
		a.closers = append(a.closers, srv.Shutdown)
	}

	if a.fetcher, err = a.setupFetcher(o.fetcher); err != nil {
		return nil, err
	}

	blobStore, err := a.setupStorage(ctx, o.blobStore)
	if err != nil {
		return nil, err
	}
	a.exporter = export.New(blobStore, logger.Named("export"))

	if err = a.setupDatabase(ctx, o); err != nil {
		return nil, err
	}
	if err = a.setupPublisher(ctx, o.publisher); err != nil {
		return nil, err
	}

	a.runner = a.buildRunner(o)
	logger.Info("application services initialized",
		zap.String("fetcher", cfg.Fetcher.Engine),
		zap.Bool("postgres", a.leadSink != nil),
		zap.Bool("pubsub", a.publisher != nil),
	)
	return a, nil
}

func (a *App) setupFetcher(injected crawler.PageFetcher) (crawler.PageFetcher, error) {
	if injected != nil {
		return injected, nil
	}
	fc := a.cfg.Fetcher
	switch fc.Engine {
	case config.EngineColly:
		return collyfetcher.New(collyfetcher.Config{UserAgent: fc.UserAgent, Timeout: fc.Timeout()}), nil
	case config.EngineChromedp:
		f, err := headless.NewChromedp(headless.Config{
			Headless:          fc.Headless,
			UserAgent:         fc.UserAgent,
			NavigationTimeout: fc.Timeout(),
			Settle:            fc.Settle(),
		}, a.logger.Named("headless"))
		if err != nil {
			return nil, fmt.Errorf("start chromedp fetcher: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return f.Close() })
		return f, nil
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", crawler.ErrFetcherUnavailable, fc.Engine)
	}
}

func (a *App) setupStorage(ctx context.Context, injected crawler.BlobStore) (crawler.BlobStore, error) {
	ec := a.cfg.Export
	a.exportStem = ec.Output
	if injected != nil {
		return injected, nil
	}
	if ec.GCSBucket == "" {
		dir, stem := ec.LocalTarget()
		store, err := localstorage.New(localstorage.Config{BaseDir: dir})
		if err != nil {
			return nil, fmt.Errorf("init local export dir: %w", err)
		}
		a.exportStem = stem
		return store, nil
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	store, err := gcsstorage.New(client, gcsstorage.Config{Bucket: ec.GCSBucket, Prefix: ec.GCSPrefix})
	if err != nil {
		return nil, fmt.Errorf("init gcs export: %w", err)
	}
	if err := store.CheckBucket(ctx); err != nil {
		return nil, err
	}
	a.logger.Info("exporting to gcs", zap.String("bucket", ec.GCSBucket), zap.String("prefix", ec.GCSPrefix))
	return store, nil
}

func (a *App) setupDatabase(ctx context.Context, o buildOptions) error {
	if o.leadSink != nil {
		a.leadSink, a.runs = o.leadSink, o.runs
		return nil
	}
	pc := a.cfg.Postgres
	if pc.DSN == "" {
		return nil
	}
	store, err := pgstore.NewLeadStore(ctx, pgstore.Config{DSN: pc.DSN, Table: pc.Table})
	if err != nil {
		return fmt.Errorf("init postgres lead store: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { store.Close(); return nil })
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	a.leadSink, a.runs = store, store
	return nil
}

func (a *App) setupPublisher(ctx context.Context, injected crawler.Publisher) error {
	if injected != nil {
		a.publisher = injected
		return nil
	}
	pc := a.cfg.PubSub
	if pc.Topic == "" {
		return nil
	}
	client, err := pubsub.NewClient(ctx, pc.ProjectID)
	if err != nil {
		return fmt.Errorf("create pubsub client: %w", err)
	}
	pub := pubsubpublisher.New(client, map[string]string{"source": "lead-hunter"})
	a.closers = append(a.closers, func(context.Context) error {
		pub.Close()
		return client.Close()
	})
	a.publisher = pub
	return nil
}

func (a *App) buildRunner(o buildOptions) *crawler.Runner {
	clock := o.clock
	if clock == nil {
		clock = system.New()
	}
	ids := o.ids
	if ids == nil {
		ids = uuid.New()
	}
	pacer := o.pacer
	if pacer == nil {
		pacer = crawler.TimerPacer{}
	}
	cc := a.cfg.Crawl
	pacing := crawler.NewPacing(cc.Delay(), cc.SiteDelayFactor, cc.QueryDelayFactor)

	store := leads.NewStore()
	sites := crawler.NewSiteCrawler(
		a.fetcher,
		frontier.New(),
		store,
		extract.New(
			extract.WithDenylist(a.cfg.Extract.Denylist...),
			extract.WithMinPhoneDigits(a.cfg.Extract.MinPhoneDigits),
		),
		pacer,
		clock,
		crawler.SiteConfig{MaxPages: cc.MaxPages, Pacing: pacing},
		a.logger.Named("crawler"),
	)
	searcher := search.NewEngine(a.fetcher, search.Config{
		URLTemplate:    a.cfg.Search.URLTemplate,
		ResultSelector: a.cfg.Search.ResultSelector,
	}, a.logger.Named("search"))

	return crawler.NewRunner(crawler.RunnerDeps{
		Sites:    sites,
		Searcher: searcher,
		Store:    store,
		Pacer:    pacer,
		Pacing:   pacing,
		Clock:    clock,
		IDs:      ids,
		Logger:   a.logger.Named("runner"),
	})
}

// Logger returns the shared logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Runner returns the run orchestrator.
func (a *App) Runner() *crawler.Runner {
	return a.runner
}

// Finish hands the run's results to every configured sink: export files first,
// then Postgres, then Pub/Sub. Every sink is attempted; failures are joined.
func (a *App) Finish(ctx context.Context, summary crawler.RunSummary) error {
	records := a.runner.Leads()
	var errs []error

	if _, err := a.exporter.Export(ctx, a.exportStem, records); err != nil {
		errs = append(errs, err)
	}

	if a.leadSink != nil {
		if err := a.leadSink.StoreLeads(ctx, summary.RunID, records); err != nil {
			a.logger.Error("failed to store leads", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if a.runs != nil {
		if err := a.runs.RecordRun(ctx, summary); err != nil {
			a.logger.Error("failed to record run", zap.Error(err))
			errs = append(errs, err)
		}
	}

	if a.publisher != nil {
		id, err := a.publisher.Publish(ctx, a.cfg.PubSub.Topic, summary)
		if err != nil {
			a.logger.Error("failed to publish run summary", zap.Error(err))
			errs = append(errs, err)
		} else {
			a.logger.Info("published run summary", zap.String("message_id", id))
		}
	}

	return errors.Join(errs...)
}

// Close releases services in reverse order of creation.
func (a *App) Close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("error closing service", zap.Error(err))
		}
	}
	a.closers = nil
	_ = a.logger.Sync()
}
