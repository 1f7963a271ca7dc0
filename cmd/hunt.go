package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/lead-hunter/internal/config"
	"github.com/JakeFAU/lead-hunter/internal/crawler"
	"github.com/JakeFAU/lead-hunter/internal/logging"
)

// finishTimeout bounds exporting and publishing after the crawl, including after Ctrl-C.
const finishTimeout = 2 * time.Minute

// newHuntCmd creates the 'hunt' subcommand.
func newHuntCmd(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hunt",
		Short: "Crawl seed sites or search results and export the leads found",
		Long: `Seeds are taken from --urls, else --file, else --searches. With none of
them, a small built-in list of example sites is crawled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHunt(cmd, *cfgFile)
		},
	}

	f := cmd.Flags()
	f.StringSlice("urls", nil, "URLs to crawl (repeatable or comma separated)")
	f.String("file", "", "file containing URLs, one per line")
	f.StringSlice("searches", nil, "search queries whose results are crawled")
	f.Bool("headless", true, "run the browser without a window")
	f.Int("max-pages", 5, "max pages to visit per site, origin included")
	f.Float64("delay", 1, "delay between page visits in seconds")
	f.Int("max-results", 5, "max search results to crawl per query")
	f.String("output", "leads", "export file name without extension")
	f.String("fetcher", config.EngineChromedp, "page fetcher: chromedp or colly")
	return cmd
}

func runHunt(cmd *cobra.Command, cfgFile string) error {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}

	p, err := resolvePlan(cfg.Hunt)
	if err != nil {
		logger.Error("no seeds to crawl", zap.Error(err))
		return err
	}
	if p.source == "defaults" {
		logger.Info("running with example URLs; use --urls, --file or --searches to choose targets")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application services: %w", err)
	}
	defer a.Close(context.WithoutCancel(ctx))

	var summary crawler.RunSummary
	switch p.mode {
	case crawler.ModeSearches:
		summary = a.Runner().RunSearches(ctx, p.searches, cfg.Crawl.MaxResults)
	default:
		summary = a.Runner().RunURLs(ctx, p.urls)
	}
	if summary.Canceled {
		logger.Warn("run interrupted; exporting leads collected so far")
	}

	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()
	if err := a.Finish(finishCtx, summary); err != nil {
		return fmt.Errorf("deliver results: %w", err)
	}
	return nil
}
