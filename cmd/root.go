// Package cmd defines and implements the CLI commands for the lead-hunter executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/lead-hunter/internal/app"
	"github.com/JakeFAU/lead-hunter/internal/config"
)

// buildApp is the application factory. It's a variable so tests can inject
// fakes for the fetcher and sinks.
var buildApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app.App, error) {
	return app.Build(ctx, cfg, logger)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "lead-hunter",
		Short: "Collects email addresses and phone numbers from websites.",
		Long: `lead-hunter visits seed websites, or the top results of search queries,
follows a few same-site links on each, and extracts contact details from every
page it loads. Results are exported as CSV, JSON and plain text.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	cmd.AddCommand(newHuntCmd(&cfgFile))

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
