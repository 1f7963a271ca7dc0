package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/lead-hunter/internal/app"
	"github.com/JakeFAU/lead-hunter/internal/config"
	"github.com/JakeFAU/lead-hunter/internal/crawler"
	memorystorage "github.com/JakeFAU/lead-hunter/internal/storage/memory"
)

type stubPages map[string]crawler.Page

func (p stubPages) NewSession(context.Context) (crawler.Session, error) { return p, nil }

func (p stubPages) Visit(_ context.Context, rawURL string) (crawler.Page, error) {
	page, ok := p[rawURL]
	if !ok {
		return crawler.Page{}, errors.New("not found")
	}
	return page, nil
}

func (p stubPages) Close() error { return nil }

// withBuilder swaps the app factory for the duration of a test.
func withBuilder(t *testing.T, opts ...app.Option) *config.Config {
	t.Helper()
	var seen config.Config
	prev := buildApp
	buildApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app.App, error) {
		seen = cfg
		return app.Build(ctx, cfg, logger, append([]app.Option{app.WithPacer(crawler.NoopPacer{})}, opts...)...)
	}
	t.Cleanup(func() { buildApp = prev })
	return &seen
}

func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(new(nopWriter))
	root.SetErr(new(nopWriter))
	return root.Execute()
}

type nopWriter struct{}

func (*nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestHuntURLsExportsLeads(t *testing.T) {
	blobs := memorystorage.NewBlobStore()
	pages := stubPages{
		"https://acme.test":       {HTML: "<p>sales@acme.io</p>", Anchors: []string{"/about"}},
		"https://acme.test/about": {HTML: "<p>555-123-4567</p>"},
	}
	seen := withBuilder(t, app.WithFetcher(pages), app.WithBlobStore(blobs))

	err := runCLI(t, "hunt", "--urls", "https://acme.test", "--max-pages", "2", "--output", "acme")
	require.NoError(t, err)

	assert.Equal(t, 2, seen.Crawl.MaxPages)
	assert.Equal(t, "acme", seen.Export.Output)
	assert.Equal(t, []string{"acme.csv", "acme.json", "acme.txt"}, blobs.Paths())
	obj, ok := blobs.Get("acme.txt")
	require.True(t, ok)
	assert.Contains(t, string(obj.Data), "sales@acme.io")
	assert.Contains(t, string(obj.Data), "555-123-4567")
}

func TestHuntRejectsEmptyURLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(path, []byte("nothing\n"), 0o600))
	built := false
	prev := buildApp
	buildApp = func(context.Context, config.Config, *zap.Logger) (*app.App, error) {
		built = true
		return nil, errors.New("unexpected")
	}
	t.Cleanup(func() { buildApp = prev })

	err := runCLI(t, "hunt", "--file", path)
	require.ErrorIs(t, err, ErrNoValidURLs)
	assert.False(t, built)
}

func TestHuntInvalidFlags(t *testing.T) {
	err := runCLI(t, "hunt", "--max-pages", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_pages")
}

func TestHuntWithCollyAgainstLocalServer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, `<html><body><a href="/contact">Contact</a></body></html>`)
	})
	mux.HandleFunc("/contact", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, `<p>Reach us at hello@local.example or +1 (303) 555-0199.</p>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	t.Setenv("LEADHUNTER_EXPORT_DIR", dir)

	err := runCLI(t, "hunt", "--fetcher", "colly", "--delay", "0", "--urls", srv.URL, "--output", "local")
	require.NoError(t, err)

	for _, ext := range []string{"csv", "json", "txt"} {
		data, err := os.ReadFile(filepath.Join(dir, "local."+ext))
		require.NoError(t, err, ext)
		assert.Contains(t, string(data), "hello@local.example", ext)
	}
}

func TestHuntOutputPathChoosesExportDirectory(t *testing.T) {
	pages := stubPages{"https://acme.test": {HTML: "<p>sales@acme.io</p>"}}
	withBuilder(t, app.WithFetcher(pages))
	t.Setenv("LEADHUNTER_EXPORT_DIR", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "results")

	err := runCLI(t, "hunt", "--urls", "https://acme.test", "--output", target)
	require.NoError(t, err)

	for _, ext := range []string{"csv", "json", "txt"} {
		assert.FileExists(t, target+"."+ext)
	}
}
