package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com", "https://httpbin.org/html"}, cfg.Hunt.DefaultURLs)
	assert.Equal(t, 5, cfg.Crawl.MaxPages)
	assert.Equal(t, time.Second, cfg.Crawl.Delay())
	assert.InDelta(t, 2.0, cfg.Crawl.SiteDelayFactor, 0)
	assert.InDelta(t, 3.0, cfg.Crawl.QueryDelayFactor, 0)
	assert.Equal(t, 5, cfg.Crawl.MaxResults)
	assert.Equal(t, EngineChromedp, cfg.Fetcher.Engine)
	assert.True(t, cfg.Fetcher.Headless)
	assert.Equal(t, 30*time.Second, cfg.Fetcher.Timeout())
	assert.Equal(t, 2*time.Second, cfg.Fetcher.Settle())
	assert.Equal(t, "leads", cfg.Export.Output)
	assert.Equal(t, ".", cfg.Export.Dir)
	assert.Equal(t, "leads", cfg.Postgres.Table)
	assert.False(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, []string{"example", "test", "email", "domain", "placeholder"}, cfg.Extract.Denylist)
	assert.Equal(t, 7, cfg.Extract.MinPhoneDigits)
}

func TestLoadWithFileOverrides(t *testing.T) {
	path := writeConfig(t, `
hunt:
  searches: ["plumbers austin", "bakers austin"]
crawl:
  max_pages: 3
  delay_seconds: 0.5
  max_results: 10
fetcher:
  engine: colly
  user_agent: test-agent
export:
  output: run42
  gcs_bucket: exports
postgres:
  dsn: postgres://localhost/leads
pubsub:
  project_id: proj
  topic: runs
metrics:
  enabled: true
  addr: ":9191"
logging:
  development: false
  level: warn
extract:
  denylist: ["noreply"]
  min_phone_digits: 10
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"plumbers austin", "bakers austin"}, cfg.Hunt.Searches)
	assert.Equal(t, 3, cfg.Crawl.MaxPages)
	assert.Equal(t, 500*time.Millisecond, cfg.Crawl.Delay())
	assert.Equal(t, 10, cfg.Crawl.MaxResults)
	assert.Equal(t, EngineColly, cfg.Fetcher.Engine)
	assert.Equal(t, "test-agent", cfg.Fetcher.UserAgent)
	assert.Equal(t, "run42", cfg.Export.Output)
	assert.Equal(t, "exports", cfg.Export.GCSBucket)
	assert.Equal(t, "postgres://localhost/leads", cfg.Postgres.DSN)
	assert.Equal(t, "runs", cfg.PubSub.Topic)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9191", cfg.Metrics.Addr)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, []string{"noreply"}, cfg.Extract.Denylist)
	assert.Equal(t, 10, cfg.Extract.MinPhoneDigits)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LEADHUNTER_CRAWL_MAX_PAGES", "9")
	t.Setenv("LEADHUNTER_FETCHER_ENGINE", "colly")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Crawl.MaxPages)
	assert.Equal(t, EngineColly, cfg.Fetcher.Engine)
}

func TestLoadFlagOverrides(t *testing.T) {
	t.Setenv("LEADHUNTER_CRAWL_MAX_PAGES", "9")

	flags := pflag.NewFlagSet("hunt", pflag.ContinueOnError)
	flags.StringSlice("urls", nil, "")
	flags.Int("max-pages", 5, "")
	flags.Float64("delay", 1, "")
	flags.Bool("headless", true, "")
	flags.String("output", "leads", "")
	require.NoError(t, flags.Parse([]string{
		"--urls", "https://a.test,https://b.test",
		"--max-pages", "2",
		"--headless=false",
	}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.Hunt.URLs)
	assert.Equal(t, 2, cfg.Crawl.MaxPages, "flags beat the environment")
	assert.False(t, cfg.Fetcher.Headless)
	assert.Equal(t, time.Second, cfg.Crawl.Delay(), "unchanged flags keep the default")
	assert.Equal(t, "leads", cfg.Export.Output)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := Load("", nil)
	require.NoError(t, err)

	cases := map[string]func(*Config){
		"zero max pages":       func(c *Config) { c.Crawl.MaxPages = 0 },
		"negative delay":       func(c *Config) { c.Crawl.DelaySeconds = -1 },
		"negative site factor": func(c *Config) { c.Crawl.SiteDelayFactor = -2 },
		"zero max results":     func(c *Config) { c.Crawl.MaxResults = 0 },
		"unknown engine":       func(c *Config) { c.Fetcher.Engine = "lynx" },
		"zero timeout":         func(c *Config) { c.Fetcher.TimeoutSeconds = 0 },
		"negative settle":      func(c *Config) { c.Fetcher.SettleMillis = -1 },
		"blank output":         func(c *Config) { c.Export.Output = "  " },
		"output without file":  func(c *Config) { c.Export.Output = "exports/.." },
		"zero phone digits":    func(c *Config) { c.Extract.MinPhoneDigits = 0 },
		"absolute gcs output": func(c *Config) {
			c.Export.GCSBucket = "exports"
			c.Export.Output = "/tmp/leads"
		},
		"parent gcs output": func(c *Config) {
			c.Export.GCSBucket = "exports"
			c.Export.Output = "../leads"
		},
		"template without verb": func(c *Config) { c.Search.URLTemplate = "https://search.test/" },
		"topic without project": func(c *Config) { c.PubSub.Topic = "runs" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestExportLocalTarget(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "out")
	tests := []struct {
		name     string
		export   ExportConfig
		wantDir  string
		wantStem string
	}{
		{name: "bare stem", export: ExportConfig{Output: "leads", Dir: "."}, wantDir: ".", wantStem: "leads"},
		{name: "bare stem in dir", export: ExportConfig{Output: "leads", Dir: "exports"}, wantDir: "exports", wantStem: "leads"},
		{name: "absolute", export: ExportConfig{Output: filepath.Join(abs, "results"), Dir: "exports"}, wantDir: abs, wantStem: "results"},
		{name: "parent", export: ExportConfig{Output: filepath.Join("..", "leads"), Dir: "."}, wantDir: "..", wantStem: "leads"},
		{name: "nested relative", export: ExportConfig{Output: filepath.Join("runs", "today"), Dir: "exports"}, wantDir: filepath.Join("exports", "runs"), wantStem: "today"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir, stem := tc.export.LocalTarget()
			assert.Equal(t, tc.wantDir, dir)
			assert.Equal(t, tc.wantStem, stem)
		})
	}
}
