// Package config loads and validates lead-hunter configuration via Viper.
package config

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/JakeFAU/lead-hunter/internal/extract"
)

// Fetcher engines.
const (
	EngineChromedp = "chromedp"
	EngineColly    = "colly"
)

// EnvPrefix is prepended to environment overrides, e.g. LEADHUNTER_CRAWL_MAX_PAGES.
const EnvPrefix = "LEADHUNTER"

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Hunt     HuntConfig     `mapstructure:"hunt"`
	Crawl    CrawlConfig    `mapstructure:"crawl"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"`
	Search   SearchConfig   `mapstructure:"search"`
	Extract  ExtractConfig  `mapstructure:"extract"`
	Export   ExportConfig   `mapstructure:"export"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// HuntConfig holds the seed sources, in precedence order.
type HuntConfig struct {
	URLs        []string `mapstructure:"urls"`
	File        string   `mapstructure:"file"`
	Searches    []string `mapstructure:"searches"`
	DefaultURLs []string `mapstructure:"default_urls"`
}

// CrawlConfig bounds each site crawl and paces the run.
type CrawlConfig struct {
	MaxPages         int     `mapstructure:"max_pages"`
	DelaySeconds     float64 `mapstructure:"delay_seconds"`
	SiteDelayFactor  float64 `mapstructure:"site_delay_factor"`
	QueryDelayFactor float64 `mapstructure:"query_delay_factor"`
	MaxResults       int     `mapstructure:"max_results"`
}

// FetcherConfig selects and tunes the page fetcher.
type FetcherConfig struct {
	Engine         string `mapstructure:"engine"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	SettleMillis   int    `mapstructure:"settle_millis"`
	Headless       bool   `mapstructure:"headless"`
}

// SearchConfig describes the results page used for query runs.
type SearchConfig struct {
	URLTemplate    string `mapstructure:"url_template"`
	ResultSelector string `mapstructure:"result_selector"`
}

// ExtractConfig tunes the contact filters.
type ExtractConfig struct {
	// Denylist holds substrings that reject an email candidate, case-insensitively.
	Denylist       []string `mapstructure:"denylist"`
	MinPhoneDigits int      `mapstructure:"min_phone_digits"`
}

// ExportConfig controls where export files go.
type ExportConfig struct {
	Output    string `mapstructure:"output"`
	Dir       string `mapstructure:"dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	GCSPrefix string `mapstructure:"gcs_prefix"`
}

// PostgresConfig enables the Postgres lead sink when DSN is set.
type PostgresConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// PubSubConfig enables run-summary publication when both fields are set.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"urls":        "hunt.urls",
	"file":        "hunt.file",
	"searches":    "hunt.searches",
	"headless":    "fetcher.headless",
	"fetcher":     "fetcher.engine",
	"max-pages":   "crawl.max_pages",
	"delay":       "crawl.delay_seconds",
	"max-results": "crawl.max_results",
	"output":      "export.output",
}

// Load builds a Config from defaults, an optional file, the environment and any
// flags in flags that map to a config key. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("hunt.urls", []string{})
	v.SetDefault("hunt.file", "")
	v.SetDefault("hunt.searches", []string{})
	v.SetDefault("hunt.default_urls", []string{"https://example.com", "https://httpbin.org/html"})
	v.SetDefault("crawl.max_pages", 5)
	v.SetDefault("crawl.delay_seconds", 1.0)
	v.SetDefault("crawl.site_delay_factor", 2.0)
	v.SetDefault("crawl.query_delay_factor", 3.0)
	v.SetDefault("crawl.max_results", 5)
	v.SetDefault("fetcher.engine", EngineChromedp)
	v.SetDefault("fetcher.user_agent",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	v.SetDefault("fetcher.timeout_seconds", 30)
	v.SetDefault("fetcher.settle_millis", 2000)
	v.SetDefault("fetcher.headless", true)
	v.SetDefault("search.url_template", "https://www.google.com/search?q=%s")
	v.SetDefault("search.result_selector", "h3 a, a:has(h3)")
	v.SetDefault("extract.denylist", extract.DefaultDenylist)
	v.SetDefault("extract.min_phone_digits", extract.DefaultMinPhoneDigits)
	v.SetDefault("export.output", "leads")
	v.SetDefault("export.dir", ".")
	v.SetDefault("export.gcs_bucket", "")
	v.SetDefault("export.gcs_prefix", "leads")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.table", "leads")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic", "")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawl.MaxPages < 1 {
		return fmt.Errorf("crawl.max_pages must be >= 1")
	}
	if c.Crawl.DelaySeconds < 0 {
		return fmt.Errorf("crawl.delay_seconds must be >= 0")
	}
	if c.Crawl.SiteDelayFactor < 0 || c.Crawl.QueryDelayFactor < 0 {
		return fmt.Errorf("crawl delay factors must be >= 0")
	}
	if c.Crawl.MaxResults < 1 {
		return fmt.Errorf("crawl.max_results must be >= 1")
	}
	if c.Extract.MinPhoneDigits < 1 {
		return fmt.Errorf("extract.min_phone_digits must be >= 1")
	}
	switch c.Fetcher.Engine {
	case EngineChromedp, EngineColly:
	default:
		return fmt.Errorf("fetcher.engine must be %q or %q, got %q", EngineChromedp, EngineColly, c.Fetcher.Engine)
	}
	if c.Fetcher.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetcher.timeout_seconds must be > 0")
	}
	if c.Fetcher.SettleMillis < 0 {
		return fmt.Errorf("fetcher.settle_millis must be >= 0")
	}
	if err := c.Export.validate(); err != nil {
		return err
	}
	if strings.Count(c.Search.URLTemplate, "%s") != 1 {
		return fmt.Errorf("search.url_template must contain exactly one %%s")
	}
	if c.PubSub.Topic != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic is set")
	}
	return nil
}

func (e ExportConfig) validate() error {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Errorf("export.output must not be empty")
	}
	switch filepath.Base(out) {
	case ".", "..", string(filepath.Separator):
		return fmt.Errorf("export.output %q must end in a file name", e.Output)
	}
	if e.GCSBucket != "" {
		clean := path.Clean(filepath.ToSlash(out))
		if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
			return fmt.Errorf("export.output %q must be a relative object path when exporting to gcs", e.Output)
		}
	}
	return nil
}

// LocalTarget splits Output into the directory export files go to and the file
// stem. A relative directory in Output is resolved against Dir; an absolute one
// is used as is.
func (e ExportConfig) LocalTarget() (dir, stem string) {
	dir, stem = filepath.Split(filepath.Clean(strings.TrimSpace(e.Output)))
	if dir == "" {
		return e.Dir, stem
	}
	dir = filepath.Clean(dir)
	if filepath.IsAbs(dir) {
		return dir, stem
	}
	return filepath.Join(e.Dir, dir), stem
}

// Delay is the base politeness delay between page visits.
func (c CrawlConfig) Delay() time.Duration {
	return time.Duration(c.DelaySeconds * float64(time.Second))
}

// Timeout is the per-page navigation timeout.
func (c FetcherConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Settle is how long the headless fetcher waits after the body is ready.
func (c FetcherConfig) Settle() time.Duration {
	return time.Duration(c.SettleMillis) * time.Millisecond
}
