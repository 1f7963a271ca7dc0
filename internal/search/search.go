// Package search turns search-engine queries into candidate site URLs by
// rendering the results page through a crawler.PageFetcher.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/lead-hunter/internal/crawler"
)

// Defaults for a Google results page.
const (
	DefaultURLTemplate    = "https://www.google.com/search?q=%s"
	DefaultResultSelector = "h3 a, a:has(h3)"
)

// ErrEmptyQuery is returned for blank queries.
var ErrEmptyQuery = errors.New("empty search query")

// Config selects the results page and how result links are found on it.
type Config struct {
	// URLTemplate must contain a single %s that receives the escaped query.
	URLTemplate    string
	ResultSelector string
}

// Engine implements crawler.Searcher.
type Engine struct {
	fetcher crawler.PageFetcher
	cfg     Config
	logger  *zap.Logger
}

// NewEngine returns a search engine that loads result pages through fetcher.
func NewEngine(fetcher crawler.PageFetcher, cfg Config, logger *zap.Logger) *Engine {
	if cfg.URLTemplate == "" {
		cfg.URLTemplate = DefaultURLTemplate
	}
	if cfg.ResultSelector == "" {
		cfg.ResultSelector = DefaultResultSelector
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{fetcher: fetcher, cfg: cfg, logger: logger}
}

// Search returns up to maxResults absolute http(s) result URLs in page order.
func (e *Engine) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	session, err := e.fetcher.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("open search session: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			e.logger.Warn("failed to close search session", zap.Error(cerr))
		}
	}()

	target := fmt.Sprintf(e.cfg.URLTemplate, url.QueryEscape(query))
	e.logger.Info("searching", zap.String("query", query), zap.String("url", target))
	page, err := session.Visit(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("load results page: %w", err)
	}

	results, err := ParseResults(page.HTML, e.cfg.ResultSelector, maxResults)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("parsed search results", zap.String("query", query), zap.Int("count", len(results)))
	return results, nil
}

// ParseResults extracts result URLs from a results page. Redirect wrappers of
// the form /url?q=<target> are unwrapped; anything not starting with "http" is
// dropped. A maxResults of zero or less means no limit.
func ParseResults(html, selector string, maxResults int) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	var (
		out  []string
		seen = make(map[string]struct{})
	)
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		target := unwrapRedirect(strings.TrimSpace(href))
		if !strings.HasPrefix(target, "http") {
			return true
		}
		if _, dup := seen[target]; dup {
			return true
		}
		seen[target] = struct{}{}
		out = append(out, target)
		return maxResults <= 0 || len(out) < maxResults
	})
	return out, nil
}

func unwrapRedirect(href string) string {
	if !strings.HasPrefix(href, "/url?") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if q := u.Query().Get("q"); q != "" {
		return q
	}
	if q := u.Query().Get("url"); q != "" {
		return q
	}
	return href
}
