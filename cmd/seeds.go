package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/JakeFAU/lead-hunter/internal/config"
	"github.com/JakeFAU/lead-hunter/internal/crawler"
)

// ErrNoValidURLs is returned when a seed file holds no usable URL.
var ErrNoValidURLs = errors.New("no valid URLs found in file")

// plan is what a hunt will crawl.
type plan struct {
	mode     crawler.Mode
	urls     []string
	searches []string
	// source names where the seeds came from, for logging.
	source string
}

// resolvePlan applies the seed precedence: urls, then file, then searches, then
// the built-in default list.
func resolvePlan(h config.HuntConfig) (plan, error) {
	switch {
	case len(nonBlank(h.URLs)) > 0:
		return plan{mode: crawler.ModeURLs, urls: nonBlank(h.URLs), source: "urls"}, nil
	case h.File != "":
		urls, err := loadURLFile(h.File)
		if err != nil {
			return plan{}, err
		}
		return plan{mode: crawler.ModeURLs, urls: urls, source: "file"}, nil
	case len(nonBlank(h.Searches)) > 0:
		return plan{mode: crawler.ModeSearches, searches: nonBlank(h.Searches), source: "searches"}, nil
	default:
		return plan{mode: crawler.ModeURLs, urls: h.DefaultURLs, source: "defaults"}, nil
	}
}

// loadURLFile reads newline-delimited URLs. Blank lines and lines that do not
// start with http:// or https:// are skipped.
func loadURLFile(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("open url file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url file: %w", err)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoValidURLs, path)
	}
	return urls, nil
}

func nonBlank(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
