// Package links turns a page's anchors into same-site crawl candidates.
package links

import (
	"net/url"
	"strings"

	"github.com/JakeFAU/lead-hunter/internal/frontier"
)

// Discover resolves each href against base and keeps the absolute URLs whose
// network location equals base's. The result is deduplicated and ordered by first
// appearance in hrefs. Hrefs that cannot be parsed are skipped.
func Discover(hrefs []string, base string) []string {
	baseURL, err := frontier.Parse(base)
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{}, len(hrefs))
	out := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		abs, ok := resolve(baseURL, href)
		if !ok {
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	return out
}

func resolve(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref).String()
	if !frontier.SameNetloc(abs, base.String()) {
		return "", false
	}
	return abs, true
}
