// Package extract finds email addresses and phone numbers in page text.
//
// Matching is deliberately permissive: the patterns find anything shaped like a
// contact value and a small set of heuristics drop the obvious false positives.
// Nothing here validates deliverability.
package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9_.+-]+@[A-Za-z0-9-]+\.[A-Za-z0-9.-]+`)
	emailShape   = regexp.MustCompile(`^[A-Za-z0-9_.+-]+@[A-Za-z0-9-]+\.[A-Za-z0-9.-]+$`)
	digitGroups  = regexp.MustCompile(`\d+`)
	phonePattern = regexp.MustCompile(`(?:\+?\d{1,3}[-.\s]?)?(?:\(?\d{2,4}\)?[-.\s]?)?\d{3,4}[-.\s]?\d{3,4}`)

	phoneSeparators = strings.NewReplacer("-", "", ".", "", " ", "", "\t", "", "\n", "", "\r", "", "\f", "", "\v", "")
)

// DefaultDenylist holds substrings that mark an email candidate as a placeholder.
var DefaultDenylist = []string{"example", "test", "email", "domain", "placeholder"}

// DefaultMinPhoneDigits is the shortest digit run accepted as a phone number.
const DefaultMinPhoneDigits = 7

// Result holds the cleaned candidates found in one piece of text. Both slices are
// deduplicated and sorted; their order carries no meaning.
type Result struct {
	Emails []string
	Phones []string
}

// Empty reports whether nothing was found.
func (r Result) Empty() bool {
	return len(r.Emails) == 0 && len(r.Phones) == 0
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithDenylist replaces the email denylist. Entries are matched case-insensitively.
func WithDenylist(words ...string) Option {
	return func(e *Extractor) {
		e.denylist = normalizeWords(words)
	}
}

// WithMinPhoneDigits sets the minimum consecutive digit run for phone candidates.
func WithMinPhoneDigits(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.digitRun = regexp.MustCompile(`\d{` + strconv.Itoa(n) + `,}`)
		}
	}
}

// Extractor applies the email and phone patterns plus false-positive filters.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	denylist []string
	digitRun *regexp.Regexp
}

// New returns an Extractor using the default filters unless overridden.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		denylist: normalizeWords(DefaultDenylist),
		digitRun: regexp.MustCompile(`\d{` + strconv.Itoa(DefaultMinPhoneDigits) + `,}`),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultExtractor = New()

// Extract runs the default Extractor over text.
func Extract(text string) Result {
	return defaultExtractor.Extract(text)
}

// Extract finds email and phone candidates in text.
func (e *Extractor) Extract(text string) Result {
	return Result{
		Emails: e.emails(text),
		Phones: e.phones(text),
	}
}

func (e *Extractor) emails(text string) []string {
	seen := make(map[string]struct{})
	for _, m := range emailPattern.FindAllString(text, -1) {
		m = strings.TrimRight(m, ".-")
		if !emailShape.MatchString(m) || e.denied(m) {
			continue
		}
		seen[m] = struct{}{}
	}
	return sortedKeys(seen)
}

func (e *Extractor) denied(email string) bool {
	lower := strings.ToLower(email)
	for _, w := range e.denylist {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func (e *Extractor) phones(text string) []string {
	seen := make(map[string]struct{})
	for _, m := range phonePattern.FindAllString(text, -1) {
		m = strings.TrimSpace(m)
		if !e.isPhone(m) {
			continue
		}
		seen[m] = struct{}{}
	}
	return sortedKeys(seen)
}

// isPhone accepts an unbroken digit run as is. A grouped number must also carry an
// area code or country group (three groups or more) before its separators are
// ignored, so pairs like "555-1234" or "2019 2020" stay out.
func (e *Extractor) isPhone(m string) bool {
	if e.digitRun.MatchString(m) {
		return true
	}
	if len(digitGroups.FindAllString(m, -1)) < 3 {
		return false
	}
	return e.digitRun.MatchString(phoneSeparators.Replace(m))
}

func normalizeWords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
