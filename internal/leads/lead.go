// Package leads defines the lead record model and the run-scoped lead store.
package leads

import (
	"strings"
	"time"
)

// Kind identifies the type of contact information a Lead carries.
type Kind string

// Supported lead kinds.
const (
	KindEmail Kind = "email"
	KindPhone Kind = "phone"
)

// Upper returns the kind in upper case, as used by the text export.
func (k Kind) Upper() string {
	return strings.ToUpper(string(k))
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindEmail, KindPhone:
		return true
	default:
		return false
	}
}

// Lead is one piece of discovered contact information tied to the page it was found on.
type Lead struct {
	SourceURL    string    `json:"url"`
	Kind         Kind      `json:"type"`
	Value        string    `json:"value"`
	DiscoveredAt time.Time `json:"discovered_at"`
}
