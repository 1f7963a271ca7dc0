package leads

import "time"

type leadKey struct {
	kind  Kind
	value string
}

// Store accumulates leads for a single run. A (kind, value) pair is stored at most
// once regardless of how many pages or sites report it. Leads are never mutated or
// removed once inserted.
//
// Store is not safe for concurrent use; a run touches it from one goroutine.
type Store struct {
	leads []Lead
	index map[leadKey]struct{}
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		index: make(map[leadKey]struct{}),
	}
}

// Add inserts a lead and reports whether it was new. Duplicates, unknown kinds and
// empty values are ignored.
func (s *Store) Add(kind Kind, value, sourceURL string, at time.Time) bool {
	if !kind.Valid() || value == "" {
		return false
	}
	key := leadKey{kind: kind, value: value}
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = struct{}{}
	s.leads = append(s.leads, Lead{
		SourceURL:    sourceURL,
		Kind:         kind,
		Value:        value,
		DiscoveredAt: at,
	})
	return true
}

// Contains reports whether the (kind, value) pair has already been stored.
func (s *Store) Contains(kind Kind, value string) bool {
	_, ok := s.index[leadKey{kind: kind, value: value}]
	return ok
}

// All returns a copy of the stored leads in insertion order.
func (s *Store) All() []Lead {
	out := make([]Lead, len(s.leads))
	copy(out, s.leads)
	return out
}

// Len returns the number of stored leads.
func (s *Store) Len() int {
	return len(s.leads)
}

// Count returns the number of stored leads of the given kind.
func (s *Store) Count(kind Kind) int {
	n := 0
	for _, l := range s.leads {
		if l.Kind == kind {
			n++
		}
	}
	return n
}
