// Package kv holds the small associative structure used for HTTP header pairs, shared by
// inbound and outbound messages.
package kv

import "github.com/indigo-web/utils/strcomp"

// Pair is a single (key, value) header entry. Keys are compared case-insensitively but stored
// verbatim, as RFC 7230 never requires case-normalization on the wire.
type Pair struct {
	Key, Value string
}

// Storage is a linear-scan associative container for header pairs. Linear search beats a map
// for the handful of headers a typical request or response carries.
type Storage struct {
	pairs []Pair
}

// New returns an empty Storage.
func New() *Storage {
	return new(Storage)
}

// NewPrealloc returns a Storage with pre-allocated backing space for n pairs.
func NewPrealloc(n int) *Storage {
	return &Storage{pairs: make([]Pair, 0, n)}
}

// Add appends a new pair, keeping any previous value under the same key.
func (s *Storage) Add(key, value string) *Storage {
	s.pairs = append(s.pairs, Pair{Key: key, Value: value})
	return s
}

// Value returns the first value under key, or "" if absent.
func (s *Storage) Value(key string) string {
	v, _ := s.Get(key)
	return v
}

// Get returns the first value under key and whether it was found.
func (s *Storage) Get(key string) (value string, found bool) {
	for _, p := range s.pairs {
		if strcomp.EqualFold(p.Key, key) {
			return p.Value, true
		}
	}

	return "", false
}

// Has tells whether key is present, case-insensitively.
func (s *Storage) Has(key string) bool {
	_, found := s.Get(key)
	return found
}

// Set replaces every value under key with a single value, appending a new pair if key wasn't
// present before.
func (s *Storage) Set(key, value string) *Storage {
	found := false
	filtered := s.pairs[:0]

	for _, p := range s.pairs {
		if strcomp.EqualFold(p.Key, key) {
			if found {
				continue
			}

			found = true
			p.Value = value
		}

		filtered = append(filtered, p)
	}

	s.pairs = filtered
	if found {
		return s
	}

	return s.Add(key, value)
}

// Delete removes every pair matching key.
func (s *Storage) Delete(key string) *Storage {
	filtered := s.pairs[:0]

	for _, p := range s.pairs {
		if !strcomp.EqualFold(p.Key, key) {
			filtered = append(filtered, p)
		}
	}

	s.pairs = filtered
	return s
}

// Expose returns the underlying pairs slice. Callers must not retain it across a Clear.
func (s *Storage) Expose() []Pair {
	return s.pairs
}

// Clear empties the storage while keeping its backing array for reuse.
func (s *Storage) Clear() {
	s.pairs = s.pairs[:0]
}

// Len returns the number of stored pairs.
func (s *Storage) Len() int {
	return len(s.pairs)
}
