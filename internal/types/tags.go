package types

import (
	"iter"
	"slices"
	"strings"
)

// Tags is an ordered multi-value field list.
//
// It is the text view shared by the key/value tag formats (APE text items,
// Vorbis comments, Lyrics3v2 fields). Keys compare case-insensitively but
// keep the spelling they were first stored with; order of first insertion
// is preserved so encoders write fields back in their original order.
type Tags struct {
	index   map[string]int
	entries []tagEntry
}

type tagEntry struct {
	key    string
	values []string
}

func canonicalKey(key string) string {
	return strings.ToUpper(key)
}

// Len returns the number of distinct keys.
func (t *Tags) Len() int {
	return len(t.entries)
}

// All returns an iterator over keys and their values in insertion order.
//
// Example:
//
//	for key, values := range tags.All() {
//		fmt.Printf("%s: %v\n", key, values)
//	}
//
// The returned iterator is read-only. Do not modify the returned slices.
func (t *Tags) All() iter.Seq2[string, []string] {
	return func(yield func(string, []string) bool) {
		for _, e := range t.entries {
			if !yield(e.key, e.values) {
				return
			}
		}
	}
}

// Get retrieves all values for a key. Returns nil if the key doesn't exist.
func (t *Tags) Get(key string) []string {
	i, ok := t.index[canonicalKey(key)]
	if !ok {
		return nil
	}
	return slices.Clone(t.entries[i].values) // Return a copy to prevent modification
}

// GetFirst retrieves the first value for a key, or "" if absent.
func (t *Tags) GetFirst(key string) string {
	i, ok := t.index[canonicalKey(key)]
	if !ok || len(t.entries[i].values) == 0 {
		return ""
	}
	return t.entries[i].values[0]
}

// GetBest tries multiple keys and returns the first non-empty value.
//
// This is useful when the same field is stored under different keys:
//
//	year := tags.GetBest("Year", "DATE")
func (t *Tags) GetBest(candidates ...string) string {
	for _, key := range candidates {
		if value := t.GetFirst(key); value != "" {
			return value
		}
	}
	return ""
}

// Set replaces all values for key. With no values the key is removed.
func (t *Tags) Set(key string, values ...string) {
	if len(values) == 0 {
		t.Delete(key)
		return
	}
	ck := canonicalKey(key)
	if i, ok := t.index[ck]; ok {
		t.entries[i].values = slices.Clone(values)
		return
	}
	t.insert(ck, key, slices.Clone(values))
}

// Add appends a value to key, creating the key if needed.
func (t *Tags) Add(key, value string) {
	ck := canonicalKey(key)
	if i, ok := t.index[ck]; ok {
		t.entries[i].values = append(t.entries[i].values, value)
		return
	}
	t.insert(ck, key, []string{value})
}

// Delete removes key and all its values.
func (t *Tags) Delete(key string) {
	ck := canonicalKey(key)
	i, ok := t.index[ck]
	if !ok {
		return
	}
	t.entries = slices.Delete(t.entries, i, i+1)
	delete(t.index, ck)
	for j := i; j < len(t.entries); j++ {
		t.index[canonicalKey(t.entries[j].key)] = j
	}
}

func (t *Tags) insert(ck, key string, values []string) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	t.index[ck] = len(t.entries)
	t.entries = append(t.entries, tagEntry{key: key, values: values})
}

// Merge copies keys from other that t does not already have.
func (t *Tags) Merge(other *Tags) {
	if other == nil {
		return
	}
	for key, values := range other.All() {
		if _, ok := t.index[canonicalKey(key)]; !ok {
			t.insert(canonicalKey(key), key, slices.Clone(values))
		}
	}
}

// Clone creates a deep copy of the Tags.
func (t *Tags) Clone() *Tags {
	if t == nil {
		return nil
	}
	clone := &Tags{}
	for key, values := range t.All() {
		clone.Set(key, values...)
	}
	return clone
}
