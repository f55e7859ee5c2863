package discovery

import (
	"sort"

	"itd/internal/domain"
	"itd/internal/suite"
)

// Entry is one test method in the registry
type Entry struct {
	Key    string
	Class  suite.Class
	Method suite.Method
}

// TestCase returns the identity of the entry
func (e Entry) TestCase() domain.TestCase {
	return domain.TestCase{
		Class:       e.Class.Name,
		Method:      e.Method.Name,
		Description: e.Method.Description,
	}
}

// Registry is the sorted, read-only set of tests found in a declaration
type Registry struct {
	entries    []Entry
	collisions []string
}

// Discover walks every class of the declaration and builds a registry sorted
// by composite key. When two methods produce the same key the later one wins
// and the key is remembered in Collisions.
func Discover(decl suite.Declaration) *Registry {
	byKey := make(map[string]Entry)
	var collisions []string

	for _, class := range decl.Classes {
		for _, method := range class.Tests {
			key := class.Name + domain.KeySeparator + method.Name
			if _, exists := byKey[key]; exists {
				collisions = append(collisions, key)
			}
			byKey[key] = Entry{Key: key, Class: class, Method: method}
		}
	}

	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]Entry, len(keys))
	for i, key := range keys {
		entries[i] = byKey[key]
	}

	return &Registry{entries: entries, collisions: collisions}
}

// Len returns the number of tests
func (r *Registry) Len() int {
	return len(r.entries)
}

// At returns the entry at sorted position i
func (r *Registry) At(i int) (Entry, bool) {
	if i < 0 || i >= len(r.entries) {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Entries returns a copy of all entries in order
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Keys returns the composite keys in order
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.entries))
	for i, e := range r.entries {
		keys[i] = e.Key
	}
	return keys
}

// Collisions returns the keys that were registered more than once, in the
// order the duplicates were encountered.
func (r *Registry) Collisions() []string {
	out := make([]string, len(r.collisions))
	copy(out, r.collisions)
	return out
}
