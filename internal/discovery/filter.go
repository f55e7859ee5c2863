package discovery

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"itd/internal/domain"
)

// Filter filters listed tests by composite key pattern
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// FilterByKey keeps the tests whose key matches pattern.
// Patterns use doublestar syntax ("**/suites.Arithmetic_*"). A pattern is also
// tried against the key with its package path removed, so "*Arithmetic_*"
// works without spelling out the import path. Patterns without wildcards
// match as substrings.
func (f *Filter) FilterByKey(tests []domain.ListedTest, pattern string) []domain.ListedTest {
	if pattern == "" {
		return tests
	}

	var filtered []domain.ListedTest
	for _, test := range tests {
		if matchKey(pattern, test.Key) {
			filtered = append(filtered, test)
		}
	}
	return filtered
}

// FilterByKeys keeps the tests whose key is in keys, preserving listing order.
func (f *Filter) FilterByKeys(tests []domain.ListedTest, keys map[string]struct{}) []domain.ListedTest {
	var filtered []domain.ListedTest
	for _, test := range tests {
		if _, ok := keys[test.Key]; ok {
			filtered = append(filtered, test)
		}
	}
	return filtered
}

func matchKey(pattern, key string) bool {
	if !strings.ContainsAny(pattern, "*?[{") {
		return strings.Contains(key, pattern)
	}

	if matched, err := doublestar.Match(pattern, key); err == nil && matched {
		return true
	}

	short := key
	if i := strings.LastIndex(key, "/"); i >= 0 {
		short = key[i+1:]
	}
	matched, err := doublestar.Match(pattern, short)
	return err == nil && matched
}
