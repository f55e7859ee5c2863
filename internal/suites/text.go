package suites

import (
	"strings"
	"time"
	"unicode/utf8"

	"itd/internal/suite"
)

// Text covers string handling.
type Text struct{}

func textClass() suite.Class {
	var b *strings.Builder

	return suite.Class{
		Name: suite.ClassOf(Text{}),
		Before: func(*suite.T) {
			b = &strings.Builder{}
		},
		After: func(*suite.T) {
			b = nil
		},
		Tests: []suite.Method{
			suite.Test("testJoin", func(t *suite.T) {
				if got := strings.Join([]string{"a", "b", "c"}, "-"); got != "a-b-c" {
					t.Errorf("Join = %q, expected %q", got, "a-b-c")
				}
			}),
			suite.Test("testBuilder", func(t *suite.T) {
				b.WriteString("dispatch")
				b.WriteByte('!')
				if b.String() != "dispatch!" {
					t.Fatalf("builder holds %q", b.String())
				}
			}).Described("Fixture provides a fresh builder"),
			suite.Test("testRuneCount", func(t *suite.T) {
				s := "grüße"
				if n := utf8.RuneCountInString(s); n != 5 {
					t.Errorf("RuneCountInString(%q) = %d, expected 5", s, n)
				}
			}).WithTimeout(5 * time.Second),
		},
	}
}
