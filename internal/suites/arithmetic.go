package suites

import (
	"math"

	"itd/internal/suite"
)

// Arithmetic covers integer and floating point helpers.
type Arithmetic struct{}

func arithmeticClass() suite.Class {
	return suite.Class{
		Name: suite.ClassOf(Arithmetic{}),
		Tests: []suite.Method{
			suite.Test("testAdd", func(t *suite.T) {
				if got := 2 + 3; got != 5 {
					t.Errorf("2 + 3 = %d, expected 5", got)
				}
			}).Described("Addition of small integers"),
			suite.Test("testIntegerDivision", func(t *suite.T) {
				if got := 7 / 2; got != 3 {
					t.Errorf("7 / 2 = %d, expected 3", got)
				}
				if got := -7 / 2; got != -3 {
					t.Errorf("-7 / 2 = %d, expected -3 (truncation toward zero)", got)
				}
			}),
			suite.Test("testOverflowWraps", func(t *suite.T) {
				x := int8(math.MaxInt8)
				x++
				if x != math.MinInt8 {
					t.Errorf("MaxInt8 + 1 = %d, expected %d", x, math.MinInt8)
				}
			}).Described("Signed overflow wraps around"),
			suite.Test("testFloatTolerance", func(t *suite.T) {
				if d := math.Abs(0.1 + 0.2 - 0.3); d > 1e-9 {
					t.Errorf("0.1 + 0.2 differs from 0.3 by %g", d)
				}
			}),
		},
	}
}
