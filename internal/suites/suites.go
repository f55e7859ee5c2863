// Package suites is the suite declaration compiled into the itd binary.
// Add a class here to make its tests visible to the dispatcher.
package suites

import "itd/internal/suite"

// Declaration returns the fixed list of test classes
func Declaration() suite.Declaration {
	return suite.Declare(
		arithmeticClass(),
		textClass(),
		databaseClass(),
	)
}
