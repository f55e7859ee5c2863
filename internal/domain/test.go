package domain

// KeySeparator joins a class name and a method name into a composite key.
const KeySeparator = "_"

// TestCase identifies one registered test method
type TestCase struct {
	Class       string // Fully qualified name of the declaring class
	Method      string // Test method name
	Description string // Optional human readable description
}

// Key returns the composite key used for ordering and lookup
func (tc TestCase) Key() string {
	return tc.Class + KeySeparator + tc.Method
}

// String returns the list-mode line for the test case
func (tc TestCase) String() string {
	if tc.Description != "" {
		return tc.Description + " - " + tc.Key()
	}
	return tc.Key()
}

// ListedTest is a test case as seen by a caller of the dispatcher: its position
// in the listing plus whatever could be recovered from the printed line.
type ListedTest struct {
	Index       int    // Position in the dispatcher listing
	Key         string // Composite key as printed
	Description string // Description, empty when none was printed
}
