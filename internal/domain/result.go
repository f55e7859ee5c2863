package domain

import "time"

// Result is the outcome of executing a single test method in-process
type Result struct {
	Test     TestCase
	Failures []Failure
	Skipped  bool
	Duration time.Duration
}

// FailureCount returns the number of failures reported for the test
func (r Result) FailureCount() int {
	return len(r.Failures)
}

// TestResult represents the result of dispatching one test index to a dispatcher process
type TestResult struct {
	Test     ListedTest    // Test that was dispatched
	WorkerID int           // Worker that ran the test
	ExitCode int           // Dispatcher exit code (failure count, or 1 on dispatch errors)
	Success  bool          // Whether the test passed
	TimedOut bool          // Whether the run was killed by the timeout
	Output   string        // Raw stdout from the dispatcher
	Stderr   string        // Raw stderr from the dispatcher
	Error    error         // Error if the process could not be run
	Duration time.Duration // Time taken to execute
}

// TestResultsMeta contains metadata about a test run
type TestResultsMeta struct {
	RunID           string  `json:"run_id"`
	Dispatcher      string  `json:"dispatcher"`
	TotalTests      int     `json:"total_tests"`
	FailedTests     int     `json:"failed_tests"`
	PassedTests     int     `json:"passed_tests"`
	TimedOutTests   int     `json:"timed_out_tests"`
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	Workers         int     `json:"workers"`
	Timestamp       string  `json:"timestamp"`
}

// TestResultsOutput is the complete output structure for test results
type TestResultsOutput struct {
	Meta    TestResultsMeta `json:"meta"`
	Details []TestFailure   `json:"details"`
}
