package domain

import (
	"fmt"
	"strings"
)

// lineBreaks folds a multi-line message onto one line.
var lineBreaks = strings.NewReplacer("\r\n", `\n`, "\n", `\n`, "\r", `\n`)

// Failure is a single failure reported while executing one test method
type Failure struct {
	Class      string
	Method     string
	Message    string
	StackTrace []string
}

// String renders the failure the way the dispatcher prints it in run mode.
// The result is always a single line; line breaks in the message are escaped.
func (f Failure) String() string {
	return fmt.Sprintf("%s(%s): %s", f.Method, f.Class, lineBreaks.Replace(f.Message))
}

// TestFailure represents a failed test as stored by the orchestrator
type TestFailure struct {
	Index       int      `json:"index"`
	Key         string   `json:"key"`
	Description string   `json:"description,omitempty"`
	Messages    []string `json:"messages"`
	ExitCode    int      `json:"exit_code"`
	TimedOut    bool     `json:"timed_out,omitempty"`
	Stderr      string   `json:"stderr,omitempty"`
	Resolved    bool     `json:"resolved,omitempty"` // Track if the failure is marked as resolved
}
