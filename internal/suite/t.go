package suite

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"itd/internal/domain"
)

// T is handed to every test method and records its failures
type T struct {
	class  string
	method string

	mu       sync.Mutex
	failures []domain.Failure
	skipped  bool
	skipMsg  string
}

// NewT creates a T for the given class and method names
func NewT(class, method string) *T {
	return &T{class: class, method: method}
}

// Name returns the composite key of the running test
func (t *T) Name() string {
	return t.class + domain.KeySeparator + t.method
}

// Error records a failure and continues
func (t *T) Error(args ...any) {
	t.record(2, fmt.Sprint(args...))
}

// Errorf records a formatted failure and continues
func (t *T) Errorf(format string, args ...any) {
	t.record(2, fmt.Sprintf(format, args...))
}

// Fail marks the test as failed without a message
func (t *T) Fail() {
	t.record(2, "test marked as failed")
}

// FailNow marks the test as failed and stops it
func (t *T) FailNow() {
	t.record(2, "test marked as failed")
	runtime.Goexit()
}

// Fatal records a failure and stops the test
func (t *T) Fatal(args ...any) {
	t.record(2, fmt.Sprint(args...))
	runtime.Goexit()
}

// Fatalf records a formatted failure and stops the test
func (t *T) Fatalf(format string, args ...any) {
	t.record(2, fmt.Sprintf(format, args...))
	runtime.Goexit()
}

// Skip marks the test as skipped and stops it
func (t *T) Skip(args ...any) {
	t.skip(fmt.Sprint(args...))
}

// Skipf marks the test as skipped with a formatted reason and stops it
func (t *T) Skipf(format string, args ...any) {
	t.skip(fmt.Sprintf(format, args...))
}

// Failed reports whether a failure has been recorded
func (t *T) Failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.failures) > 0
}

// Skipped reports whether the test was skipped, and why
func (t *T) Skipped() (bool, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.skipped, t.skipMsg
}

// Failures returns a copy of the recorded failures in order
func (t *T) Failures() []domain.Failure {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Failure, len(t.failures))
	copy(out, t.failures)
	return out
}

// AddFailure records a failure that did not originate from an assertion,
// such as a panic or a timeout.
func (t *T) AddFailure(message string, stack []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures = append(t.failures, domain.Failure{
		Class:      t.class,
		Method:     t.method,
		Message:    message,
		StackTrace: stack,
	})
}

func (t *T) record(skip int, message string) {
	var stack []string
	if _, file, line, ok := runtime.Caller(skip); ok {
		stack = []string{fmt.Sprintf("%s:%d", filepath.Base(file), line)}
	}
	t.AddFailure(strings.TrimSpace(message), stack)
}

func (t *T) skip(reason string) {
	t.mu.Lock()
	t.skipped = true
	t.skipMsg = reason
	t.mu.Unlock()
	runtime.Goexit()
}
