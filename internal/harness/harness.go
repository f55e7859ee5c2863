// Package harness runs exactly one test method of one class and collects its failures.
package harness

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"itd/internal/domain"
	"itd/internal/suite"
)

// maxStackLines bounds the stack trace kept for a panicking test.
const maxStackLines = 32

// ErrNotRunnable is returned when a registered method has no body to run.
var ErrNotRunnable = errors.New("harness: method is not runnable")

// Runner executes single test methods
type Runner struct {
	log zerolog.Logger
}

// NewRunner creates a new Runner
func NewRunner(logger zerolog.Logger) *Runner {
	return &Runner{log: logger}
}

// Run executes method of class with its Before/After fixtures.
// Test failures are reported in the result; the error is reserved for
// conditions that prevented the test from running to a verdict.
func (r *Runner) Run(ctx context.Context, class suite.Class, method suite.Method) (domain.Result, error) {
	tc := domain.TestCase{Class: class.Name, Method: method.Name, Description: method.Description}
	result := domain.Result{Test: tc}

	if method.Func == nil {
		return result, fmt.Errorf("%w: %s", ErrNotRunnable, tc.Key())
	}
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("run %s: %w", tc.Key(), err)
	}

	t := suite.NewT(class.Name, method.Name)
	done := make(chan struct{})
	start := time.Now()

	r.log.Debug().Str("test", tc.Key()).Dur("timeout", method.Timeout).Msg("running test")

	go func() {
		defer close(done)
		runSetupAndBody(t, class, method)
	}()

	timedOut := false
	var timeout <-chan time.Time
	if method.Timeout > 0 {
		timer := time.NewTimer(method.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-done:
	case <-timeout:
		timedOut = true
		t.AddFailure(fmt.Sprintf("test timed out after %s", method.Timeout), nil)
	case <-ctx.Done():
		result.Duration = time.Since(start)
		return result, fmt.Errorf("run %s: %w", tc.Key(), ctx.Err())
	}

	if err := r.runAfter(ctx, t, class, method, timedOut); err != nil {
		result.Duration = time.Since(start)
		return result, fmt.Errorf("run %s: %w", tc.Key(), err)
	}

	result.Duration = time.Since(start)
	result.Failures = t.Failures()
	skipped, reason := t.Skipped()
	result.Skipped = skipped && len(result.Failures) == 0

	r.log.Debug().
		Str("test", tc.Key()).
		Int("failures", result.FailureCount()).
		Bool("skipped", result.Skipped).
		Str("skip_reason", reason).
		Dur("duration", result.Duration).
		Msg("test finished")

	return result, nil
}

func runSetupAndBody(t *suite.T, class suite.Class, method suite.Method) {
	runPhase(t, class.Before)
	if skipped, _ := t.Skipped(); !skipped && !t.Failed() {
		runPhase(t, method.Func)
	}
}

// runAfter runs the After fixture. After a timeout the body may still be
// running; the fixture then gets method.Timeout of its own.
func (r *Runner) runAfter(ctx context.Context, t *suite.T, class suite.Class, method suite.Method, timedOut bool) error {
	if class.After == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		runPhase(t, class.After)
	}()

	var timeout <-chan time.Time
	if timedOut {
		timer := time.NewTimer(method.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-done:
		return nil
	case <-timeout:
		r.log.Warn().Str("class", class.Name).Msg("after fixture did not finish")
		t.AddFailure(fmt.Sprintf("after fixture timed out after %s", method.Timeout), nil)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runPhase runs fn on its own goroutine so that FailNow and Skip only end
// that phase and the After fixture still gets to run.
func runPhase(t *suite.T, fn suite.TestFunc) {
	if fn == nil {
		return
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if v := recover(); v != nil {
				t.AddFailure(fmt.Sprintf("panic: %v", v), stackLines(debug.Stack()))
			}
		}()
		fn(t)
	}()
	wg.Wait()
}

func stackLines(stack []byte) []string {
	var lines []string
	for _, line := range strings.Split(string(stack), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == maxStackLines {
			break
		}
	}
	return lines
}
