// Package dispatch implements the list and run modes of the index dispatcher.
//
// With exactly one argument the dispatcher runs the test at that index of the
// sorted registry; with any other number of arguments it lists every test.
// Errors are returned as values and turned into a process exit code by
// ExitCode, which callers apply at the outermost boundary.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog"

	"itd/internal/discovery"
	"itd/internal/domain"
	"itd/internal/suite"
)

// maxExitCode is the largest exit status a POSIX parent can observe.
const maxExitCode = 255

var (
	// ErrInvalidArgument is returned when the run-mode argument is not a base-10 integer.
	ErrInvalidArgument = errors.New("dispatch: argument is not an integer")
	// ErrIndexOutOfRange is returned when the index is outside the registry.
	ErrIndexOutOfRange = errors.New("dispatch: index out of range")
	// ErrExecution is returned when the selected test could not be executed.
	ErrExecution = errors.New("dispatch: test execution failed")
)

// Executor runs a single test method
type Executor interface {
	Run(ctx context.Context, class suite.Class, method suite.Method) (domain.Result, error)
}

// Dispatcher lists the registry or runs one of its tests
type Dispatcher struct {
	registry *discovery.Registry
	executor Executor
	out      io.Writer
	log      zerolog.Logger
}

// New creates a Dispatcher writing its contract output to out
func New(registry *discovery.Registry, executor Executor, out io.Writer, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		executor: executor,
		out:      out,
		log:      logger,
	}
}

// Main dispatches args and returns the process exit code
func (d *Dispatcher) Main(ctx context.Context, args []string) int {
	n, err := d.Dispatch(ctx, args)
	if err != nil {
		d.log.Debug().Err(err).Strs("args", args).Msg("dispatch failed")
	}
	return ExitCode(n, err)
}

// Dispatch selects the mode from the argument count. It returns the test
// count in list mode and the failure count in run mode.
func (d *Dispatcher) Dispatch(ctx context.Context, args []string) (int, error) {
	for _, key := range d.registry.Collisions() {
		d.log.Warn().Str("key", key).Msg("duplicate test key, keeping the last registration")
	}

	if len(args) != 1 {
		return d.List()
	}

	result, err := d.Run(ctx, args[0])
	if err != nil {
		return 0, err
	}
	return result.FailureCount(), nil
}

// List prints one line per test in sorted order and returns the test count
func (d *Dispatcher) List() (int, error) {
	for _, entry := range d.registry.Entries() {
		if _, err := fmt.Fprintln(d.out, entry.TestCase().String()); err != nil {
			return 0, fmt.Errorf("write listing: %w", err)
		}
	}

	count := d.registry.Len()
	if count > maxExitCode {
		d.log.Warn().Int("count", count).Msg("test count does not fit in an exit status and will be truncated")
	}
	return count, nil
}

// Run parses arg as an index, executes that single test and prints one line
// per failure. Nothing is printed when an error is returned.
func (d *Dispatcher) Run(ctx context.Context, arg string) (domain.Result, error) {
	index, err := strconv.Atoi(arg)
	if err != nil {
		return domain.Result{}, fmt.Errorf("%w: %q", ErrInvalidArgument, arg)
	}

	entry, ok := d.registry.At(index)
	if !ok {
		return domain.Result{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, d.registry.Len())
	}

	d.log.Debug().Int("index", index).Str("test", entry.Key).Msg("dispatching test")

	result, err := d.executor.Run(ctx, entry.Class, entry.Method)
	if err != nil {
		return domain.Result{}, fmt.Errorf("%w: %s: %w", ErrExecution, entry.Key, err)
	}

	for _, failure := range result.Failures {
		if _, err := fmt.Fprintln(d.out, failure.String()); err != nil {
			return domain.Result{}, fmt.Errorf("write failures: %w", err)
		}
	}
	return result, nil
}

// ExitCode converts a dispatch outcome into a process exit status: every
// error collapses to 1, otherwise n is returned.
func ExitCode(n int, err error) int {
	if err != nil {
		return 1
	}
	return n
}
