package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"itd/internal/config"
	"itd/internal/domain"
)

// waitDelay bounds how long we wait for the pipes of a killed dispatcher.
const waitDelay = 2 * time.Second

// Runner invokes the dispatcher binary
type Runner struct {
	config *config.Config
	log    zerolog.Logger
}

var _ TestRunner = (*Runner)(nil)

// NewRunner creates a new Runner
func NewRunner(cfg *config.Config, logger zerolog.Logger) *Runner {
	return &Runner{config: cfg, log: logger}
}

// List runs the dispatcher in list mode. A non-zero exit status is the test
// count, not an error.
func (r *Runner) List(ctx context.Context) (string, int, error) {
	name, args := r.config.GetDispatcherCommand()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.config.ProjectPath
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Debug().Str("dispatcher", name).Strs("args", args).Msg("listing tests")

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return stdout.String(), 0, nil
	case errors.As(err, &exitErr) && exitErr.ExitCode() >= 0:
		return stdout.String(), exitErr.ExitCode(), nil
	default:
		return "", 0, fmt.Errorf("run dispatcher %s: %w (stderr: %s)", name, err, bytes.TrimSpace(stderr.Bytes()))
	}
}

// Run dispatches a single test by index
func (r *Runner) Run(ctx context.Context, test domain.ListedTest, workerID int) domain.TestResult {
	runCtx := ctx
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	name, args := r.config.GetDispatcherCommand(strconv.Itoa(test.Index))
	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.WaitDelay = waitDelay

	// Set environment variables
	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, fmt.Sprintf("DB_DATABASE=%s", r.config.GetDatabaseName(workerID)))

	// Set working directory
	cmd.Dir = r.config.ProjectPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	result := domain.TestResult{
		Test:     test,
		WorkerID: workerID,
		Output:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.Success = true
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		result.ExitCode = -1
		result.Error = err
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		result.TimedOut = true
		result.Success = false
	}

	r.log.Debug().
		Int("index", test.Index).
		Str("test", test.Key).
		Int("worker", workerID).
		Int("exit_code", result.ExitCode).
		Bool("timed_out", result.TimedOut).
		Dur("duration", result.Duration).
		Msg("test dispatched")

	return result
}
