package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"itd/internal/config"
	"itd/internal/discovery"
	"itd/internal/domain"
	"itd/internal/execution"
	"itd/internal/parser"
	"itd/internal/storage"
	"itd/internal/ui"
)

// ErrTestsFailed is returned by run when at least one test failed
var ErrTestsFailed = errors.New("tests failed")

// RunCommand handles the run command
type RunCommand struct {
	config      *config.Config
	source      *testSource
	filter      *discovery.Filter
	executor    *execution.WorkerPool
	parser      *parser.DispatchParser
	storage     storage.Storage
	formatter   *ui.Formatter
	provisioner *ProvisionCommand
	viewer      ui.Viewer
	newProgress func(count int) execution.Progress
	log         zerolog.Logger
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(
	cfg *config.Config,
	source *testSource,
	filter *discovery.Filter,
	executor *execution.WorkerPool,
	parser *parser.DispatchParser,
	st storage.Storage,
	formatter *ui.Formatter,
	provisioner *ProvisionCommand,
	viewer ui.Viewer,
	logger zerolog.Logger,
) *RunCommand {
	return &RunCommand{
		config:      cfg,
		source:      source,
		filter:      filter,
		executor:    executor,
		parser:      parser,
		storage:     st,
		formatter:   formatter,
		provisioner: provisioner,
		viewer:      viewer,
		newProgress: func(count int) execution.Progress {
			return ui.NewProgressBar(count)
		},
		log: logger,
	}
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	flags := rc.config.Flags

	if flags.ProvisionDB {
		if err := rc.provisioner.provision(ctx); err != nil {
			return err
		}
		fmt.Println()
	}

	tests, err := rc.selectTests(ctx)
	if err != nil {
		return err
	}

	if len(tests) == 0 {
		color.Yellow("No tests to execute")
		return nil
	}

	results, duration, err := rc.execute(ctx, tests, flags.FailFast)
	if err != nil {
		return err
	}

	if flags.RerunFailures {
		results, duration, err = rc.rerunFailures(ctx, results, duration)
		if err != nil {
			return err
		}
	}

	// Parse failures
	var failures []domain.TestFailure
	for _, result := range results {
		if !result.Success {
			failures = append(failures, rc.parser.ParseFailure(result)...)
		}
	}

	output, err := rc.storage.Save(results, failures, duration, rc.executor.WorkerCount(len(tests)))
	if err != nil {
		return fmt.Errorf("failed to save test results: %w", err)
	}

	if err := rc.formatter.PrintMetaStats(output); err != nil {
		return err
	}

	if output.Meta.FailedTests == 0 {
		return nil
	}
	if flags.OpenFailures && rc.viewer != nil {
		if err := rc.viewer.View(output); err != nil {
			return err
		}
	}
	return ErrTestsFailed
}

// selectTests lists the dispatcher's tests and applies --filter and --failed
func (rc *RunCommand) selectTests(ctx context.Context) ([]domain.ListedTest, error) {
	tests, err := rc.source.list(ctx)
	if err != nil {
		return nil, err
	}

	tests = rc.filter.FilterByKey(tests, rc.config.Flags.Filter)

	if rc.config.Flags.OnlyFailed {
		last, err := rc.storage.Load()
		if err != nil {
			return nil, fmt.Errorf("load last results: %w", err)
		}
		tests = rc.filter.FilterByKeys(tests, storage.FailedKeys(last))
	}
	return tests, nil
}

func (rc *RunCommand) execute(ctx context.Context, tests []domain.ListedTest, failFast bool) ([]domain.TestResult, time.Duration, error) {
	rc.executor.SetProgress(rc.newProgress(len(tests)))
	return rc.executor.ExecuteWithOptions(ctx, tests, failFast)
}

// rerunFailures runs every failed test once more and keeps the rerun outcome
func (rc *RunCommand) rerunFailures(ctx context.Context, results []domain.TestResult, duration time.Duration) ([]domain.TestResult, time.Duration, error) {
	var failed []domain.ListedTest
	for _, result := range results {
		if !result.Success {
			failed = append(failed, result.Test)
		}
	}
	if len(failed) == 0 {
		return results, duration, nil
	}

	rc.log.Info().Int("failed", len(failed)).Msg("rerunning failed tests")
	reruns, rerunDuration, err := rc.execute(ctx, failed, false)
	if err != nil {
		return nil, 0, err
	}

	byIndex := make(map[int]domain.TestResult, len(reruns))
	for _, rerun := range reruns {
		byIndex[rerun.Test.Index] = rerun
	}
	for i, result := range results {
		if rerun, ok := byIndex[result.Test.Index]; ok {
			results[i] = rerun
		}
	}
	return results, duration + rerunDuration, nil
}
