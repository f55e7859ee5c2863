package execution

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"itd/internal/config"
	"itd/internal/domain"
	"itd/internal/parser"
)

// errStopped ends the pool early in fail-fast mode
var errStopped = errors.New("execution: stopped after first failure")

// WorkerPool runs dispatched tests on a bounded number of workers. Each worker
// owns one worker ID (and therefore one database) and runs its tests serially.
type WorkerPool struct {
	config    *config.Config
	runner    TestRunner
	scheduler Scheduler
	progress  Progress
	parser    *parser.DispatchParser
	log       zerolog.Logger
}

var _ Executor = (*WorkerPool)(nil)

// NewWorkerPool creates a new WorkerPool
func NewWorkerPool(cfg *config.Config, runner TestRunner, scheduler Scheduler, dispatchParser *parser.DispatchParser, logger zerolog.Logger) *WorkerPool {
	return &WorkerPool{
		config:    cfg,
		runner:    runner,
		scheduler: scheduler,
		parser:    dispatchParser,
		log:       logger,
	}
}

// SetProgress sets the progress reporter for the worker pool
func (wp *WorkerPool) SetProgress(progress Progress) {
	wp.progress = progress
}

// WorkerCount returns the number of workers used to run testCount tests
func (wp *WorkerPool) WorkerCount(testCount int) int {
	workerCount := wp.config.Processors
	if workerCount <= 0 {
		workerCount = 1
	}
	if testCount > 0 && workerCount > testCount {
		workerCount = testCount
	}
	return workerCount
}

// Execute runs every test (no fail-fast).
func (wp *WorkerPool) Execute(ctx context.Context, tests []domain.ListedTest) ([]domain.TestResult, time.Duration, error) {
	return wp.ExecuteWithOptions(ctx, tests, false)
}

// ExecuteWithOptions runs tests, optionally stopping after the first failure.
// Results are returned in listing order. Results of runs that were cut short
// by fail-fast are dropped.
func (wp *WorkerPool) ExecuteWithOptions(ctx context.Context, tests []domain.ListedTest, failFast bool) ([]domain.TestResult, time.Duration, error) {
	if len(tests) == 0 {
		return nil, 0, nil
	}

	workerCount := wp.WorkerCount(len(tests))

	var mu sync.Mutex
	var passed, failed int
	var stopped bool
	results := make([]domain.TestResult, 0, len(tests))
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	distribution := wp.scheduler.Schedule(tests, workerCount)

	for i, queue := range distribution {
		workerID := i + 1
		g.Go(func() error {
			for _, test := range queue {
				if gctx.Err() != nil {
					return nil
				}
				result := wp.runner.Run(gctx, test, workerID)

				mu.Lock()
				if stopped {
					mu.Unlock()
					return nil
				}
				results = append(results, result)
				p, f := wp.parser.ParseTestCounts(result)
				passed += p
				failed += f
				if wp.progress != nil {
					wp.progress.Update(len(results), passed, failed)
				}
				if failFast && !result.Success {
					stopped = true
				}
				stop := stopped
				mu.Unlock()

				if stop {
					wp.log.Info().Str("test", test.Key).Msg("stopping after first failure")
					return errStopped
				}
			}
			return nil
		})
	}

	err := g.Wait()
	if wp.progress != nil {
		wp.progress.Finish()
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Test.Index < results[j].Test.Index
	})

	if errors.Is(err, errStopped) {
		err = nil
	}
	if err == nil {
		err = ctx.Err()
	}
	return results, time.Since(startTime), err
}
