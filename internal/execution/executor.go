package execution

import (
	"context"
	"time"

	"itd/internal/domain"
)

// Executor executes tests and returns results
type Executor interface {
	Execute(ctx context.Context, tests []domain.ListedTest) ([]domain.TestResult, time.Duration, error)
}

// TestRunner dispatches a single test
type TestRunner interface {
	Run(ctx context.Context, test domain.ListedTest, workerID int) domain.TestResult
}

// Progress receives progress updates from the worker pool
type Progress interface {
	Update(completed, passed, failed int)
	Finish()
}
