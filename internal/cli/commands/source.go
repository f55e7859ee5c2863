package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"itd/internal/domain"
	"itd/internal/parser"
)

// Dispatcher is the orchestrator's view of the dispatcher binary
type Dispatcher interface {
	List(ctx context.Context) (string, int, error)
	Run(ctx context.Context, test domain.ListedTest, workerID int) domain.TestResult
}

// testSource lists the tests a dispatcher currently exposes
type testSource struct {
	dispatcher Dispatcher
	parser     *parser.DispatchParser
	log        zerolog.Logger
}

func (s *testSource) list(ctx context.Context) ([]domain.ListedTest, error) {
	output, exitCode, err := s.dispatcher.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}

	tests := s.parser.ParseListing(output)
	if err := s.parser.CheckCount(tests, exitCode); err != nil {
		s.log.Warn().Err(err).Msg("dispatcher listing looks inconsistent")
	}
	return tests, nil
}

// dispatchRerunner reruns a stored failure by looking its key up in a fresh
// listing, so indexes that moved since the last run still hit the right test.
type dispatchRerunner struct {
	source *testSource
}

func (r *dispatchRerunner) Rerun(ctx context.Context, failure domain.TestFailure) (*domain.TestFailure, error) {
	tests, err := r.source.list(ctx)
	if err != nil {
		return nil, err
	}

	for _, test := range tests {
		if test.Key != failure.Key {
			continue
		}
		result := r.source.dispatcher.Run(ctx, test, 1)
		if result.Success {
			return nil, nil
		}
		failures := r.source.parser.ParseFailure(result)
		if len(failures) == 0 {
			return nil, fmt.Errorf("no failure parsed for %s", test.Key)
		}
		return &failures[0], nil
	}
	return nil, fmt.Errorf("test %s is no longer listed", failure.Key)
}
