package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"itd/internal/domain"
)

// Save builds the result summary, writes it to the configured JSON output
// file and returns what was written.
func (s *JSONStorage) Save(results []domain.TestResult, failures []domain.TestFailure, duration time.Duration, workers int) (*domain.TestResultsOutput, error) {
	passed, failed, timedOut := 0, 0, 0
	for _, r := range results {
		if r.Success {
			passed++
		} else {
			failed++
		}
		if r.TimedOut {
			timedOut++
		}
	}

	if failures == nil {
		failures = []domain.TestFailure{}
	}

	output := &domain.TestResultsOutput{
		Meta: domain.TestResultsMeta{
			RunID:           uuid.NewString(),
			Dispatcher:      s.cfg.DispatcherPath,
			TotalTests:      len(results),
			FailedTests:     failed,
			PassedTests:     passed,
			TimedOutTests:   timedOut,
			Duration:        duration.String(),
			DurationSeconds: duration.Seconds(),
			Workers:         workers,
			Timestamp:       s.now().Format(time.RFC3339),
		},
		Details: failures,
	}

	if err := s.SaveOutput(output); err != nil {
		return nil, err
	}
	return output, nil
}

// Load reads the last test results from the configured JSON output file.
func (s *JSONStorage) Load() (*domain.TestResultsOutput, error) {
	path := s.cfg.GetOutputPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results file: %w", err)
	}
	var output domain.TestResultsOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return &output, nil
}

// SaveOutput writes the full output to the configured JSON file (e.g. after re-running selected tests).
func (s *JSONStorage) SaveOutput(output *domain.TestResultsOutput) error {
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	path := s.cfg.GetOutputPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// FailedKeys returns the keys of unresolved failures in output
func FailedKeys(output *domain.TestResultsOutput) map[string]struct{} {
	keys := make(map[string]struct{})
	if output == nil {
		return keys
	}
	for _, f := range output.Details {
		if !f.Resolved {
			keys[f.Key] = struct{}{}
		}
	}
	return keys
}
