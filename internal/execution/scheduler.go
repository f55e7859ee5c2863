package execution

import "itd/internal/domain"

// Scheduler distributes tests across workers
type Scheduler interface {
	Schedule(tests []domain.ListedTest, workerCount int) [][]domain.ListedTest
}

// RoundRobinScheduler distributes tests evenly across workers
type RoundRobinScheduler struct{}

// NewRoundRobinScheduler creates a new RoundRobinScheduler
func NewRoundRobinScheduler() *RoundRobinScheduler {
	return &RoundRobinScheduler{}
}

// Schedule distributes tests evenly across workers using round-robin
func (s *RoundRobinScheduler) Schedule(tests []domain.ListedTest, workerCount int) [][]domain.ListedTest {
	if workerCount <= 0 {
		workerCount = 1
	}

	distribution := make([][]domain.ListedTest, workerCount)
	for i := range distribution {
		distribution[i] = make([]domain.ListedTest, 0, len(tests)/workerCount+1)
	}

	for i, test := range tests {
		workerIndex := i % workerCount
		distribution[workerIndex] = append(distribution[workerIndex], test)
	}

	return distribution
}
