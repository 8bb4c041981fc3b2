package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/notifyhub/event-fanout/internal/domain"
)

// MockDispatchRepository is a hand-written, in-memory implementation of
// DispatchRepository used in unit tests. No mock-generation library needed.
type MockDispatchRepository struct {
	mu         sync.RWMutex
	runs       map[string]*domain.DispatchRun
	deliveries map[string][]*domain.Delivery

	// Optional error overrides — set in tests to simulate failure paths.
	CreateRunErr      error
	RecordDeliveryErr error
}

func NewMockDispatchRepository() *MockDispatchRepository {
	return &MockDispatchRepository{
		runs:       make(map[string]*domain.DispatchRun),
		deliveries: make(map[string][]*domain.Delivery),
	}
}

func (m *MockDispatchRepository) CreateRun(_ context.Context, run *domain.DispatchRun) error {
	if m.CreateRunErr != nil {
		return m.CreateRunErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *run
	m.runs[run.ID] = &clone
	return nil
}

func (m *MockDispatchRepository) GetRun(_ context.Context, id string) (*domain.DispatchRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *run
	return &clone, nil
}

func (m *MockDispatchRepository) ListRuns(_ context.Context, f domain.ListFilter) ([]*domain.DispatchRun, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.DispatchRun, 0, len(m.runs))
	for _, run := range m.runs {
		if f.Status != nil && run.Status != *f.Status {
			continue
		}
		clone := *run
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	return result, len(result), nil
}

func (m *MockDispatchRepository) MarkRunCompleted(_ context.Context, id string, delivered int, finishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run, ok := m.runs[id]; ok {
		run.Status = domain.RunStatusCompleted
		run.Delivered = delivered
		run.FinishedAt = &finishedAt
		run.ErrorMessage = nil
	}
	return nil
}

func (m *MockDispatchRepository) MarkRunFailed(_ context.Context, id string, delivered int, errMsg string, finishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run, ok := m.runs[id]; ok {
		run.Status = domain.RunStatusFailed
		run.Delivered = delivered
		run.ErrorMessage = &errMsg
		run.FinishedAt = &finishedAt
	}
	return nil
}

func (m *MockDispatchRepository) RecordDelivery(_ context.Context, d *domain.Delivery) error {
	if m.RecordDeliveryErr != nil {
		return m.RecordDeliveryErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *d
	m.deliveries[d.RunID] = append(m.deliveries[d.RunID], &clone)
	return nil
}

func (m *MockDispatchRepository) GetDeliveries(_ context.Context, runID string) ([]*domain.Delivery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Delivery
	for _, d := range m.deliveries[runID] {
		clone := *d
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})
	return result, nil
}

// compile-time check that the mock satisfies the interface
var _ DispatchRepository = (*MockDispatchRepository)(nil)
