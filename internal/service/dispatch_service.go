package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/notifyhub/event-fanout/internal/caller"
	"github.com/notifyhub/event-fanout/internal/dispatch"
	"github.com/notifyhub/event-fanout/internal/domain"
	"github.com/notifyhub/event-fanout/internal/repository"
)

// MetricHooks carries the metric callback functions injected by main.
// Using a struct keeps the service constructor signature clean.
type MetricHooks struct {
	OnDelivered   func(method domain.Method, latency time.Duration)
	OnRunFinished func(status domain.RunStatus)
}

// DispatchService coordinates the dispatcher and the history repository.
// A run record is written before the first HTTP call and finalised after
// the last one, so history reflects aborted runs as well as completed ones.
// HTTP handlers depend on this service, not on the dispatcher directly.
type DispatchService struct {
	repo   repository.DispatchRepository
	caller caller.Caller
	logger *zap.Logger
	hooks  MetricHooks
}

func NewDispatchService(
	repo repository.DispatchRepository,
	c caller.Caller,
	logger *zap.Logger,
	hooks MetricHooks,
) *DispatchService {
	if hooks.OnDelivered == nil {
		hooks.OnDelivered = func(domain.Method, time.Duration) {}
	}
	if hooks.OnRunFinished == nil {
		hooks.OnRunFinished = func(domain.RunStatus) {}
	}
	return &DispatchService{repo: repo, caller: c, logger: logger, hooks: hooks}
}

// Dispatch validates the request, records a run, fans the template out to
// every recipient in order, and returns the run together with the ordered
// response bodies. The whole call either fully succeeds or fails with the
// first encountered error; there is no partial result.
func (s *DispatchService) Dispatch(ctx context.Context, req domain.DispatchRequest) (*domain.DispatchRun, []json.RawMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	run := &domain.DispatchRun{
		ID:             uuid.New().String(),
		URL:            req.URL,
		Method:         req.Method,
		RecipientCount: len(req.Recipients),
		Status:         domain.RunStatusRunning,
		StartedAt:      time.Now().UTC(),
	}
	if err := s.repo.CreateRun(ctx, run); err != nil {
		return nil, nil, err
	}

	delivered := 0
	d := dispatch.NewDispatcher(s.caller, s.logger, dispatch.Hooks{
		OnDelivered: func(index int, body []byte, latency time.Duration) {
			delivered++
			s.hooks.OnDelivered(req.Method, latency)
			s.recordDelivery(ctx, run.ID, index, body)
		},
	})

	responses, err := d.Dispatch(ctx, req)
	finishedAt := time.Now().UTC()

	if err != nil {
		if repoErr := s.repo.MarkRunFailed(ctx, run.ID, delivered, err.Error(), finishedAt); repoErr != nil {
			s.logger.Error("failed to mark run as failed",
				zap.String("run_id", run.ID), zap.Error(repoErr))
		}
		s.hooks.OnRunFinished(domain.RunStatusFailed)
		return nil, nil, err
	}

	if repoErr := s.repo.MarkRunCompleted(ctx, run.ID, delivered, finishedAt); repoErr != nil {
		s.logger.Error("failed to mark run as completed",
			zap.String("run_id", run.ID), zap.Error(repoErr))
	}
	run.Status = domain.RunStatusCompleted
	run.Delivered = delivered
	run.FinishedAt = &finishedAt
	s.hooks.OnRunFinished(domain.RunStatusCompleted)

	return run, responses, nil
}

func (s *DispatchService) GetRun(ctx context.Context, id string) (*domain.DispatchRun, []*domain.Delivery, error) {
	run, err := s.repo.GetRun(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	deliveries, err := s.repo.GetDeliveries(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return run, deliveries, nil
}

func (s *DispatchService) ListRuns(ctx context.Context, filter domain.ListFilter) ([]*domain.DispatchRun, int, error) {
	return s.repo.ListRuns(ctx, filter)
}

// recordDelivery persists one delivery row. History is best-effort: a
// storage failure here must not abort an otherwise healthy dispatch.
func (s *DispatchService) recordDelivery(ctx context.Context, runID string, index int, body []byte) {
	d := &domain.Delivery{
		ID:           uuid.New().String(),
		RunID:        runID,
		Position:     index,
		ResponseBody: body,
		SentAt:       time.Now().UTC(),
	}
	if err := s.repo.RecordDelivery(ctx, d); err != nil {
		s.logger.Warn("failed to record delivery",
			zap.String("run_id", runID), zap.Int("position", index), zap.Error(err))
	}
}
