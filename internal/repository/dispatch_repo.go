package repository

import (
	"context"
	"time"

	"github.com/notifyhub/event-fanout/internal/domain"
)

// DispatchRepository defines all persistence operations for dispatch history.
// The pgx implementation is in pg_dispatch_repo.go.
// Tests use a hand-written mock (mock_dispatch_repo.go).
type DispatchRepository interface {
	CreateRun(ctx context.Context, run *domain.DispatchRun) error
	GetRun(ctx context.Context, id string) (*domain.DispatchRun, error)
	ListRuns(ctx context.Context, filter domain.ListFilter) ([]*domain.DispatchRun, int, error)
	MarkRunCompleted(ctx context.Context, id string, delivered int, finishedAt time.Time) error
	MarkRunFailed(ctx context.Context, id string, delivered int, errMsg string, finishedAt time.Time) error

	RecordDelivery(ctx context.Context, d *domain.Delivery) error
	GetDeliveries(ctx context.Context, runID string) ([]*domain.Delivery, error)
}
