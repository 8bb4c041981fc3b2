package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notifyhub/event-fanout/internal/domain"
)

type pgDispatchRepository struct {
	pool *pgxpool.Pool
}

// NewPgDispatchRepository returns a DispatchRepository backed by PostgreSQL.
func NewPgDispatchRepository(pool *pgxpool.Pool) DispatchRepository {
	return &pgDispatchRepository{pool: pool}
}

func (r *pgDispatchRepository) CreateRun(ctx context.Context, run *domain.DispatchRun) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO dispatch_runs
			(id, url, method, recipient_count, delivered, status, started_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		run.ID, run.URL, run.Method, run.RecipientCount, run.Delivered, run.Status, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert dispatch run: %w", err)
	}
	return nil
}

func (r *pgDispatchRepository) GetRun(ctx context.Context, id string) (*domain.DispatchRun, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, url, method, recipient_count, delivered, status,
		       error_message, started_at, finished_at
		FROM dispatch_runs WHERE id = $1`, id)

	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return run, err
}

func (r *pgDispatchRepository) ListRuns(ctx context.Context, f domain.ListFilter) ([]*domain.DispatchRun, int, error) {
	where, args := buildListWhere(f)
	offset := (f.Page - 1) * f.Limit

	// Count total matching rows for pagination metadata.
	var total int
	countQuery := "SELECT COUNT(*) FROM dispatch_runs" + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count dispatch runs: %w", err)
	}

	// Append pagination args after the WHERE args.
	args = append(args, f.Limit, offset)
	limitPlaceholder := fmt.Sprintf("$%d", len(args)-1)
	offsetPlaceholder := fmt.Sprintf("$%d", len(args))

	query := fmt.Sprintf(`
		SELECT id, url, method, recipient_count, delivered, status,
		       error_message, started_at, finished_at
		FROM dispatch_runs%s
		ORDER BY started_at DESC
		LIMIT %s OFFSET %s`, where, limitPlaceholder, offsetPlaceholder)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list dispatch runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.DispatchRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, run)
	}
	return runs, total, rows.Err()
}

func (r *pgDispatchRepository) MarkRunCompleted(ctx context.Context, id string, delivered int, finishedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE dispatch_runs
		SET status = 'completed', delivered = $1, finished_at = $2, error_message = NULL
		WHERE id = $3`, delivered, finishedAt, id)
	return err
}

func (r *pgDispatchRepository) MarkRunFailed(ctx context.Context, id string, delivered int, errMsg string, finishedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE dispatch_runs
		SET status = 'failed', delivered = $1, error_message = $2, finished_at = $3
		WHERE id = $4`, delivered, errMsg, finishedAt, id)
	return err
}

func (r *pgDispatchRepository) RecordDelivery(ctx context.Context, d *domain.Delivery) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO dispatch_deliveries
			(id, run_id, position, response_body, sent_at)
		VALUES ($1,$2,$3,$4,$5)`,
		d.ID, d.RunID, d.Position, []byte(d.ResponseBody), d.SentAt,
	)
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

func (r *pgDispatchRepository) GetDeliveries(ctx context.Context, runID string) ([]*domain.Delivery, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, run_id, position, response_body, sent_at
		FROM dispatch_deliveries
		WHERE run_id = $1
		ORDER BY position ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("get deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []*domain.Delivery
	for rows.Next() {
		var d domain.Delivery
		var body []byte
		if err := rows.Scan(&d.ID, &d.RunID, &d.Position, &body, &d.SentAt); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		d.ResponseBody = body
		deliveries = append(deliveries, &d)
	}
	return deliveries, rows.Err()
}

// scanRun works with both pgx.Row and pgx.Rows via the common Scan method.
func scanRun(row pgx.Row) (*domain.DispatchRun, error) {
	var run domain.DispatchRun
	err := row.Scan(
		&run.ID, &run.URL, &run.Method, &run.RecipientCount, &run.Delivered,
		&run.Status, &run.ErrorMessage, &run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// buildListWhere assembles the WHERE clause and args for ListRuns filters.
func buildListWhere(f domain.ListFilter) (string, []any) {
	var clauses []string
	var args []any

	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if f.Status != nil {
		add("status = $%d", *f.Status)
	}
	if f.From != nil {
		add("started_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("started_at <= $%d", *f.To)
	}

	if len(clauses) == 0 {
		return "", nil
	}

	where := " WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}
