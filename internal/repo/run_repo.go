package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/buildorch/internal/domain"
)

// RunRepo — репозиторий для истории runs.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

// RunRecord — строка истории: run и имя pipeline.
type RunRecord struct {
	Pipeline string `json:"pipeline"`
	domain.Run
}

// Create сохраняет новый run.
func (r *RunRepo) Create(ctx context.Context, pipeline string, run *domain.Run) error {
	query := `
		INSERT INTO build_runs (id, pipeline, status, actions, started_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		run.ID,
		pipeline,
		run.Status,
		run.Actions,
		run.StartedAt,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Update обновляет статус и итоги run.
func (r *RunRepo) Update(ctx context.Context, run *domain.Run) error {
	query := `
		UPDATE build_runs
		SET status = $2, actions = $3, failed_step = $4, error = $5,
		    started_at = $6, finished_at = $7
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Status,
		run.Actions,
		nullString(run.FailedStep),
		nullString(run.Error),
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID возвращает run по ID вместе с шагами.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*RunRecord, error) {
	query := `
		SELECT id, pipeline, status, actions, failed_step, error,
		       started_at, finished_at, created_at
		FROM build_runs
		WHERE id = $1
	`
	rec, err := scanRun(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	steps, err := NewStepRepo(r.pool).ListByRun(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Steps = steps

	return rec, nil
}

// List возвращает последние runs, новые первыми.
func (r *RunRepo) List(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, pipeline, status, actions, failed_step, error,
		       started_at, finished_at, created_at
		FROM build_runs
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *rec)
	}
	return runs, rows.Err()
}

// scanRun сканирует одну строку в RunRecord. pgx.Rows тоже реализует pgx.Row.
func scanRun(row pgx.Row) (*RunRecord, error) {
	var rec RunRecord
	var failedStep, runError *string

	err := row.Scan(
		&rec.ID,
		&rec.Pipeline,
		&rec.Status,
		&rec.Actions,
		&failedStep,
		&runError,
		&rec.StartedAt,
		&rec.FinishedAt,
		&rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if failedStep != nil {
		rec.FailedStep = *failedStep
	}
	if runError != nil {
		rec.Error = *runError
	}

	return &rec, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
