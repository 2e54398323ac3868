package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/buildorch/internal/domain"
)

// StepRepo — репозиторий результатов шагов.
type StepRepo struct {
	pool *pgxpool.Pool
}

// NewStepRepo создаёт новый StepRepo.
func NewStepRepo(pool *pgxpool.Pool) *StepRepo {
	return &StepRepo{pool: pool}
}

// Upsert сохраняет результат шага. position — индекс шага в pipeline.
func (r *StepRepo) Upsert(ctx context.Context, runID uuid.UUID, position int, step *domain.StepResult) error {
	query := `
		INSERT INTO build_steps (run_id, position, name, status, kind, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id, name) DO UPDATE
		SET status = EXCLUDED.status, kind = EXCLUDED.kind, error = EXCLUDED.error,
		    started_at = EXCLUDED.started_at, finished_at = EXCLUDED.finished_at
	`
	_, err := r.pool.Exec(ctx, query,
		runID,
		position,
		step.Name,
		step.Status,
		nullString(step.Kind),
		nullString(step.Error),
		step.StartedAt,
		step.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert step %s: %w", step.Name, err)
	}
	return nil
}

// ListByRun возвращает шаги run в порядке pipeline.
func (r *StepRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.StepResult, error) {
	query := `
		SELECT name, status, kind, error, started_at, finished_at
		FROM build_steps
		WHERE run_id = $1
		ORDER BY position ASC
	`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var steps []domain.StepResult
	for rows.Next() {
		var s domain.StepResult
		var kind, stepError *string
		if err := rows.Scan(&s.Name, &s.Status, &kind, &stepError, &s.StartedAt, &s.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		if kind != nil {
			s.Kind = *kind
		}
		if stepError != nil {
			s.Error = *stepError
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}
