package repo

import (
	"context"
	"log/slog"

	"github.com/shaiso/buildorch/internal/domain"
)

// History записывает ход run в Postgres. Реализует pipeline.Observer.
//
// Ошибки записи логируются и не влияют на результат run.
type History struct {
	pipeline string
	runs     *RunRepo
	steps    *StepRepo
	logger   *slog.Logger
}

// NewHistory создаёт History.
func NewHistory(pipeline string, runs *RunRepo, steps *StepRepo, logger *slog.Logger) *History {
	if logger == nil {
		logger = slog.Default()
	}
	return &History{
		pipeline: pipeline,
		runs:     runs,
		steps:    steps,
		logger:   logger,
	}
}

func (h *History) RunStarted(ctx context.Context, run *domain.Run) {
	if err := h.runs.Create(ctx, h.pipeline, run); err != nil {
		h.logger.Warn("history: record run start", "run_id", run.ID, "error", err)
	}
}

func (h *History) StepFinished(ctx context.Context, run *domain.Run, step *domain.StepResult) {
	position := 0
	for i := range run.Steps {
		if run.Steps[i].Name == step.Name {
			position = i
			break
		}
	}

	if err := h.steps.Upsert(ctx, run.ID, position, step); err != nil {
		h.logger.Warn("history: record step", "run_id", run.ID, "step", step.Name, "error", err)
	}
}

func (h *History) RunFinished(ctx context.Context, run *domain.Run) {
	if err := h.runs.Update(ctx, run); err != nil {
		h.logger.Warn("history: record run finish", "run_id", run.ID, "error", err)
	}
}
