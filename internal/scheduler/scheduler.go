package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shaiso/buildorch/internal/domain"
	"github.com/shaiso/buildorch/internal/pipeline"
)

// Job — то, что запускается по расписанию. Реализация: cli.App.
type Job interface {
	Run(ctx context.Context) (*domain.Run, error)
}

// Scheduler запускает Job по расписанию.
type Scheduler struct {
	schedule *Schedule
	job      Job
	logger   *slog.Logger

	// now и after подменяются в тестах.
	now   func() time.Time
	after func(d time.Duration) <-chan time.Time
}

// Config — конфигурация Scheduler.
type Config struct {
	Cron     string // cron-выражение или дескриптор (@daily)
	Timezone string // default: UTC
	Job      Job
	Logger   *slog.Logger
}

// New создаёт новый Scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Job == nil {
		return nil, ErrNoJob
	}

	sched, err := ParseSchedule(cfg.Cron, cfg.Timezone)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		schedule: sched,
		job:      cfg.Job,
		logger:   logger.With("schedule", sched.String()),
		now:      time.Now,
		after:    time.After,
	}, nil
}

// Start запускает цикл планировщика. Блокирует до отмены ctx.
//
// Ошибки run не останавливают цикл: они логируются, следующий запуск
// выполняется по расписанию.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started")

	for {
		if ctx.Err() != nil {
			s.logger.Info("scheduler stopped")
			return nil
		}

		next := s.schedule.Next(s.now())
		s.logger.Info("next run scheduled", "at", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil
		case <-s.after(next.Sub(s.now())):
		}

		s.Tick(ctx)
	}
}

// Tick выполняет один запуск Job и логирует результат.
// Возвращает true, если run завершился успешно.
func (s *Scheduler) Tick(ctx context.Context) bool {
	run, err := s.job.Run(ctx)
	if err != nil {
		attrs := []any{"error", err}
		if failure, ok := pipeline.AsStepFailure(err); ok {
			attrs = append(attrs, "step", failure.Step, "kind", failure.Kind.String())
		}
		if errors.Is(err, context.Canceled) {
			s.logger.Warn("scheduled run interrupted", attrs...)
		} else {
			s.logger.Error("scheduled run failed", attrs...)
		}
		return false
	}

	s.logger.Info("scheduled run completed",
		"run_id", run.ID,
		"actions", run.Actions,
		"skipped", run.Skipped(),
		"duration", run.Duration(),
	)
	return true
}
