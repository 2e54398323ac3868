package pipeline

import (
	"context"
	"log/slog"

	"github.com/shaiso/buildorch/internal/domain"
	"github.com/shaiso/buildorch/internal/telemetry"
)

// Orchestrator выполняет pipeline.
//
// Выполнение строго последовательное, в одной горутине. Каждый action
// блокирует оркестратор до завершения внешнего процесса.
type Orchestrator struct {
	observer Observer
	logger   *slog.Logger
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Observer — получатель событий run. Может быть nil.
	Observer Observer

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	observer := cfg.Observer
	if observer == nil {
		observer = Observers(nil)
	}

	return &Orchestrator{
		observer: observer,
		logger:   logger,
	}
}

// Run выполняет pipeline и возвращает итоговый run.
//
// Для каждого шага по порядку:
//  1. Done — если маркер уже есть, шаг пропускается.
//  2. Run — action, ровно одна попытка.
//  3. Verify — если маркер не появился, run завершается.
//
// При неудаче возвращается *StepFailure вместе с run (run != nil).
// Ошибка валидации pipeline возвращается без run.
func (o *Orchestrator) Run(ctx context.Context, p *Pipeline) (*domain.Run, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	run := domain.NewRun(p.Names())
	state := NewState(len(p.Steps))
	logger := telemetry.WithRunID(o.logger, run.ID.String()).With("pipeline", p.Name)

	run.MarkRunning()
	logger.Info("run started", "steps", len(p.Steps))
	o.observer.RunStarted(ctx, run)

	if p.Environment != nil {
		if err := p.Environment(ctx); err != nil {
			o.failState(logger, state)
			return o.finish(ctx, logger, run, state, newFailure(EnvironmentStep, EnvironmentError, "environment check", err))
		}
	}

	if err := state.Start(); err != nil {
		return o.finish(ctx, logger, run, state, newFailure(EnvironmentStep, EnvironmentError, "start", err))
	}

	for i, step := range p.Steps {
		result := &run.Steps[i]
		if failure := o.runStep(ctx, logger, run, step, result); failure != nil {
			o.failState(logger, state)
			return o.finish(ctx, logger, run, state, failure)
		}
		if err := state.Advance(); err != nil {
			return o.finish(ctx, logger, run, state, newFailure(step.Name(), step.Kind(), "advance", err))
		}
	}

	return o.finish(ctx, logger, run, state, nil)
}

// failState переводит автомат в Failed. Ошибка перехода означает, что
// автомат уже терминальный; run всё равно завершается как FAILED.
func (o *Orchestrator) failState(logger *slog.Logger, state *State) {
	if err := state.Fail(); err != nil {
		logger.Warn("state transition rejected", "state", state.String(), "error", err)
	}
}

// runStep выполняет один шаг: precondition → action → postcondition.
func (o *Orchestrator) runStep(ctx context.Context, logger *slog.Logger, run *domain.Run, step Step, result *domain.StepResult) *StepFailure {
	logger = telemetry.WithStep(logger, step.Name())

	done, err := step.Done(ctx)
	if err != nil {
		return o.failStep(ctx, logger, run, step, result, newFailure(step.Name(), step.Kind(), "precondition", err))
	}
	if done {
		result.MarkSkipped()
		logger.Info("step skipped, marker present")
		o.observer.StepFinished(ctx, run, result)
		return nil
	}

	result.MarkRunning()
	run.Actions++
	logger.Info("step running")

	if err := step.Run(ctx); err != nil {
		return o.failStep(ctx, logger, run, step, result, newFailure(step.Name(), step.Kind(), "action", err))
	}

	if err := step.Verify(ctx); err != nil {
		return o.failStep(ctx, logger, run, step, result, newFailure(step.Name(), step.Kind(), "postcondition", err))
	}

	result.MarkSucceeded()
	logger.Info("step succeeded", "duration", result.Duration())
	o.observer.StepFinished(ctx, run, result)

	return nil
}

func (o *Orchestrator) failStep(ctx context.Context, logger *slog.Logger, run *domain.Run, step Step, result *domain.StepResult, failure *StepFailure) *StepFailure {
	result.MarkFailed(step.Kind().String(), failure.Message)
	logger.Error("step failed", "kind", failure.Kind, "error", failure.Message)
	o.observer.StepFinished(ctx, run, result)
	return failure
}

// finish переводит run в терминальный статус и уведомляет наблюдателей.
func (o *Orchestrator) finish(ctx context.Context, logger *slog.Logger, run *domain.Run, state *State, failure *StepFailure) (*domain.Run, error) {
	run.State = state.String()

	if failure != nil {
		run.MarkFailed(failure.Step, failure.Error())
		logger.Error("run failed",
			"failed_step", failure.Step,
			"kind", failure.Kind,
			"state", run.State,
			"actions", run.Actions,
			"duration", run.Duration(),
		)
		o.observer.RunFinished(ctx, run)
		return run, failure
	}

	run.MarkSucceeded()
	logger.Info("run succeeded",
		"state", run.State,
		"actions", run.Actions,
		"skipped", run.Skipped(),
		"duration", run.Duration(),
	)
	o.observer.RunFinished(ctx, run)
	return run, nil
}

// PlanEntry — результат проверки precondition одного шага без выполнения.
type PlanEntry struct {
	Step    string `json:"step"`
	WillRun bool   `json:"will_run"`
	Error   string `json:"error,omitempty"`
}

// Plan проверяет precondition каждого шага, не запуская ни одного action.
//
// Результат отражает текущее состояние маркеров: шаг, который будет
// выполнен, может создать маркеры последующих шагов, поэтому план
// показывает верхнюю границу работы.
func (o *Orchestrator) Plan(ctx context.Context, p *Pipeline) ([]PlanEntry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	entries := make([]PlanEntry, 0, len(p.Steps))
	for _, step := range p.Steps {
		entry := PlanEntry{Step: step.Name()}

		done, err := step.Done(ctx)
		if err != nil {
			entry.WillRun = true
			entry.Error = err.Error()
		} else {
			entry.WillRun = !done
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
