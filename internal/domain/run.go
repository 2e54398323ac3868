package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run — один запуск pipeline сборки.
//
// Run создаётся при каждом вызове оркестратора. Хранит результаты
// всех шагов в порядке их выполнения и итоговый статус.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// Steps — результаты шагов в порядке pipeline.
	Steps []StepResult `json:"steps"`

	// State — итоговое состояние автомата pipeline: Succeeded, Failed(2),
	// Failed(-1) при падении проверки окружения.
	State string `json:"state,omitempty"`

	// Actions — сколько action было реально запущено (не пропущено).
	Actions int `json:"actions"`

	// FailedStep — имя шага, на котором run упал.
	FailedStep string `json:"failed_step,omitempty"`

	// Error — текст диагностики, если run завершился с FAILED.
	Error string `json:"error,omitempty"`

	// StartedAt — время начала выполнения (когда статус стал RUNNING).
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// NewRun создаёт run в статусе PENDING с шагами в статусе PENDING.
func NewRun(stepNames []string) *Run {
	steps := make([]StepResult, len(stepNames))
	for i, name := range stepNames {
		steps[i] = StepResult{Name: name, Status: StepStatusPending}
	}

	return &Run{
		ID:        uuid.New(),
		Status:    RunStatusPending,
		Steps:     steps,
		CreatedAt: time.Now(),
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён (в любом статусе).
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// Step возвращает результат шага по имени или nil.
func (r *Run) Step(name string) *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Name == name {
			return &r.Steps[i]
		}
	}
	return nil
}

// Skipped возвращает количество пропущенных шагов.
func (r *Run) Skipped() int {
	n := 0
	for _, s := range r.Steps {
		if s.Status == StepStatusSkipped {
			n++
		}
	}
	return n
}

// MarkRunning переводит run в статус RUNNING.
func (r *Run) MarkRunning() {
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
}

// MarkSucceeded переводит run в статус SUCCEEDED.
func (r *Run) MarkSucceeded() {
	now := time.Now()
	r.Status = RunStatusSucceeded
	r.FinishedAt = &now
}

// MarkFailed переводит run в статус FAILED с указанием шага и ошибки.
func (r *Run) MarkFailed(step, err string) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.FinishedAt = &now
	r.FailedStep = step
	r.Error = err
}
