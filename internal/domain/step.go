package domain

import "time"

// StepResult — результат одного шага внутри run.
type StepResult struct {
	// Name — имя шага (clone, configure, compile, smoke-test, install).
	Name string `json:"name"`

	// Status — текущий статус шага.
	Status StepStatus `json:"status"`

	// Kind — класс ошибки (ConfigurationError, CompileError, ...).
	// Пустой, если шаг не упал.
	Kind string `json:"kind,omitempty"`

	// Error — диагностика при неудаче.
	Error string `json:"error,omitempty"`

	// StartedAt — время начала action.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения шага.
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Duration возвращает продолжительность выполнения action.
func (s *StepResult) Duration() time.Duration {
	if s.StartedAt == nil || s.FinishedAt == nil {
		return 0
	}
	return s.FinishedAt.Sub(*s.StartedAt)
}

// MarkSkipped помечает шаг как пропущенный: маркер уже существовал.
func (s *StepResult) MarkSkipped() {
	now := time.Now()
	s.Status = StepStatusSkipped
	s.FinishedAt = &now
}

// MarkRunning переводит шаг в статус RUNNING.
func (s *StepResult) MarkRunning() {
	now := time.Now()
	s.Status = StepStatusRunning
	s.StartedAt = &now
}

// MarkSucceeded переводит шаг в статус SUCCEEDED.
func (s *StepResult) MarkSucceeded() {
	now := time.Now()
	s.Status = StepStatusSucceeded
	s.FinishedAt = &now
}

// MarkFailed переводит шаг в статус FAILED.
func (s *StepResult) MarkFailed(kind, err string) {
	now := time.Now()
	s.Status = StepStatusFailed
	s.FinishedAt = &now
	s.Kind = kind
	s.Error = err
}
