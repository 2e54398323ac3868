package pipeline

import (
	"errors"
	"fmt"
)

// Ошибки валидации pipeline.
var (
	// ErrEmptyPipeline — pipeline не содержит шагов.
	ErrEmptyPipeline = errors.New("pipeline has no steps")

	// ErrEmptyStepName — шаг без имени.
	ErrEmptyStepName = errors.New("step has empty name")

	// ErrDuplicateStep — несколько шагов с одинаковым именем.
	ErrDuplicateStep = errors.New("duplicate step name")

	// ErrInvalidTransition — недопустимый переход состояния pipeline.
	ErrInvalidTransition = errors.New("invalid pipeline state transition")

	// ErrMarkerMissing — postcondition: артефакт шага не появился.
	ErrMarkerMissing = errors.New("step marker missing")
)

// FailureKind — класс ошибки шага.
type FailureKind string

const (
	// ConfigurationError — конфигурация не создала управляющий файл сборки.
	ConfigurationError FailureKind = "ConfigurationError"

	// CompileError — компиляция не создала исполняемый файл.
	CompileError FailureKind = "CompileError"

	// SmokeTestError — собранный бинарник завершился с ненулевым кодом.
	SmokeTestError FailureKind = "SmokeTestError"

	// EnvironmentError — внешнее условие (toolkit, checkout) отсутствует.
	EnvironmentError FailureKind = "EnvironmentError"

	// InstallError — бинарник не появился по пути установки.
	InstallError FailureKind = "InstallError"
)

// String возвращает строковое представление FailureKind.
func (k FailureKind) String() string {
	return string(k)
}

// EnvironmentStep — имя псевдо-шага для проверки окружения.
const EnvironmentStep = "environment"

// StepFailure — ошибка, которой завершается run.
//
// Всегда указывает ровно один шаг.
type StepFailure struct {
	// Step — имя упавшего шага.
	Step string

	// Kind — класс ошибки.
	Kind FailureKind

	// Message — человекочитаемая диагностика.
	Message string

	// Err — исходная ошибка (action или postcondition).
	Err error
}

// Error реализует error.
func (f *StepFailure) Error() string {
	return fmt.Sprintf("step %q failed (%s): %s", f.Step, f.Kind, f.Message)
}

// Unwrap возвращает исходную ошибку.
func (f *StepFailure) Unwrap() error {
	return f.Err
}

// newFailure создаёт StepFailure, используя текст err как диагностику.
func newFailure(step string, kind FailureKind, phase string, err error) *StepFailure {
	return &StepFailure{
		Step:    step,
		Kind:    kind,
		Message: fmt.Sprintf("%s: %v", phase, err),
		Err:     err,
	}
}

// AsStepFailure извлекает StepFailure из цепочки ошибок.
func AsStepFailure(err error) (*StepFailure, bool) {
	var f *StepFailure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
