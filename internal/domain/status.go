package domain

// RunStatus — статус выполнения run.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ FAILED
type RunStatus string

const (
	// RunStatusPending — run создан, но ни один шаг ещё не начат.
	RunStatusPending RunStatus = "PENDING"

	// RunStatusRunning — run в процессе выполнения.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusSucceeded — все шаги pipeline выполнены или пропущены.
	RunStatusSucceeded RunStatus = "SUCCEEDED"

	// RunStatusFailed — один из шагов не прошёл проверку.
	RunStatusFailed RunStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление RunStatus.
func (s RunStatus) String() string {
	return string(s)
}

// StepStatus — статус отдельного шага внутри run.
//
// Жизненный цикл:
//
//	PENDING → SKIPPED (маркер уже существует)
//	        → RUNNING → SUCCEEDED
//	                  ↘ FAILED
type StepStatus string

const (
	// StepStatusPending — шаг ещё не рассматривался.
	StepStatusPending StepStatus = "PENDING"

	// StepStatusSkipped — precondition выполнен, action не запускался.
	StepStatusSkipped StepStatus = "SKIPPED"

	// StepStatusRunning — action выполняется.
	StepStatusRunning StepStatus = "RUNNING"

	// StepStatusSucceeded — action выполнен и postcondition подтверждён.
	StepStatusSucceeded StepStatus = "SUCCEEDED"

	// StepStatusFailed — action или postcondition завершились ошибкой.
	StepStatusFailed StepStatus = "FAILED"
)

// IsTerminal возвращает true, если статус шага финальный.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StepStatusSkipped, StepStatusSucceeded, StepStatusFailed:
		return true
	default:
		return false
	}
}

// Satisfied возвращает true, если postcondition шага выполнен.
func (s StepStatus) Satisfied() bool {
	return s == StepStatusSkipped || s == StepStatusSucceeded
}

// ParseRunStatus парсит строку в RunStatus.
func ParseRunStatus(s string) RunStatus {
	switch s {
	case "RUNNING":
		return RunStatusRunning
	case "SUCCEEDED":
		return RunStatusSucceeded
	case "FAILED":
		return RunStatusFailed
	default:
		return RunStatusPending
	}
}
