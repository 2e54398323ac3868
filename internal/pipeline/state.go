package pipeline

import "fmt"

// Phase — фаза конечного автомата pipeline.
type Phase int

const (
	// PhasePending — run создан, шаги не начаты.
	PhasePending Phase = iota

	// PhaseRunning — выполняется шаг Index().
	PhaseRunning

	// PhaseSucceeded — все шаги удовлетворены.
	PhaseSucceeded

	// PhaseFailed — шаг Index() упал. Index() == -1 означает
	// падение проверки окружения до первого шага.
	PhaseFailed
)

// String возвращает имя фазы.
func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "Pending"
	case PhaseRunning:
		return "Running"
	case PhaseSucceeded:
		return "Succeeded"
	case PhaseFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// State — состояние одного выполнения pipeline.
//
// Переходы:
//
//	Pending    → Running(0)           Start
//	Pending    → Failed(-1)           Fail (окружение)
//	Running(i) → Running(i+1)         Advance
//	Running(n) → Succeeded            Advance на последнем шаге
//	Running(i) → Failed(i)            Fail
//
// Succeeded и Failed — терминальные.
type State struct {
	phase Phase
	index int
	total int
}

// NewState создаёт автомат для pipeline из total шагов.
func NewState(total int) *State {
	return &State{
		phase: PhasePending,
		index: -1,
		total: total,
	}
}

// Phase возвращает текущую фазу.
func (s *State) Phase() Phase {
	return s.phase
}

// Index возвращает индекс текущего (или упавшего) шага.
func (s *State) Index() int {
	return s.index
}

// IsTerminal возвращает true для Succeeded и Failed.
func (s *State) IsTerminal() bool {
	return s.phase == PhaseSucceeded || s.phase == PhaseFailed
}

// Start переводит Pending → Running(0).
func (s *State) Start() error {
	if s.phase != PhasePending || s.total == 0 {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, s)
	}
	s.phase = PhaseRunning
	s.index = 0
	return nil
}

// Advance переводит Running(i) → Running(i+1) или Succeeded.
func (s *State) Advance() error {
	if s.phase != PhaseRunning {
		return fmt.Errorf("%w: advance from %s", ErrInvalidTransition, s)
	}
	if s.index == s.total-1 {
		s.phase = PhaseSucceeded
		return nil
	}
	s.index++
	return nil
}

// Fail переводит Running(i) → Failed(i) или Pending → Failed(-1).
func (s *State) Fail() error {
	if s.phase != PhaseRunning && s.phase != PhasePending {
		return fmt.Errorf("%w: fail from %s", ErrInvalidTransition, s)
	}
	s.phase = PhaseFailed
	return nil
}

// String возвращает состояние в виде Running(2), Failed(4) и т.д.
func (s *State) String() string {
	switch s.phase {
	case PhaseRunning, PhaseFailed:
		return fmt.Sprintf("%s(%d)", s.phase, s.index)
	default:
		return s.phase.String()
	}
}
