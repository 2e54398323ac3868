package pipeline

import (
	"context"
	"fmt"
)

// Step — одна идемпотентная единица работы.
//
// Реализации: steps.Clone, steps.Configure, steps.Compile, steps.SmokeTest,
// steps.Install. Оркестратор не знает ничего о конкретных шагах.
type Step interface {
	// Name возвращает уникальное имя шага внутри pipeline.
	Name() string

	// Kind возвращает класс ошибки, которым помечается падение шага.
	Kind() FailureKind

	// Done — precondition: true, если маркер шага уже существует.
	// Ошибка означает, что состояние маркера невозможно определить.
	Done(ctx context.Context) (bool, error)

	// Run — action. Вызывается не более одного раза за run.
	Run(ctx context.Context) error

	// Verify — postcondition. Возвращает ошибку, если маркер не появился.
	Verify(ctx context.Context) error
}

// Check — условие уровня всего pipeline (например, наличие CUDA toolkit).
type Check func(ctx context.Context) error

// Pipeline — фиксированная упорядоченная последовательность шагов.
type Pipeline struct {
	// Name — имя pipeline (для логов и метрик).
	Name string

	// Environment — precondition всего pipeline. Может быть nil.
	Environment Check

	// Steps — шаги в порядке зависимостей.
	Steps []Step
}

// NewPipeline создаёт pipeline из шагов.
func NewPipeline(name string, steps ...Step) *Pipeline {
	return &Pipeline{
		Name:  name,
		Steps: steps,
	}
}

// WithEnvironment задаёт проверку окружения и возвращает pipeline.
func (p *Pipeline) WithEnvironment(check Check) *Pipeline {
	p.Environment = check
	return p
}

// Validate проверяет, что pipeline не пустой и имена шагов уникальны.
func (p *Pipeline) Validate() error {
	if len(p.Steps) == 0 {
		return ErrEmptyPipeline
	}

	seen := make(map[string]bool, len(p.Steps))
	for i, step := range p.Steps {
		name := step.Name()
		if name == "" {
			return fmt.Errorf("%w: index %d", ErrEmptyStepName, i)
		}
		if seen[name] {
			return fmt.Errorf("%w: %s", ErrDuplicateStep, name)
		}
		seen[name] = true
	}

	return nil
}

// Names возвращает имена шагов в порядке выполнения.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.Steps))
	for i, step := range p.Steps {
		names[i] = step.Name()
	}
	return names
}
