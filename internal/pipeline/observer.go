package pipeline

import (
	"context"

	"github.com/shaiso/buildorch/internal/domain"
)

// Observer получает уведомления о ходе run.
//
// Реализации (история в Postgres, события в RabbitMQ, метрики) работают
// в режиме best-effort: свои ошибки они логируют сами и не влияют на
// результат run.
type Observer interface {
	RunStarted(ctx context.Context, run *domain.Run)
	StepFinished(ctx context.Context, run *domain.Run, step *domain.StepResult)
	RunFinished(ctx context.Context, run *domain.Run)
}

// Observers рассылает уведомления всем наблюдателям по порядку.
type Observers []Observer

func (o Observers) RunStarted(ctx context.Context, run *domain.Run) {
	for _, obs := range o {
		obs.RunStarted(ctx, run)
	}
}

func (o Observers) StepFinished(ctx context.Context, run *domain.Run, step *domain.StepResult) {
	for _, obs := range o {
		obs.StepFinished(ctx, run, step)
	}
}

func (o Observers) RunFinished(ctx context.Context, run *domain.Run) {
	for _, obs := range o {
		obs.RunFinished(ctx, run)
	}
}
