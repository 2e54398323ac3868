package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/shaiso/buildorch/internal/config"
	"github.com/shaiso/buildorch/internal/telemetry"
)

// ConfigFunc загружает конфигурацию при выполнении команды.
type ConfigFunc func(ctx context.Context) (*config.Config, error)

// OutputFunc создаёт Output для команды.
type OutputFunc func(cmd *cobra.Command) *Output

// NewRunE возвращает действие корневой команды: запуск pipeline.
//
// Итог run печатается в stderr. Ошибка (в том числе *pipeline.StepFailure)
// возвращается вызывающему, который печатает её и выходит с кодом 1.
func NewRunE(cfgFn ConfigFunc, outputFn OutputFunc, opts ...Option) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := telemetry.FromContext(ctx)

		cfg, err := cfgFn(ctx)
		if err != nil {
			return err
		}

		app, err := NewApp(ctx, cfg, logger, opts...)
		if err != nil {
			return err
		}
		defer app.Close()

		run, err := app.Run(ctx)
		if run != nil {
			outputFn(cmd).Summary(run)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Warn("run interrupted")
			}
			return err
		}

		return nil
	}
}
