// buildorch — идемпотентная сборка llama.cpp с CUDA.
//
// Запуск без флагов выполняет фиксированный pipeline:
//
//	clone → configure → compile → smoke-test → install
//
// Шаги, чьи маркеры уже на диске, пропускаются. Код выхода 0 при успехе,
// 1 при падении любого шага.
//
// Команды:
//
//	plan     Показать, какие шаги будут выполнены
//	history  История runs (требует BUILDORCH_DB_URL)
//	schedule Периодический запуск pipeline по cron-выражению
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/buildorch/internal/cli"
	"github.com/shaiso/buildorch/internal/config"
	"github.com/shaiso/buildorch/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	logger := telemetry.SetupLogger()

	// SIGINT/SIGTERM завершают текущий процесс сборки
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = telemetry.WithLogger(ctx, logger)

	var jsonOutput bool

	cfgFn := cli.ConfigFunc(config.Load)
	outputFn := func(cmd *cobra.Command) *cli.Output {
		return cli.NewOutput(cmd.OutOrStdout(), cmd.ErrOrStderr(), jsonOutput)
	}

	rootCmd := &cobra.Command{
		Use:           "buildorch",
		Short:         "Idempotent llama.cpp CUDA build pipeline",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          cli.NewRunE(cfgFn, outputFn),
	}

	planCmd := cli.NewPlanCmd(cfgFn, outputFn)
	historyCmd := cli.NewHistoryCmd(cfgFn, outputFn)
	for _, c := range []*cobra.Command{planCmd, historyCmd} {
		c.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	}
	rootCmd.AddCommand(planCmd, historyCmd, cli.NewScheduleCmd(cfgFn))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cli.NewOutput(os.Stdout, os.Stderr, jsonOutput).Error(err.Error())
		cancel()
		os.Exit(1)
	}
}
