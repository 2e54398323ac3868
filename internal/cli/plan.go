package cli

import (
	"github.com/spf13/cobra"

	"github.com/shaiso/buildorch/internal/telemetry"
)

// NewPlanCmd создаёт команду plan.
func NewPlanCmd(cfgFn ConfigFunc, outputFn OutputFunc, opts ...Option) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show which steps would run without running them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := cfgFn(ctx)
			if err != nil {
				return err
			}

			app, err := NewApp(ctx, cfg, telemetry.FromContext(ctx), append(opts, readOnly())...)
			if err != nil {
				return err
			}
			defer app.Close()

			entries, err := app.Plan(ctx)
			if err != nil {
				return err
			}

			headers := []string{"STEP", "ACTION", "NOTE"}
			rows := make([][]string, len(entries))
			for i, e := range entries {
				action := "skip"
				if e.WillRun {
					action = "run"
				}
				rows[i] = []string{e.Step, action, e.Error}
			}

			outputFn(cmd).Print(headers, rows, entries)
			return nil
		},
	}
}
