package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/buildorch/internal/domain"
	"github.com/shaiso/buildorch/internal/repo"
)

// ErrHistoryDisabled — BUILDORCH_DB_URL не задан.
var ErrHistoryDisabled = errors.New("run history is disabled: set BUILDORCH_DB_URL")

// NewHistoryCmd создаёт команду history.
//
// Без аргументов выводит последние runs, с аргументом RUN_ID — шаги run.
func NewHistoryCmd(cfgFn ConfigFunc, outputFn OutputFunc) *cobra.Command {
	var limit int
	var status string

	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "List recorded runs or show steps of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := cfgFn(ctx)
			if err != nil {
				return err
			}
			if cfg.Sinks.DatabaseURL == "" {
				return ErrHistoryDisabled
			}

			pool, err := repo.NewPool(ctx, cfg.Sinks.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			runRepo := repo.NewRunRepo(pool)
			out := outputFn(cmd)

			if len(args) == 1 {
				id, err := uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid run ID: %w", err)
				}

				rec, err := runRepo.GetByID(ctx, id)
				if err != nil {
					return fmt.Errorf("get run %s: %w", id, err)
				}

				out.Print(stepHeaders, stepRows(rec.Steps), rec)
				return nil
			}

			records, err := runRepo.List(ctx, limit)
			if err != nil {
				return err
			}
			records = filterByStatus(records, status)

			out.Print(runHeaders, runRows(records), records)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (RUNNING, SUCCEEDED, FAILED)")

	return cmd
}

var (
	runHeaders  = []string{"ID", "PIPELINE", "STATUS", "ACTIONS", "FAILED STEP", "STARTED", "DURATION"}
	stepHeaders = []string{"STEP", "STATUS", "KIND", "DURATION", "ERROR"}
)

func filterByStatus(records []repo.RunRecord, status string) []repo.RunRecord {
	if status == "" {
		return records
	}

	want := domain.ParseRunStatus(strings.ToUpper(status))
	filtered := records[:0]
	for _, r := range records {
		if r.Status == want {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func runRows(records []repo.RunRecord) [][]string {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			r.ID.String(),
			r.Pipeline,
			r.Status.String(),
			strconv.Itoa(r.Actions),
			dash(r.FailedStep),
			formatTime(r.StartedAt),
			r.Duration().Round(time.Second).String(),
		}
	}
	return rows
}

func stepRows(steps []domain.StepResult) [][]string {
	rows := make([][]string, len(steps))
	for i, s := range steps {
		rows[i] = []string{
			s.Name,
			string(s.Status),
			dash(s.Kind),
			s.Duration().Round(time.Second).String(),
			dash(s.Error),
		}
	}
	return rows
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}
