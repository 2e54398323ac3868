package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/shaiso/buildorch/internal/scheduler"
	"github.com/shaiso/buildorch/internal/telemetry"
)

// NewScheduleCmd создаёт команду schedule: периодический запуск pipeline.
func NewScheduleCmd(cfgFn ConfigFunc, opts ...Option) *cobra.Command {
	var cronExpr, addr string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline periodically until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := telemetry.FromContext(ctx)

			cfg, err := cfgFn(ctx)
			if err != nil {
				return err
			}
			if cronExpr == "" {
				cronExpr = cfg.Schedule.Cron
			}
			if addr == "" {
				addr = cfg.Schedule.MetricsAddr
			}

			app, err := NewApp(ctx, cfg, logger, opts...)
			if err != nil {
				return err
			}
			defer app.Close()

			sched, err := scheduler.New(scheduler.Config{
				Cron:     cronExpr,
				Timezone: cfg.Schedule.Timezone,
				Job:      app,
				Logger:   logger,
			})
			if err != nil {
				return err
			}

			if addr != "" {
				srv := app.metricsServer(addr)
				go func() {
					logger.Info("listening", "addr", addr)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("http server error", "error", err)
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
			}

			return sched.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&cronExpr, "cron", "", "Cron expression or descriptor (default BUILDORCH_SCHEDULE)")
	cmd.Flags().StringVar(&addr, "metrics-addr", "", "Serve /healthz and /metrics on this address (default BUILDORCH_METRICS_ADDR)")

	return cmd
}

// metricsServer отдаёт /healthz и /metrics с метриками run.
func (a *App) metricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(a.metrics.Registry(), promhttp.HandlerOpts{}))

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
