package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shaiso/buildorch/internal/config"
	"github.com/shaiso/buildorch/internal/domain"
	"github.com/shaiso/buildorch/internal/mq"
	"github.com/shaiso/buildorch/internal/pipeline"
	"github.com/shaiso/buildorch/internal/repo"
	"github.com/shaiso/buildorch/internal/source"
	"github.com/shaiso/buildorch/internal/steps"
	"github.com/shaiso/buildorch/internal/telemetry"
	"github.com/shaiso/buildorch/internal/toolchain"
)

// App — собранный pipeline со всеми зависимостями.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *pipeline.Pipeline
	orch     *pipeline.Orchestrator
	metrics  *telemetry.Metrics

	closers []func() error
}

// Option настраивает App (используется в тестах).
type Option func(*appOptions)

type appOptions struct {
	runner      toolchain.Runner
	fetcher     steps.Fetcher
	environment pipeline.Check
	envSet      bool
	readOnly    bool
}

// WithRunner подменяет запуск внешних процессов.
func WithRunner(r toolchain.Runner) Option {
	return func(o *appOptions) { o.runner = r }
}

// WithFetcher подменяет получение исходников.
func WithFetcher(f steps.Fetcher) Option {
	return func(o *appOptions) { o.fetcher = f }
}

// WithEnvironment подменяет проверку окружения. nil отключает проверку.
func WithEnvironment(check pipeline.Check) Option {
	return func(o *appOptions) {
		o.environment = check
		o.envSet = true
	}
}

// readOnly не открывает журнал сборки и не подключает историю и
// события (для plan).
func readOnly() Option {
	return func(o *appOptions) { o.readOnly = true }
}

// NewApp собирает pipeline по конфигурации.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{
		cfg:     cfg,
		logger:  logger,
		metrics: telemetry.NewMetrics(steps.PipelineName, logger),
	}

	var buildLog io.Writer
	if cfg.Build.LogFile != "" && !o.readOnly {
		f, err := os.OpenFile(cfg.Build.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open build log: %w", err)
		}
		app.closers = append(app.closers, f.Close)
		buildLog = f
	}

	env := toolchain.NewEnvironment(cfg.CUDAHome, cfg.Build.GPU, "cmake")

	if o.runner == nil {
		o.runner = toolchain.NewExecRunner(logger, buildLog)
	}
	if o.fetcher == nil {
		git := source.NewGit(logger, buildLog)
		git.Branch = cfg.Source.Branch
		o.fetcher = git
	}
	if !o.envSet {
		o.environment = env.Check
	}

	app.pipeline = steps.BuildPipeline(cfg, steps.Deps{
		Runner:      o.runner,
		Fetcher:     o.fetcher,
		Environment: o.environment,
		Env:         env.CUDAEnv(),
	})

	observers := pipeline.Observers{app.metrics}
	if !o.readOnly {
		observers = append(observers, app.connectSinks(ctx)...)
	}

	app.orch = pipeline.New(pipeline.Config{
		Observer: observers,
		Logger:   logger,
	})

	return app, nil
}

// connectSinks подключает историю и события. Недоступность не фатальна.
func (a *App) connectSinks(ctx context.Context) []pipeline.Observer {
	var observers []pipeline.Observer

	if url := a.cfg.Sinks.DatabaseURL; url != "" {
		if h, err := a.connectHistory(ctx, url); err != nil {
			a.logger.Warn("run history disabled", "error", err)
		} else {
			observers = append(observers, h)
		}
	}

	if url := a.cfg.Sinks.RabbitMQURL; url != "" {
		conn, err := mq.NewConnection(url, a.logger)
		if err != nil {
			a.logger.Warn("RabbitMQ not available, events disabled", "error", err)
		} else {
			a.closers = append(a.closers, conn.Close)
			if err := mq.SetupTopology(ctx, conn); err != nil {
				a.logger.Warn("failed to setup topology", "error", err)
			}
			observers = append(observers, mq.NewPublisher(conn, steps.PipelineName, a.logger))
		}
	}

	return observers
}

func (a *App) connectHistory(ctx context.Context, url string) (*repo.History, error) {
	pool, err := repo.NewPool(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := repo.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	a.closers = append(a.closers, func() error {
		pool.Close()
		return nil
	})

	return repo.NewHistory(steps.PipelineName, repo.NewRunRepo(pool), repo.NewStepRepo(pool), a.logger), nil
}

// Run выполняет pipeline и, если задан Pushgateway, отправляет метрики.
func (a *App) Run(ctx context.Context) (*domain.Run, error) {
	run, err := a.orch.Run(ctx, a.pipeline)

	if url := a.cfg.Sinks.PushgatewayURL; url != "" {
		if perr := a.metrics.Push(context.WithoutCancel(ctx), url); perr != nil {
			a.logger.Warn("metrics push failed", "error", perr)
		}
	}

	return run, err
}

// Plan проверяет маркеры без выполнения action.
func (a *App) Plan(ctx context.Context) ([]pipeline.PlanEntry, error) {
	return a.orch.Plan(ctx, a.pipeline)
}

// Close освобождает ресурсы в обратном порядке.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close", "error", err)
		}
	}
	a.closers = nil
}
