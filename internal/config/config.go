// Package config загружает параметры pipeline из переменных окружения.
//
// Значения по умолчанию — фиксированные константы сборки, поэтому
// запуск без флагов и без переменных полностью детерминирован.
package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/sethvargo/go-envconfig"
)

// Ошибки конфигурации.
var (
	// ErrInvalidConfig — конфигурация не прошла валидацию.
	ErrInvalidConfig = errors.New("invalid config")
)

// Режимы установки бинарника.
const (
	InstallCopy    = "copy"
	InstallSymlink = "symlink"
)

// Source — откуда брать исходники.
type Source struct {
	RepoURL string `env:"REPO_URL, default=https://github.com/ggml-org/llama.cpp"`
	Dir     string `env:"SOURCE_DIR, default=llama.cpp"`
	Branch  string `env:"BRANCH"`
}

// Build — параметры configure и compile.
type Build struct {
	Dir               string `env:"BUILD_DIR, default=llama.cpp/build"`
	GPU               bool   `env:"GPU, default=true"`
	CUDAArchitectures string `env:"CUDA_ARCHITECTURES, default=86;89"`
	Jobs              int    `env:"JOBS, default=0"`
	Profile           string `env:"PROFILE, default=Release"`
	Binary            string `env:"BINARY, default=llama-cli"`
	LogFile           string `env:"LOG_FILE"`
}

// Smoke — параметры smoke-теста.
type Smoke struct {
	ModelPath string `env:"MODEL_PATH, default=models/Qwen3-1.7B-BF16.gguf"`
	Prompt    string `env:"PROMPT, default=Are you alive?"`
	Tokens    int    `env:"SMOKE_TOKENS, default=16"`
}

// Install — параметры установки.
type Install struct {
	Enabled bool   `env:"INSTALL, default=true"`
	Path    string `env:"INSTALL_PATH, default=/usr/local/bin/llama-cli"`
	Mode    string `env:"INSTALL_MODE, default=copy"`
}

// Sinks — необязательные получатели событий run.
type Sinks struct {
	DatabaseURL    string `env:"DB_URL"`
	RabbitMQURL    string `env:"RABBITMQ_URL"`
	PushgatewayURL string `env:"PUSHGATEWAY_URL"`
}

// Schedule — периодический запуск pipeline (команда schedule).
type Schedule struct {
	Cron        string `env:"SCHEDULE, default=@daily"`
	Timezone    string `env:"SCHEDULE_TZ, default=UTC"`
	MetricsAddr string `env:"METRICS_ADDR"`
}

// Config — полная конфигурация buildorch.
type Config struct {
	Source   Source   `env:",prefix=BUILDORCH_"`
	Build    Build    `env:",prefix=BUILDORCH_"`
	Smoke    Smoke    `env:",prefix=BUILDORCH_"`
	Install  Install  `env:",prefix=BUILDORCH_"`
	Sinks    Sinks    `env:",prefix=BUILDORCH_"`
	Schedule Schedule `env:",prefix=BUILDORCH_"`

	CUDAHome string `env:"CUDA_HOME, default=/usr/local/cuda"`
}

// Load читает конфигурацию из окружения процесса.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

// LoadFrom читает конфигурацию из заданного набора переменных.
func LoadFrom(ctx context.Context, env map[string]string) (*Config, error) {
	return load(ctx, envconfig.MapLookuper(env))
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	})
	if err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет значения конфигурации.
func (c *Config) Validate() error {
	switch {
	case c.Source.RepoURL == "":
		return fmt.Errorf("%w: repository URL is empty", ErrInvalidConfig)
	case c.Source.Dir == "":
		return fmt.Errorf("%w: source dir is empty", ErrInvalidConfig)
	case c.Build.Dir == "":
		return fmt.Errorf("%w: build dir is empty", ErrInvalidConfig)
	case c.Build.Binary == "":
		return fmt.Errorf("%w: binary name is empty", ErrInvalidConfig)
	case c.Build.Jobs < 0:
		return fmt.Errorf("%w: jobs must be >= 0, got %d", ErrInvalidConfig, c.Build.Jobs)
	case c.Smoke.Tokens <= 0:
		return fmt.Errorf("%w: smoke tokens must be > 0, got %d", ErrInvalidConfig, c.Smoke.Tokens)
	case c.Install.Enabled && c.Install.Path == "":
		return fmt.Errorf("%w: install path is empty", ErrInvalidConfig)
	}

	switch c.Install.Mode {
	case InstallCopy, InstallSymlink:
	default:
		return fmt.Errorf("%w: unknown install mode %q", ErrInvalidConfig, c.Install.Mode)
	}

	return nil
}

// EffectiveJobs возвращает степень параллелизма компиляции.
// 0 означает количество CPU.
func (b Build) EffectiveJobs() int {
	if b.Jobs > 0 {
		return b.Jobs
	}
	return runtime.NumCPU()
}

// BinaryPath возвращает путь к собранному бинарнику.
func (b Build) BinaryPath() string {
	return filepath.Join(b.Dir, "bin", b.Binary)
}
