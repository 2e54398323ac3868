package steps

import (
	"github.com/shaiso/buildorch/internal/config"
	"github.com/shaiso/buildorch/internal/pipeline"
	"github.com/shaiso/buildorch/internal/toolchain"
)

// PipelineName — имя pipeline в логах, метриках и истории.
const PipelineName = "llama-cuda"

// Deps — внешние зависимости шагов.
type Deps struct {
	// Runner запускает cmake и собранный бинарник.
	Runner toolchain.Runner

	// Fetcher клонирует исходники.
	Fetcher Fetcher

	// Environment — проверка окружения перед первым шагом. Может быть nil.
	Environment pipeline.Check

	// Env — переменные окружения для процессов сборки (CUDA_HOME, PATH).
	Env []string
}

// BuildPipeline собирает фиксированный pipeline:
// clone → configure → compile → smoke-test → install.
func BuildPipeline(cfg *config.Config, deps Deps) *pipeline.Pipeline {
	binary := cfg.Build.BinaryPath()

	steps := []pipeline.Step{
		NewClone(cfg.Source.RepoURL, cfg.Source.Dir, deps.Fetcher),
		NewConfigure(ConfigureOptions{
			SourceDir:         cfg.Source.Dir,
			BuildDir:          cfg.Build.Dir,
			GPU:               cfg.Build.GPU,
			CUDAArchitectures: cfg.Build.CUDAArchitectures,
			Profile:           cfg.Build.Profile,
			Env:               deps.Env,
		}, deps.Runner),
		NewCompile(CompileOptions{
			BuildDir: cfg.Build.Dir,
			Target:   cfg.Build.Binary,
			Binary:   binary,
			Profile:  cfg.Build.Profile,
			Jobs:     cfg.Build.EffectiveJobs(),
			Env:      deps.Env,
		}, deps.Runner),
		NewSmokeTest(SmokeOptions{
			Binary:    binary,
			BuildDir:  cfg.Build.Dir,
			ModelPath: cfg.Smoke.ModelPath,
			Prompt:    cfg.Smoke.Prompt,
			Tokens:    cfg.Smoke.Tokens,
			Env:       deps.Env,
		}, deps.Runner),
	}

	if cfg.Install.Enabled {
		steps = append(steps, NewInstall(binary, cfg.Install.Path, cfg.Install.Mode))
	}

	return pipeline.NewPipeline(PipelineName, steps...).WithEnvironment(deps.Environment)
}
