package steps

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/shaiso/buildorch/internal/pipeline"
	"github.com/shaiso/buildorch/internal/toolchain"
)

// cmakeCache — управляющий файл, который CMake создаёт при конфигурации.
const cmakeCache = "CMakeCache.txt"

// ConfigureOptions — параметры конфигурации CMake.
type ConfigureOptions struct {
	SourceDir         string
	BuildDir          string
	GPU               bool
	CUDAArchitectures string
	Profile           string
	Env               []string
}

// Configure — шаг cmake -S <src> -B <build>.
type Configure struct {
	opts   ConfigureOptions
	runner toolchain.Runner
}

// NewConfigure создаёт шаг configure.
func NewConfigure(opts ConfigureOptions, runner toolchain.Runner) *Configure {
	return &Configure{opts: opts, runner: runner}
}

func (s *Configure) Name() string               { return "configure" }
func (s *Configure) Kind() pipeline.FailureKind { return pipeline.ConfigurationError }

// Marker возвращает путь к CMakeCache.txt.
func (s *Configure) Marker() string {
	return filepath.Join(s.opts.BuildDir, cmakeCache)
}

func (s *Configure) Done(_ context.Context) (bool, error) {
	return fileExists(s.Marker())
}

func (s *Configure) Run(ctx context.Context) error {
	return s.runner.Run(ctx, toolchain.Command{
		Name: "cmake",
		Args: s.Args(),
		Env:  s.opts.Env,
	})
}

// Args возвращает аргументы cmake.
func (s *Configure) Args() []string {
	gpu := "OFF"
	if s.opts.GPU {
		gpu = "ON"
	}

	args := []string{
		"-S", s.opts.SourceDir,
		"-B", s.opts.BuildDir,
		"-DGGML_CUDA=" + gpu,
		"-DCMAKE_BUILD_TYPE=" + s.opts.Profile,
	}
	if s.opts.GPU && s.opts.CUDAArchitectures != "" {
		args = append(args, fmt.Sprintf("-DCMAKE_CUDA_ARCHITECTURES=%s", s.opts.CUDAArchitectures))
	}
	return args
}

func (s *Configure) Verify(_ context.Context) error {
	return requireMarker(s.Marker(), fileExists)
}
