package steps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shaiso/buildorch/internal/pipeline"
	"github.com/shaiso/buildorch/internal/toolchain"
)

// CompileOptions — параметры cmake --build.
type CompileOptions struct {
	BuildDir string
	Target   string
	Binary   string
	Profile  string
	Jobs     int
	Env      []string
}

// Compile — шаг cmake --build. Jobs передаётся сборщику как есть.
type Compile struct {
	opts   CompileOptions
	runner toolchain.Runner
}

// NewCompile создаёт шаг compile.
func NewCompile(opts CompileOptions, runner toolchain.Runner) *Compile {
	return &Compile{opts: opts, runner: runner}
}

func (s *Compile) Name() string               { return "compile" }
func (s *Compile) Kind() pipeline.FailureKind { return pipeline.CompileError }

func (s *Compile) Done(_ context.Context) (bool, error) {
	return executableExists(s.opts.Binary)
}

// Run пересобирает бинарник. Stamp smoke-теста относится к прежнему
// бинарнику и удаляется до запуска сборки.
func (s *Compile) Run(ctx context.Context) error {
	stamp := filepath.Join(s.opts.BuildDir, smokeStamp)
	if err := os.Remove(stamp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove smoke stamp: %w", err)
	}

	return s.runner.Run(ctx, toolchain.Command{
		Name: "cmake",
		Args: s.Args(),
		Env:  s.opts.Env,
	})
}

// Args возвращает аргументы cmake --build.
func (s *Compile) Args() []string {
	args := []string{
		"--build", s.opts.BuildDir,
		"--config", s.opts.Profile,
		"-j", strconv.Itoa(s.opts.Jobs),
	}
	if s.opts.Target != "" {
		args = append(args, "--target", s.opts.Target)
	}
	return args
}

func (s *Compile) Verify(_ context.Context) error {
	return requireMarker(s.opts.Binary, executableExists)
}
