package steps

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/shaiso/buildorch/internal/config"
	"github.com/shaiso/buildorch/internal/domain"
	"github.com/shaiso/buildorch/internal/pipeline"
	"github.com/shaiso/buildorch/internal/toolchain"
)

// fakeRunner записывает вызовы и имитирует cmake / бинарник.
type fakeRunner struct {
	calls []toolchain.Command

	// skipBinary — compile не создаёт бинарник.
	skipBinary bool
	// smokeErr — код выхода бинарника.
	smokeErr error
}

func (r *fakeRunner) Run(_ context.Context, cmd toolchain.Command) error {
	r.calls = append(r.calls, cmd)

	if cmd.Name != "cmake" {
		return r.smokeErr
	}

	switch cmd.Args[0] {
	case "-S":
		buildDir := cmd.Args[3]
		if err := os.MkdirAll(buildDir, 0o755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(buildDir, "CMakeCache.txt"), []byte("# cache\n"), 0o644)
	case "--build":
		if r.skipBinary {
			return nil
		}
		binDir := filepath.Join(cmd.Args[1], "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(binDir, "llama-cli"), []byte("#!/bin/sh\n"), 0o755)
	}
	return nil
}

// fakeFetcher создаёт директорию с .git вместо настоящего clone.
type fakeFetcher struct {
	fetched int
}

func (f *fakeFetcher) Fetch(_ context.Context, _, dir string) error {
	f.fetched++
	return os.MkdirAll(filepath.Join(dir, ".git"), 0o755)
}

func (f *fakeFetcher) IsCheckout(_ context.Context, dir string) (bool, error) {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	root := t.TempDir()
	model := filepath.Join(root, "models", "model.gguf")
	if err := os.MkdirAll(filepath.Dir(model), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(model, []byte("gguf"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.LoadFrom(context.Background(), map[string]string{
		"BUILDORCH_SOURCE_DIR":   filepath.Join(root, "llama.cpp"),
		"BUILDORCH_BUILD_DIR":    filepath.Join(root, "llama.cpp", "build"),
		"BUILDORCH_MODEL_PATH":   model,
		"BUILDORCH_INSTALL_PATH": filepath.Join(root, "bin", "llama-cli"),
		"BUILDORCH_JOBS":         "8",
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func newOrchestrator() *pipeline.Orchestrator {
	return pipeline.New(pipeline.Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
}

func TestPipeline_FreshEnvironment(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{}
	fetcher := &fakeFetcher{}
	p := BuildPipeline(cfg, Deps{Runner: runner, Fetcher: fetcher})

	run, err := newOrchestrator().Run(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if run.Status != domain.RunStatusSucceeded || run.Actions != 5 {
		t.Errorf("expected SUCCEEDED with 5 actions, got %s/%d", run.Status, run.Actions)
	}
	if fetcher.fetched != 1 {
		t.Errorf("expected 1 clone, got %d", fetcher.fetched)
	}
	if len(runner.calls) != 3 {
		t.Fatalf("expected 3 process calls (configure, compile, smoke), got %d", len(runner.calls))
	}

	configure := runner.calls[0]
	if !slices.Contains(configure.Args, "-DGGML_CUDA=ON") || !slices.Contains(configure.Args, "-DCMAKE_CUDA_ARCHITECTURES=86;89") {
		t.Errorf("unexpected configure args: %v", configure.Args)
	}

	compile := runner.calls[1]
	if !slices.Contains(compile.Args, "8") || !slices.Contains(compile.Args, "Release") {
		t.Errorf("unexpected compile args: %v", compile.Args)
	}

	smoke := runner.calls[2]
	if smoke.Name != cfg.Build.BinaryPath() {
		t.Errorf("smoke test should run the built binary, got %s", smoke.Name)
	}
	if !slices.Contains(smoke.Args, "Are you alive?") || !slices.Contains(smoke.Args, cfg.Smoke.ModelPath) {
		t.Errorf("unexpected smoke args: %v", smoke.Args)
	}

	info, err := os.Stat(cfg.Install.Path)
	if err != nil {
		t.Fatalf("installed binary missing: %v", err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Error("installed binary should be executable")
	}
}

func TestPipeline_EverythingPresent(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{}
	fetcher := &fakeFetcher{}
	orch := newOrchestrator()

	if _, err := orch.Run(context.Background(), BuildPipeline(cfg, Deps{Runner: runner, Fetcher: fetcher})); err != nil {
		t.Fatalf("first run: %v", err)
	}

	second := &fakeRunner{}
	secondFetcher := &fakeFetcher{}
	run, err := orch.Run(context.Background(), BuildPipeline(cfg, Deps{Runner: second, Fetcher: secondFetcher}))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(second.calls) != 0 || secondFetcher.fetched != 0 {
		t.Errorf("expected zero external invocations, got %d calls, %d fetches", len(second.calls), secondFetcher.fetched)
	}
	if run.Skipped() != 5 || run.Actions != 0 {
		t.Errorf("expected all 5 skipped, got skipped=%d actions=%d", run.Skipped(), run.Actions)
	}
}

func TestPipeline_CompileMissingBinary(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{skipBinary: true}
	p := BuildPipeline(cfg, Deps{Runner: runner, Fetcher: &fakeFetcher{}})

	run, err := newOrchestrator().Run(context.Background(), p)

	failure, ok := pipeline.AsStepFailure(err)
	if !ok {
		t.Fatalf("expected StepFailure, got %v", err)
	}
	if failure.Kind != pipeline.CompileError || failure.Step != "compile" {
		t.Errorf("expected compile/CompileError, got %s/%s", failure.Step, failure.Kind)
	}
	if !errors.Is(err, pipeline.ErrMarkerMissing) {
		t.Error("expected ErrMarkerMissing in chain")
	}
	if len(runner.calls) != 2 {
		t.Errorf("smoke test must not run, got %d calls", len(runner.calls))
	}
	if run.Step("install").Status != domain.StepStatusPending {
		t.Error("install must never run")
	}
	if _, err := os.Lstat(cfg.Install.Path); !errors.Is(err, os.ErrNotExist) {
		t.Error("nothing should be installed")
	}
}

func TestPipeline_SmokeTestFailure(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{smokeErr: &toolchain.ExitError{Command: "llama-cli", Code: 1}}
	p := BuildPipeline(cfg, Deps{Runner: runner, Fetcher: &fakeFetcher{}})

	_, err := newOrchestrator().Run(context.Background(), p)

	failure, ok := pipeline.AsStepFailure(err)
	if !ok || failure.Kind != pipeline.SmokeTestError {
		t.Fatalf("expected SmokeTestError, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Build.Dir, smokeStamp)); !errors.Is(err, os.ErrNotExist) {
		t.Error("stamp must not be written on failure")
	}
}

func TestPipeline_InstallDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Install.Enabled = false

	p := BuildPipeline(cfg, Deps{Runner: &fakeRunner{}, Fetcher: &fakeFetcher{}})
	if slices.Contains(p.Names(), "install") {
		t.Errorf("install should be omitted, got %v", p.Names())
	}
}

func TestConfigure_Args_CPU(t *testing.T) {
	s := NewConfigure(ConfigureOptions{
		SourceDir:         "src",
		BuildDir:          "build",
		GPU:               false,
		CUDAArchitectures: "86",
		Profile:           "Debug",
	}, nil)

	args := s.Args()
	if !slices.Contains(args, "-DGGML_CUDA=OFF") {
		t.Errorf("expected GGML_CUDA=OFF: %v", args)
	}
	for _, a := range args {
		if a == "-DCMAKE_CUDA_ARCHITECTURES=86" {
			t.Error("architectures are irrelevant without GPU")
		}
	}
}

func TestSmokeTest_ModelMissing(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}
	s := NewSmokeTest(SmokeOptions{
		Binary:    filepath.Join(dir, "llama-cli"),
		BuildDir:  dir,
		ModelPath: filepath.Join(dir, "missing.gguf"),
		Prompt:    "Are you alive?",
		Tokens:    16,
	}, runner)

	err := s.Run(context.Background())
	if !errors.Is(err, ErrModelMissing) {
		t.Errorf("expected ErrModelMissing, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Error("binary must not be invoked without a model")
	}
}

func TestInstall_Symlink(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "llama-cli")
	if err := os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(dir, "usr", "bin", "llama-cli")

	s := NewInstall(binary, dest, config.InstallSymlink)
	ctx := context.Background()

	if done, _ := s.Done(ctx); done {
		t.Fatal("should not be done before install")
	}
	if err := s.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := s.Verify(ctx); err != nil {
		t.Fatalf("verify: %v", err)
	}

	target, err := os.Readlink(dest)
	if err != nil || target != binary {
		t.Errorf("expected symlink to %s, got %s (%v)", binary, target, err)
	}
}

func TestCompile_NonExecutableIsNotDone(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "llama-cli")
	if err := os.WriteFile(binary, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewCompile(CompileOptions{BuildDir: dir, Binary: binary, Profile: "Release", Jobs: 1}, nil)

	done, err := s.Done(context.Background())
	if err != nil || done {
		t.Errorf("non-executable file should not count as built: done=%v err=%v", done, err)
	}
	if err := s.Verify(context.Background()); !errors.Is(err, pipeline.ErrMarkerMissing) {
		t.Errorf("expected ErrMarkerMissing, got %v", err)
	}
}

func TestPipeline_RebuildRerunsSmokeTest(t *testing.T) {
	cfg := testConfig(t)
	orch := newOrchestrator()

	if _, err := orch.Run(context.Background(), BuildPipeline(cfg, Deps{Runner: &fakeRunner{}, Fetcher: &fakeFetcher{}})); err != nil {
		t.Fatalf("first run: %v", err)
	}

	if err := os.Remove(cfg.Build.BinaryPath()); err != nil {
		t.Fatal(err)
	}

	runner := &fakeRunner{}
	run, err := orch.Run(context.Background(), BuildPipeline(cfg, Deps{Runner: runner, Fetcher: &fakeFetcher{}}))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if got := run.Step("compile").Status; got != domain.StepStatusSucceeded {
		t.Errorf("compile: expected SUCCEEDED, got %s", got)
	}
	if got := run.Step("smoke-test").Status; got != domain.StepStatusSucceeded {
		t.Errorf("smoke-test: expected SUCCEEDED after rebuild, got %s", got)
	}

	smokeCalls := 0
	for _, c := range runner.calls {
		if c.Name == cfg.Build.BinaryPath() {
			smokeCalls++
		}
	}
	if smokeCalls != 1 {
		t.Errorf("expected 1 smoke invocation after rebuild, got %d", smokeCalls)
	}
}

func TestInstall_DanglingSymlinkIsNotDone(t *testing.T) {
	for _, mode := range []string{config.InstallSymlink, config.InstallCopy} {
		t.Run(mode, func(t *testing.T) {
			dir := t.TempDir()
			binary := filepath.Join(dir, "llama-cli")
			if err := os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755); err != nil {
				t.Fatal(err)
			}
			dest := filepath.Join(dir, "bin", "llama-cli")
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.Symlink(filepath.Join(dir, "gone"), dest); err != nil {
				t.Fatal(err)
			}

			s := NewInstall(binary, dest, mode)
			ctx := context.Background()

			done, err := s.Done(ctx)
			if err != nil || done {
				t.Fatalf("dangling symlink should not count as installed: done=%v err=%v", done, err)
			}
			if err := s.Run(ctx); err != nil {
				t.Fatalf("run: %v", err)
			}
			if err := s.Verify(ctx); err != nil {
				t.Fatalf("verify: %v", err)
			}
		})
	}
}
