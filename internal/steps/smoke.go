package steps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shaiso/buildorch/internal/pipeline"
	"github.com/shaiso/buildorch/internal/toolchain"
)

// smokeStamp — файл-маркер успешного smoke-теста в директории сборки.
const smokeStamp = ".smoke-test.ok"

// ErrModelMissing — файл модели для smoke-теста не найден.
var ErrModelMissing = errors.New("model file not found")

// SmokeOptions — параметры smoke-теста.
type SmokeOptions struct {
	Binary    string
	BuildDir  string
	ModelPath string
	Prompt    string
	Tokens    int
	Env       []string
}

// SmokeTest запускает собранный бинарник с фиксированным промптом.
// Проверяется только код выхода, не ответ модели.
type SmokeTest struct {
	opts   SmokeOptions
	runner toolchain.Runner
	now    func() time.Time
}

// NewSmokeTest создаёт шаг smoke-test.
func NewSmokeTest(opts SmokeOptions, runner toolchain.Runner) *SmokeTest {
	return &SmokeTest{opts: opts, runner: runner, now: time.Now}
}

func (s *SmokeTest) Name() string               { return "smoke-test" }
func (s *SmokeTest) Kind() pipeline.FailureKind { return pipeline.SmokeTestError }

// Marker возвращает путь к stamp-файлу.
func (s *SmokeTest) Marker() string {
	return filepath.Join(s.opts.BuildDir, smokeStamp)
}

func (s *SmokeTest) Done(_ context.Context) (bool, error) {
	return fileExists(s.Marker())
}

func (s *SmokeTest) Run(ctx context.Context) error {
	ok, err := fileExists(s.opts.ModelPath)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrModelMissing, s.opts.ModelPath)
	}

	err = s.runner.Run(ctx, toolchain.Command{
		Name: s.opts.Binary,
		Args: s.Args(),
		Env:  s.opts.Env,
	})
	if err != nil {
		return err
	}

	stamp := fmt.Sprintf("binary=%s\nmodel=%s\nprompt=%s\nat=%s\n",
		s.opts.Binary, s.opts.ModelPath, s.opts.Prompt, s.now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(s.Marker(), []byte(stamp), 0o644); err != nil {
		return fmt.Errorf("write stamp: %w", err)
	}

	return nil
}

// Args возвращает аргументы бинарника: модель, промпт, число токенов,
// без интерактивного режима.
func (s *SmokeTest) Args() []string {
	return []string{
		"-m", s.opts.ModelPath,
		"-p", s.opts.Prompt,
		"-n", strconv.Itoa(s.opts.Tokens),
		"-no-cnv",
	}
}

func (s *SmokeTest) Verify(_ context.Context) error {
	return requireMarker(s.Marker(), fileExists)
}
