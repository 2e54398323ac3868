package toolchain

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// LookPath — поиск исполняемого файла; подменяется в тестах.
type LookPath func(file string) (string, error)

// Environment проверяет, что внешние инструменты сборки доступны.
type Environment struct {
	// CUDAHome — корень CUDA toolkit (обычно /usr/local/cuda).
	CUDAHome string

	// RequireCUDA — требовать nvcc. false для сборки без GPU.
	RequireCUDA bool

	// Tools — инструменты, которые должны быть в PATH (cmake).
	Tools []string

	lookPath LookPath
}

// NewEnvironment создаёт проверку окружения.
func NewEnvironment(cudaHome string, requireCUDA bool, tools ...string) *Environment {
	return &Environment{
		CUDAHome:    cudaHome,
		RequireCUDA: requireCUDA,
		Tools:       tools,
		lookPath:    exec.LookPath,
	}
}

// WithLookPath подменяет поиск в PATH.
func (e *Environment) WithLookPath(fn LookPath) *Environment {
	e.lookPath = fn
	return e
}

// Check проверяет окружение. Сигнатура совместима с pipeline.Check.
func (e *Environment) Check(_ context.Context) error {
	for _, tool := range e.Tools {
		if _, err := e.lookPath(tool); err != nil {
			return fmt.Errorf("%w: %s", ErrToolMissing, tool)
		}
	}

	if !e.RequireCUDA {
		return nil
	}

	if _, err := e.lookPath("nvcc"); err == nil {
		return nil
	}

	if e.CUDAHome != "" {
		nvcc := filepath.Join(e.CUDAHome, "bin", "nvcc")
		if info, err := os.Stat(nvcc); err == nil && !info.IsDir() {
			return nil
		}
	}

	return fmt.Errorf("%w: nvcc not in PATH and not under %s (source the toolkit environment first)", ErrToolkitMissing, e.CUDAHome)
}

// CUDAEnv возвращает переменные окружения для процессов сборки:
// CUDA_HOME и PATH с каталогом bin toolkit в начале.
func (e *Environment) CUDAEnv() []string {
	if !e.RequireCUDA || e.CUDAHome == "" {
		return nil
	}
	bin := filepath.Join(e.CUDAHome, "bin")
	return []string{
		"CUDA_HOME=" + e.CUDAHome,
		"PATH=" + bin + string(os.PathListSeparator) + os.Getenv("PATH"),
	}
}
