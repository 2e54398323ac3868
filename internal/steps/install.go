package steps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shaiso/buildorch/internal/config"
	"github.com/shaiso/buildorch/internal/pipeline"
)

// Install копирует или линкует собранный бинарник в системный путь.
type Install struct {
	binary string
	dest   string
	mode   string
}

// NewInstall создаёт шаг install. mode — config.InstallCopy или config.InstallSymlink.
func NewInstall(binary, dest, mode string) *Install {
	return &Install{binary: binary, dest: dest, mode: mode}
}

func (s *Install) Name() string               { return "install" }
func (s *Install) Kind() pipeline.FailureKind { return pipeline.InstallError }

// Done — по пути установки исполняемый файл. Symlink проверяется по
// цели: висячая ссылка не считается установкой.
func (s *Install) Done(_ context.Context) (bool, error) {
	return executableExists(s.dest)
}

func (s *Install) Run(_ context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.dest), 0o755); err != nil {
		return fmt.Errorf("create install dir: %w", err)
	}
	if err := removeStaleLink(s.dest); err != nil {
		return err
	}

	if s.mode == config.InstallSymlink {
		src, err := filepath.Abs(s.binary)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", s.binary, err)
		}
		if err := os.Symlink(src, s.dest); err != nil {
			return fmt.Errorf("symlink: %w", err)
		}
		return nil
	}

	return copyExecutable(s.binary, s.dest)
}

func (s *Install) Verify(_ context.Context) error {
	return requireMarker(s.dest, executableExists)
}

// removeStaleLink удаляет symlink по пути установки, оставшийся от
// прошлой установки.
func removeStaleLink(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("lstat %s: %w", path, err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return nil
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove stale link: %w", err)
	}
	return nil
}

// copyExecutable копирует через временный файл и rename, чтобы по пути
// установки никогда не оказался частично записанный бинарник.
func copyExecutable(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("copy: %w", err)
	}
	if err := tmp.Chmod(0o755); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
