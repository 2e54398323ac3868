package steps

import (
	"errors"
	"fmt"
	"os"

	"github.com/shaiso/buildorch/internal/pipeline"
)

// fileExists сообщает, существует ли обычный файл.
// Ошибки, отличные от отсутствия файла, возвращаются.
func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("%s is a directory", path)
	}
	return true, nil
}

// executableExists сообщает, существует ли исполняемый файл.
func executableExists(path string) (bool, error) {
	ok, err := fileExists(path)
	if err != nil || !ok {
		return ok, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Mode().Perm()&0o111 != 0, nil
}

// requireMarker — общая реализация Verify.
func requireMarker(path string, check func(string) (bool, error)) error {
	ok, err := check(path)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", pipeline.ErrMarkerMissing, path)
	}
	return nil
}
