package toolchain

import (
	"errors"
	"fmt"
	"strings"
)

// Ошибки окружения.
var (
	// ErrToolMissing — инструмент не найден в PATH.
	ErrToolMissing = errors.New("required tool not found")

	// ErrToolkitMissing — CUDA toolkit не найден.
	ErrToolkitMissing = errors.New("CUDA toolkit not found")
)

// ExitError — процесс завершился с ненулевым кодом.
type ExitError struct {
	// Command — командная строка.
	Command string

	// Code — код выхода (-1, если процесс убит сигналом).
	Code int

	// Tail — последние строки вывода процесса.
	Tail []string

	// Err — исходная ошибка exec.
	Err error
}

// Error реализует error.
func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Command, e.Code)
	if len(e.Tail) > 0 {
		msg += "\n" + strings.Join(e.Tail, "\n")
	}
	return msg
}

// Unwrap возвращает исходную ошибку.
func (e *ExitError) Unwrap() error {
	return e.Err
}
