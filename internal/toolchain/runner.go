package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// defaultTailLines — сколько последних строк вывода хранить для ExitError.
const defaultTailLines = 20

// Command — описание вызова внешнего процесса.
//
// Все параметры передаются явно: рабочая директория и переменные
// окружения не наследуются из состояния shell.
type Command struct {
	// Name — исполняемый файл.
	Name string

	// Args — аргументы.
	Args []string

	// Dir — рабочая директория. Пустая — текущая директория процесса.
	Dir string

	// Env — дополнительные переменные окружения KEY=VALUE.
	Env []string
}

// String возвращает командную строку для логов.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, a := range c.Args {
		if strings.ContainsAny(a, " \t;") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Runner запускает внешний процесс и ждёт его завершения.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner — Runner на основе os/exec.
type ExecRunner struct {
	logger    *slog.Logger
	log       io.Writer
	tailLines int
}

// NewExecRunner создаёт ExecRunner. log может быть nil.
func NewExecRunner(logger *slog.Logger, log io.Writer) *ExecRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecRunner{
		logger:    logger,
		log:       log,
		tailLines: defaultTailLines,
	}
}

// Run запускает процесс. Отмена ctx убивает процесс.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = append(os.Environ(), cmd.Env...)

	out := newLineWriter(r.logger.With("cmd", cmd.Name), r.log, r.tailLines)
	c.Stdout = out
	c.Stderr = out

	r.logger.Info("exec", "cmd", cmd.String(), "dir", cmd.Dir)

	err := c.Run()
	out.Flush()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{
			Command: cmd.String(),
			Code:    exitErr.ExitCode(),
			Tail:    out.Tail(),
			Err:     err,
		}
	}

	return fmt.Errorf("run %s: %w", cmd.Name, err)
}

// lineWriter режет поток на строки, логирует их и хранит хвост.
type lineWriter struct {
	logger *slog.Logger
	log    io.Writer
	limit  int

	mu   sync.Mutex
	buf  bytes.Buffer
	tail []string
}

func newLineWriter(logger *slog.Logger, log io.Writer, limit int) *lineWriter {
	return &lineWriter{
		logger: logger,
		log:    log,
		limit:  limit,
	}
}

// Write реализует io.Writer. stdout и stderr пишут в один writer,
// поэтому доступ сериализован.
func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.log != nil {
		if _, err := w.log.Write(p); err != nil {
			w.logger.Warn("write build log", "error", err)
			w.log = nil
		}
	}

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// неполная строка — вернуть в буфер
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.emit(strings.TrimRight(line, "\r\n"))
	}

	return len(p), nil
}

// Flush выдаёт остаток без завершающего перевода строки.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}

func (w *lineWriter) emit(line string) {
	w.logger.Debug(line)

	if w.limit <= 0 {
		return
	}
	if len(w.tail) == w.limit {
		w.tail = w.tail[1:]
	}
	w.tail = append(w.tail, line)
}

// Tail возвращает копию последних строк.
func (w *lineWriter) Tail() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, len(w.tail))
	copy(out, w.tail)
	return out
}
