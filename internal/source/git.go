// Package source получает исходники внешнего проекта через go-git.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Ошибки получения исходников.
var (
	// ErrNotCheckout — директория существует, но не является git checkout.
	ErrNotCheckout = errors.New("directory exists but is not a git checkout")
)

// Git клонирует репозитории.
type Git struct {
	// Depth — глубина shallow clone. 0 — полная история.
	Depth int

	// Branch — ветка. Пустая — ветка по умолчанию.
	Branch string

	// Progress — куда писать прогресс клонирования. Может быть nil.
	Progress io.Writer

	logger *slog.Logger
}

// NewGit создаёт клиент с shallow clone глубины 1.
func NewGit(logger *slog.Logger, progress io.Writer) *Git {
	if logger == nil {
		logger = slog.Default()
	}
	return &Git{
		Depth:    1,
		Progress: progress,
		logger:   logger,
	}
}

// Fetch клонирует url в dir. dir не должен существовать.
func (g *Git) Fetch(ctx context.Context, url, dir string) error {
	opts := &git.CloneOptions{
		URL:      url,
		Depth:    g.Depth,
		Progress: g.Progress,
	}
	if g.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(g.Branch)
		opts.SingleBranch = true
	}

	g.logger.Info("cloning repository", "url", url, "dir", dir, "branch", g.Branch, "depth", g.Depth)

	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		return fmt.Errorf("clone %s: %w", url, err)
	}

	if head, err := repo.Head(); err == nil {
		g.logger.Info("repository cloned", "url", url, "commit", head.Hash().String()[:8])
	}

	return nil
}

// IsCheckout сообщает, есть ли в dir git checkout.
//
// Возвращает (false, nil), если dir не существует, и ErrNotCheckout,
// если dir существует, но репозиторий не открывается.
func (g *Git) IsCheckout(_ context.Context, dir string) (bool, error) {
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", dir, err)
	}

	if _, err := git.PlainOpen(dir); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrNotCheckout, dir, err)
	}

	return true, nil
}
