package steps

import (
	"context"
	"fmt"

	"github.com/shaiso/buildorch/internal/pipeline"
)

// Fetcher получает исходники в директорию.
//
// Реализация: source.Git.
type Fetcher interface {
	Fetch(ctx context.Context, url, dir string) error
	IsCheckout(ctx context.Context, dir string) (bool, error)
}

// Clone — шаг получения исходников.
type Clone struct {
	url     string
	dir     string
	fetcher Fetcher
}

// NewClone создаёт шаг clone.
func NewClone(url, dir string, fetcher Fetcher) *Clone {
	return &Clone{url: url, dir: dir, fetcher: fetcher}
}

func (s *Clone) Name() string               { return "clone" }
func (s *Clone) Kind() pipeline.FailureKind { return pipeline.EnvironmentError }

// Done — checkout уже существует.
func (s *Clone) Done(ctx context.Context) (bool, error) {
	return s.fetcher.IsCheckout(ctx, s.dir)
}

func (s *Clone) Run(ctx context.Context) error {
	return s.fetcher.Fetch(ctx, s.url, s.dir)
}

func (s *Clone) Verify(ctx context.Context) error {
	ok, err := s.fetcher.IsCheckout(ctx, s.dir)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", pipeline.ErrMarkerMissing, s.dir)
	}
	return nil
}
