package repo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/buildorch/internal/domain"
)

func TestNullString(t *testing.T) {
	if nullString("") != nil {
		t.Error("empty string should be NULL")
	}
	if s := nullString("compile"); s == nil || *s != "compile" {
		t.Error("non-empty string should be kept")
	}
}

// Интеграционный тест: нужен Postgres в BUILDORCH_TEST_DB_URL.
func TestHistory_Integration(t *testing.T) {
	dsn := os.Getenv("BUILDORCH_TEST_DB_URL")
	if dsn == "" {
		t.Skip("BUILDORCH_TEST_DB_URL not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	defer pool.Close()

	if err := EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("schema: %v", err)
	}

	runs := NewRunRepo(pool)
	h := NewHistory("test", runs, NewStepRepo(pool), slog.New(slog.NewTextHandler(io.Discard, nil)))

	run := domain.NewRun([]string{"clone", "compile"})
	run.MarkRunning()
	h.RunStarted(ctx, run)

	run.Steps[0].MarkSkipped()
	h.StepFinished(ctx, run, &run.Steps[0])
	run.Steps[1].MarkRunning()
	run.Steps[1].MarkFailed("CompileError", "binary missing")
	h.StepFinished(ctx, run, &run.Steps[1])

	run.Actions = 1
	run.MarkFailed("compile", "binary missing")
	h.RunFinished(ctx, run)

	got, err := runs.GetByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.RunStatusFailed || got.FailedStep != "compile" || got.Actions != 1 {
		t.Errorf("unexpected run: %+v", got)
	}
	if len(got.Steps) != 2 || got.Steps[0].Name != "clone" || got.Steps[1].Kind != "CompileError" {
		t.Errorf("unexpected steps: %+v", got.Steps)
	}

	list, err := runs.List(ctx, 5)
	if err != nil || len(list) == 0 {
		t.Errorf("list: %v (%d)", err, len(list))
	}

	if _, err := runs.GetByID(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
