package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shaiso/buildorch/internal/domain"
	"github.com/shaiso/buildorch/internal/pipeline"
)

type fakeJob struct {
	runs   int
	err    error
	cancel context.CancelFunc
	stopAt int
}

func (j *fakeJob) Run(context.Context) (*domain.Run, error) {
	j.runs++
	if j.cancel != nil && j.runs >= j.stopAt {
		j.cancel()
	}

	run := domain.NewRun([]string{"clone"})
	run.MarkRunning()
	if j.err != nil {
		run.MarkFailed("clone", j.err.Error())
		return run, j.err
	}
	run.Steps[0].MarkSkipped()
	run.MarkSucceeded()
	return run, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseSchedule(t *testing.T) {
	from := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		expr string
		tz   string
		want time.Time
	}{
		{"daily descriptor", "@daily", "", time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)},
		{"every descriptor", "@every 6h", "", from.Add(6 * time.Hour)},
		{"five fields", "0 3 * * *", "UTC", time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC)},
		{"timezone", "0 3 * * *", "Europe/Moscow", time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched, err := ParseSchedule(tt.expr, tt.tz)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := sched.Next(from); !got.Equal(tt.want) {
				t.Errorf("Next = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseSchedule_Invalid(t *testing.T) {
	if _, err := ParseSchedule("", ""); !errors.Is(err, ErrEmptySchedule) {
		t.Errorf("expected ErrEmptySchedule, got %v", err)
	}
	if _, err := ParseSchedule("not a cron", ""); err == nil {
		t.Error("expected parse error")
	}
	if _, err := ParseSchedule("@daily", "Mars/Olympus"); err == nil {
		t.Error("expected timezone error")
	}
}

func TestNew_NoJob(t *testing.T) {
	if _, err := New(Config{Cron: "@daily"}); !errors.Is(err, ErrNoJob) {
		t.Errorf("expected ErrNoJob, got %v", err)
	}
}

func TestTick(t *testing.T) {
	job := &fakeJob{}
	s, err := New(Config{Cron: "@hourly", Job: job, Logger: discardLogger()})
	if err != nil {
		t.Fatal(err)
	}

	if !s.Tick(context.Background()) {
		t.Error("expected successful tick")
	}

	job.err = &pipeline.StepFailure{Step: "compile", Kind: pipeline.CompileError, Message: "marker missing"}
	if s.Tick(context.Background()) {
		t.Error("expected failed tick")
	}
	if job.runs != 2 {
		t.Errorf("expected 2 runs, got %d", job.runs)
	}
}

func TestStart_RunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job := &fakeJob{cancel: cancel, stopAt: 3, err: errors.New("boom")}
	s, err := New(Config{Cron: "@every 1h", Job: job, Logger: discardLogger()})
	if err != nil {
		t.Fatal(err)
	}

	// таймер срабатывает сразу
	var waits []time.Duration
	s.after = func(d time.Duration) <-chan time.Time {
		waits = append(waits, d)
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}

	if job.runs != 3 {
		t.Errorf("expected 3 runs before cancel, got %d", job.runs)
	}
	for _, d := range waits {
		if d <= 0 || d > time.Hour {
			t.Errorf("unexpected wait %s", d)
		}
	}
}
