package domain

import (
	"testing"
	"time"
)

func TestNewRun(t *testing.T) {
	run := NewRun([]string{"clone", "configure"})

	if run.Status != RunStatusPending {
		t.Errorf("expected PENDING, got %s", run.Status)
	}
	if len(run.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(run.Steps))
	}
	for _, s := range run.Steps {
		if s.Status != StepStatusPending {
			t.Errorf("step %s: expected PENDING, got %s", s.Name, s.Status)
		}
	}
	if run.Step("configure") == nil {
		t.Error("configure should be found")
	}
	if run.Step("install") != nil {
		t.Error("install should not be found")
	}
}

func TestRun_Lifecycle(t *testing.T) {
	run := NewRun([]string{"clone"})

	if run.Duration() != 0 {
		t.Error("duration should be 0 before start")
	}

	run.MarkRunning()
	if run.Status != RunStatusRunning || run.StartedAt == nil {
		t.Fatal("run should be RUNNING with StartedAt")
	}
	if run.IsFinished() {
		t.Error("RUNNING is not terminal")
	}

	time.Sleep(time.Millisecond)
	run.MarkFailed("clone", "boom")

	if !run.IsFinished() {
		t.Error("FAILED is terminal")
	}
	if run.FailedStep != "clone" || run.Error != "boom" {
		t.Errorf("unexpected failure fields: %q %q", run.FailedStep, run.Error)
	}
	if run.Duration() <= 0 {
		t.Error("duration should be positive")
	}
}

func TestStepResult_Transitions(t *testing.T) {
	s := StepResult{Name: "compile", Status: StepStatusPending}

	s.MarkRunning()
	if s.Status != StepStatusRunning || s.StartedAt == nil {
		t.Fatal("expected RUNNING with StartedAt")
	}
	s.MarkFailed("CompileError", "missing binary")
	if s.Status != StepStatusFailed || s.Kind != "CompileError" {
		t.Errorf("unexpected step state: %+v", s)
	}
	if s.Status.Satisfied() {
		t.Error("FAILED must not be satisfied")
	}

	skipped := StepResult{Name: "install"}
	skipped.MarkSkipped()
	if !skipped.Status.Satisfied() || !skipped.Status.IsTerminal() {
		t.Error("SKIPPED should be satisfied and terminal")
	}
	if skipped.Duration() != 0 {
		t.Error("skipped step has no action duration")
	}
}

func TestRun_Skipped(t *testing.T) {
	run := NewRun([]string{"a", "b", "c"})
	run.Steps[0].MarkSkipped()
	run.Steps[2].MarkSkipped()

	if got := run.Skipped(); got != 2 {
		t.Errorf("expected 2 skipped, got %d", got)
	}
}

func TestParseRunStatus(t *testing.T) {
	tests := []struct {
		in   string
		want RunStatus
	}{
		{"RUNNING", RunStatusRunning},
		{"SUCCEEDED", RunStatusSucceeded},
		{"FAILED", RunStatusFailed},
		{"PENDING", RunStatusPending},
		{"garbage", RunStatusPending},
	}

	for _, tt := range tests {
		if got := ParseRunStatus(tt.in); got != tt.want {
			t.Errorf("ParseRunStatus(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
