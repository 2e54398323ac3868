package scheduler

import "errors"

// Ошибки планировщика.
var (
	// ErrEmptySchedule — расписание не задано.
	ErrEmptySchedule = errors.New("schedule is empty")

	// ErrNoJob — не задан запускаемый pipeline.
	ErrNoJob = errors.New("scheduler job is nil")
)
