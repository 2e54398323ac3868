package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер cron-выражений. Кроме пяти полей принимает
// дескрипторы (@daily, @every 6h).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Schedule — разобранное расписание.
type Schedule struct {
	expr     string
	schedule cron.Schedule
	loc      *time.Location
}

// ParseSchedule разбирает cron-выражение в заданной timezone.
// Пустая timezone означает UTC.
func ParseSchedule(expr, timezone string) (*Schedule, error) {
	if expr == "" {
		return nil, ErrEmptySchedule
	}

	loc := time.UTC
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
		}
		loc = l
	}

	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", expr, err)
	}

	return &Schedule{expr: expr, schedule: sched, loc: loc}, nil
}

// Next вычисляет следующее время запуска после from.
func (s *Schedule) Next(from time.Time) time.Time {
	return s.schedule.Next(from.In(s.loc)).UTC()
}

// String возвращает исходное выражение.
func (s *Schedule) String() string {
	return s.expr
}
