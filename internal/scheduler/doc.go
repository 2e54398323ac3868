// Package scheduler периодически запускает pipeline сборки.
//
// Pipeline идемпотентен, поэтому повторный запуск по расписанию дешёвый:
// шаги с маркерами пропускаются, а удалённые артефакты (например,
// установленный бинарник) восстанавливаются.
//
// Структура:
//   - scheduler.go — цикл Scheduler (Start, Tick)
//   - cron.go      — разбор расписания и вычисление следующего времени
//
// Использование:
//
//	sched, err := scheduler.New(scheduler.Config{
//	    Cron:     "@daily",
//	    Timezone: "Europe/Moscow",
//	    Job:      app,
//	    Logger:   logger,
//	})
//
//	// Блокирует до отмены ctx
//	err = sched.Start(ctx)
//
// Запуски никогда не перекрываются: следующий тик планируется только
// после завершения текущего run.
package scheduler
