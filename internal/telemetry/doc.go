// Package telemetry обеспечивает наблюдаемость buildorch.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики шагов и run
//
// Одиночный запуск отправляет метрики в Pushgateway по завершении run.
// Команда schedule отдаёт тот же registry по /metrics.
package telemetry
