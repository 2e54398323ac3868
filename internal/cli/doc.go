// Package cli реализует команды buildorch.
//
// # Команды
//
//   - buildorch — запускает pipeline сборки. Без флагов: все параметры
//     берутся из конфигурации (значения по умолчанию фиксированы).
//     Код выхода 0 при успехе, 1 и диагностика в stderr при падении шага.
//   - buildorch plan — проверяет маркеры шагов и показывает, какие
//     action будут выполнены. Ничего не запускает.
//   - buildorch history — последние runs из Postgres (BUILDORCH_DB_URL).
//
// # App
//
// App связывает конфигурацию с зависимостями: toolchain.ExecRunner,
// source.Git, проверку окружения и наблюдателей run (метрики, история
// в Postgres, события в RabbitMQ). Наблюдатели подключаются только если
// заданы соответствующие URL; их недоступность не мешает сборке.
//
// # Output
//
// Данные (таблицы, JSON) выводятся в stdout, сообщения и итог run — в
// stderr. Цвет отключается переменной NO_COLOR.
package cli
