// Package toolchain запускает внешние процессы сборки (cmake, собранный
// бинарник) и проверяет наличие инструментов в окружении.
//
// Runner — узкий интерфейс, через который шаги вызывают процессы.
// ExecRunner построчно пишет stdout/stderr процесса в structured log и,
// при необходимости, в файл журнала сборки. Ненулевой код выхода
// возвращается как *ExitError с хвостом вывода для диагностики.
package toolchain
