// Package pipeline реализует оркестратор идемпотентной сборки.
//
// Pipeline — упорядоченная последовательность шагов. Каждый шаг (Step):
//   - Done — precondition: работа уже сделана (маркер существует)
//   - Run — action: выполняет работу
//   - Verify — postcondition: маркер появился
//
// Orchestrator выполняет шаги строго по порядку. Если Done возвращает
// true, action пропускается. После action обязательно вызывается Verify;
// если проверка не прошла, run завершается с StepFailure и последующие
// шаги не запускаются.
//
// Маркер — это только факт наличия артефакта, без сравнения времени
// модификации. Устаревший артефакт не обнаруживается.
//
// Состояния pipeline:
//
//	Pending → Running(0) → Running(1) → ... → Succeeded
//	                    ↘ Failed(i)
package pipeline
