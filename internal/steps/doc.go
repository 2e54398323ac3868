// Package steps содержит шаги сборки llama.cpp с CUDA.
//
// # Шаги
//
// Каждый шаг реализует pipeline.Step. Маркер шага — артефакт на диске,
// который используется и как precondition, и как postcondition:
//
//	clone       <source>/.git                (go-git)
//	configure   <build>/CMakeCache.txt       (cmake -S -B)
//	compile     <build>/bin/<binary>         (cmake --build -j)
//	smoke-test  <build>/.smoke-test.ok       (бинарник с фиксированным промптом)
//	install     <install path>               (copy или symlink)
//
// Маркеры проверяются только на существование. Артефакт, собранный из
// старых исходников, не пересобирается; для пересборки удалите маркер.
//
// # Зависимости
//
// Шаги получают всё явно через конструкторы: пути, параметры сборки,
// toolchain.Runner для внешних процессов и Fetcher для исходников.
// Текущая директория и окружение shell не используются.
//
//	p := steps.BuildPipeline(cfg, steps.Deps{
//		Runner:      toolchain.NewExecRunner(logger, nil),
//		Fetcher:     source.NewGit(logger, nil),
//		Environment: env.Check,
//	})
package steps
