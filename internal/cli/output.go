package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mitchellh/colorstring"

	"github.com/shaiso/buildorch/internal/domain"
)

// Output управляет форматированием вывода CLI.
type Output struct {
	jsonMode bool
	w        io.Writer // stdout для данных
	errW     io.Writer // stderr для сообщений
	color    colorstring.Colorize
}

// NewOutput создаёт Output. Если jsonMode=true, данные выводятся в JSON.
func NewOutput(w, errW io.Writer, jsonMode bool) *Output {
	return &Output{
		jsonMode: jsonMode,
		w:        w,
		errW:     errW,
		color: colorstring.Colorize{
			Colors:  colorstring.DefaultColors,
			Disable: os.Getenv("NO_COLOR") != "",
			Reset:   true,
		},
	}
}

// Print выводит данные: таблицу или JSON в зависимости от режима.
func (o *Output) Print(headers []string, rows [][]string, jsonData any) {
	if o.jsonMode {
		o.JSON(jsonData)
		return
	}
	o.Table(headers, rows)
}

// Table выводит данные в виде таблицы через tabwriter.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// JSON выводит данные в формате JSON с отступами.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, o.color.Color("[green]"+msg))
}

// Error выводит сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errW, o.color.Color("[red]Error: "+msg))
}

// Summary выводит итог run по шагам в stderr.
func (o *Output) Summary(run *domain.Run) {
	for _, step := range run.Steps {
		line := fmt.Sprintf("  %s %-11s %s", statusColor(step.Status), step.Status, step.Name)
		if d := step.Duration(); d > 0 {
			line += fmt.Sprintf(" (%s)", d.Round(time.Second))
		}
		fmt.Fprintln(o.errW, o.color.Color(line+"[reset]"))
	}

	msg := fmt.Sprintf("run %s: %s, %d action(s), %d skipped", run.ID, run.Status, run.Actions, run.Skipped())
	if run.Status == domain.RunStatusSucceeded {
		o.Success(msg)
		return
	}
	fmt.Fprintln(o.errW, o.color.Color("[red]"+msg))
}

func statusColor(s domain.StepStatus) string {
	switch s {
	case domain.StepStatusSucceeded:
		return "[green]==>"
	case domain.StepStatusSkipped:
		return "[blue]-->"
	case domain.StepStatusFailed:
		return "[red]!!>"
	default:
		return "[dark_gray]   "
	}
}
