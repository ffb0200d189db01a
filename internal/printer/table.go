package printer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/slok/invk/internal/model"
)

const maxCommandWidth = 48

// TablePrinter prints invk information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintRuns prints the run history in a table format.
func (t *TablePrinter) PrintRuns(runs []model.RunRecord) error {
	if len(runs) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header.
	fmt.Fprintln(tw, "ID\tCOMMAND\tEXIT\tDURATION\tOUTPUT\tSTARTED")

	// Print rows.
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			r.ID,
			truncate(oneLine(r.Command), maxCommandWidth),
			r.Exited,
			FormatDuration(r.Duration()),
			FormatBytes(int64(r.StdoutBytes+r.StderrBytes)),
			TimeAgo(r.StartedAt),
		)
	}

	return nil
}

// PrintRun prints detailed run information.
func (t *TablePrinter) PrintRun(run model.RunRecord) error {
	fmt.Fprintf(t.writer, "ID:         %s\n", run.ID)
	fmt.Fprintf(t.writer, "Command:    %s\n", run.Command)
	fmt.Fprintf(t.writer, "Exited:     %d\n", run.Exited)
	fmt.Fprintf(t.writer, "Hide:       %s\n", run.Hide)
	fmt.Fprintf(t.writer, "Warn:       %t\n", run.Warn)
	fmt.Fprintf(t.writer, "Pty:        %t\n", run.Pty)
	fmt.Fprintf(t.writer, "Encoding:   %s\n", run.Encoding)
	fmt.Fprintf(t.writer, "Stdout:     %s\n", FormatBytes(int64(run.StdoutBytes)))
	if !run.Pty {
		fmt.Fprintf(t.writer, "Stderr:     %s\n", FormatBytes(int64(run.StderrBytes)))
	}
	fmt.Fprintf(t.writer, "Started:    %s\n", FormatTimestamp(run.StartedAt))
	fmt.Fprintf(t.writer, "Duration:   %s\n", FormatDuration(run.Duration()))

	return nil
}

// PrintSettings prints the effective settings.
func (t *TablePrinter) PrintSettings(s model.Settings) error {
	shell := s.Run.Shell
	if shell == "" {
		shell = "(platform default)"
	}

	fmt.Fprintf(t.writer, "Shell:      %s\n", shell)
	fmt.Fprintf(t.writer, "Encoding:   %s\n", s.Run.Encoding)
	fmt.Fprintf(t.writer, "Hide:       %s\n", s.Run.Hide)
	fmt.Fprintf(t.writer, "Warn:       %t\n", s.Run.Warn)
	fmt.Fprintf(t.writer, "Pty:        %t\n", s.Run.Pty)
	if s.Run.Dir != "" {
		fmt.Fprintf(t.writer, "Dir:        %s\n", s.Run.Dir)
	}
	for _, k := range sortedKeys(s.Run.Env) {
		fmt.Fprintf(t.writer, "Env:        %s=%s\n", k, s.Run.Env[k])
	}
	fmt.Fprintf(t.writer, "History:    %t\n", s.History.Enabled)
	if s.History.Enabled {
		fmt.Fprintf(t.writer, "DB path:    %s\n", s.History.DBPath)
	}
	for _, src := range s.Sources {
		fmt.Fprintf(t.writer, "Source:     %s\n", src)
	}

	return nil
}

// PrintChecks prints the check results followed by a summary line.
func (t *TablePrinter) PrintChecks(results []model.CheckResult) error {
	for _, r := range results {
		fmt.Fprintf(t.writer, "  %s %-20s %s\n", statusIcon(r.Status), r.ID, r.Message)
	}

	fmt.Fprintln(t.writer)
	sum := model.SummarizeChecks(results)
	if sum.Warnings == 0 && sum.Errors == 0 {
		fmt.Fprintln(t.writer, "All checks passed!")
		return nil
	}

	var summary []string
	if sum.Errors > 0 {
		summary = append(summary, fmt.Sprintf("%d error(s)", sum.Errors))
	}
	if sum.Warnings > 0 {
		summary = append(summary, fmt.Sprintf("%d warning(s)", sum.Warnings))
	}
	fmt.Fprintln(t.writer, strings.Join(summary, ", "))

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}

func statusIcon(status model.CheckStatus) string {
	switch status {
	case model.CheckStatusOK:
		return "OK"
	case model.CheckStatusWarning:
		return "!!"
	case model.CheckStatusError:
		return "XX"
	default:
		return "??"
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
