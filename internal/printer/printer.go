package printer

import (
	"fmt"
	"io"

	"github.com/slok/invk/internal/model"
)

// Printer knows how to print invk information in different formats.
type Printer interface {
	PrintRuns(runs []model.RunRecord) error
	PrintRun(run model.RunRecord) error
	PrintSettings(settings model.Settings) error
	PrintChecks(results []model.CheckResult) error
	PrintMessage(msg string) error
}

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// New returns the printer for a format.
func New(format string, w io.Writer) (Printer, error) {
	switch format {
	case FormatTable, "":
		return NewTablePrinter(w), nil
	case FormatJSON:
		return NewJSONPrinter(w), nil
	case FormatYAML:
		return NewYAMLPrinter(w), nil
	}

	return nil, fmt.Errorf("unknown output format %q: %w", format, model.ErrNotValid)
}
