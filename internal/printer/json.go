package printer

import (
	"encoding/json"
	"io"

	"github.com/slok/invk/internal/model"
)

// JSONPrinter prints invk information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// PrintRuns prints the run history in JSON format.
func (j *JSONPrinter) PrintRuns(runs []model.RunRecord) error {
	return j.encode(toRunsOutput(runs))
}

// PrintRun prints a single run in JSON format.
func (j *JSONPrinter) PrintRun(run model.RunRecord) error {
	return j.encode(toRunOutput(run))
}

// PrintSettings prints the effective settings in JSON format.
func (j *JSONPrinter) PrintSettings(settings model.Settings) error {
	return j.encode(toSettingsOutput(settings))
}

// PrintChecks prints the check results in JSON format.
func (j *JSONPrinter) PrintChecks(results []model.CheckResult) error {
	return j.encode(toChecksOutput(results))
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
