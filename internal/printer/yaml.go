package printer

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/slok/invk/internal/model"
)

// YAMLPrinter prints invk information in YAML format.
type YAMLPrinter struct {
	writer io.Writer
}

// NewYAMLPrinter creates a new YAML printer.
func NewYAMLPrinter(w io.Writer) *YAMLPrinter {
	return &YAMLPrinter{writer: w}
}

func (y *YAMLPrinter) PrintRuns(runs []model.RunRecord) error {
	return y.encode(toRunsOutput(runs))
}

func (y *YAMLPrinter) PrintRun(run model.RunRecord) error {
	return y.encode(toRunOutput(run))
}

// PrintSettings prints the settings, the output can be used as a settings file.
func (y *YAMLPrinter) PrintSettings(settings model.Settings) error {
	return y.encode(toSettingsOutput(settings))
}

func (y *YAMLPrinter) PrintChecks(results []model.CheckResult) error {
	return y.encode(toChecksOutput(results))
}

func (y *YAMLPrinter) PrintMessage(msg string) error {
	return y.encode(messageOutput{Message: msg})
}

func (y *YAMLPrinter) encode(v any) error {
	enc := yaml.NewEncoder(y.writer)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
