package printer

import (
	"sort"
	"time"

	"github.com/slok/invk/internal/model"
)

// Structured output shared by the JSON and YAML printers.

type runOutput struct {
	ID          string    `json:"id" yaml:"id"`
	Command     string    `json:"command" yaml:"command"`
	Exited      int       `json:"exited" yaml:"exited"`
	Hide        string    `json:"hide" yaml:"hide"`
	Warn        bool      `json:"warn" yaml:"warn"`
	Pty         bool      `json:"pty" yaml:"pty"`
	Encoding    string    `json:"encoding" yaml:"encoding"`
	StdoutBytes int       `json:"stdout_bytes" yaml:"stdout_bytes"`
	StderrBytes int       `json:"stderr_bytes" yaml:"stderr_bytes"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time `json:"finished_at" yaml:"finished_at"`
	DurationMS  int64     `json:"duration_ms" yaml:"duration_ms"`
}

type settingsOutput struct {
	Run     runSettingsOutput     `json:"run" yaml:"run"`
	History historySettingsOutput `json:"history" yaml:"history"`
	Sources []string              `json:"sources,omitempty" yaml:"sources,omitempty"`
}

type runSettingsOutput struct {
	Shell    string            `json:"shell,omitempty" yaml:"shell,omitempty"`
	Encoding string            `json:"encoding" yaml:"encoding"`
	Hide     string            `json:"hide" yaml:"hide"`
	Warn     bool              `json:"warn" yaml:"warn"`
	Pty      bool              `json:"pty" yaml:"pty"`
	Dir      string            `json:"dir,omitempty" yaml:"dir,omitempty"`
	Env      map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

type historySettingsOutput struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	DBPath  string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type checkOutput struct {
	ID      string `json:"id" yaml:"id"`
	Status  string `json:"status" yaml:"status"`
	Message string `json:"message" yaml:"message"`
}

type messageOutput struct {
	Message string `json:"message" yaml:"message"`
}

func toRunOutput(r model.RunRecord) runOutput {
	return runOutput{
		ID:          r.ID,
		Command:     r.Command,
		Exited:      r.Exited,
		Hide:        string(r.Hide),
		Warn:        r.Warn,
		Pty:         r.Pty,
		Encoding:    r.Encoding,
		StdoutBytes: r.StdoutBytes,
		StderrBytes: r.StderrBytes,
		StartedAt:   r.StartedAt.UTC(),
		FinishedAt:  r.FinishedAt.UTC(),
		DurationMS:  r.Duration().Milliseconds(),
	}
}

func toRunsOutput(runs []model.RunRecord) []runOutput {
	items := make([]runOutput, 0, len(runs))
	for _, r := range runs {
		items = append(items, toRunOutput(r))
	}
	return items
}

func toSettingsOutput(s model.Settings) settingsOutput {
	return settingsOutput{
		Run: runSettingsOutput{
			Shell:    s.Run.Shell,
			Encoding: s.Run.Encoding,
			Hide:     string(s.Run.Hide),
			Warn:     s.Run.Warn,
			Pty:      s.Run.Pty,
			Dir:      s.Run.Dir,
			Env:      s.Run.Env,
		},
		History: historySettingsOutput{
			Enabled: s.History.Enabled,
			DBPath:  s.History.DBPath,
		},
		Sources: s.Sources,
	}
}

func toChecksOutput(results []model.CheckResult) []checkOutput {
	items := make([]checkOutput, 0, len(results))
	for _, r := range results {
		items = append(items, checkOutput{ID: r.ID, Status: string(r.Status), Message: r.Message})
	}
	return items
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
