package io

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/invk/internal/model"
)

func defaultSettings() model.Settings {
	return model.Settings{
		Run: model.RunSettings{
			Encoding: "utf-8",
			Hide:     model.HideNone,
		},
		History: model.HistorySettings{
			Enabled: true,
			DBPath:  "home/user/.invk/history.db",
		},
	}
}

func TestSettingsRepositoryGetSettings(t *testing.T) {
	tests := map[string]struct {
		fs          fstest.MapFS
		runtimePath string
		expSettings func() model.Settings
		expErr      error
	}{
		"Without files the defaults should be returned.": {
			fs:          fstest.MapFS{},
			expSettings: defaultSettings,
		},

		"A user YAML file should override the defaults.": {
			fs: fstest.MapFS{
				"home/user/.invk.yaml": &fstest.MapFile{Data: []byte(`
run:
  shell: /bin/bash
  warn: true
  hide: out
  env:
    FOO: bar
`)},
			},
			expSettings: func() model.Settings {
				s := defaultSettings()
				s.Run.Shell = "/bin/bash"
				s.Run.Warn = true
				s.Run.Hide = model.HideStdout
				s.Run.Env = map[string]string{"FOO": "bar"}
				s.Sources = []string{"home/user/.invk.yaml"}
				return s
			},
		},

		"A project TOML file should override the user file.": {
			fs: fstest.MapFS{
				"home/user/.invk.yaml": &fstest.MapFile{Data: []byte(`
run:
  shell: /bin/bash
  pty: true
  env:
    FOO: bar
    KEEP: me
`)},
				"project/invk.toml": &fstest.MapFile{Data: []byte(`
[run]
shell = "/bin/zsh"
encoding = "latin1"

[run.env]
FOO = "baz"

[history]
enabled = false
`)},
			},
			expSettings: func() model.Settings {
				s := defaultSettings()
				s.Run.Shell = "/bin/zsh"
				s.Run.Pty = true
				s.Run.Encoding = "latin1"
				s.Run.Env = map[string]string{"FOO": "baz", "KEEP": "me"}
				s.History.Enabled = false
				s.Sources = []string{"home/user/.invk.yaml", "project/invk.toml"}
				return s
			},
		},

		"A runtime JSON file should have the highest precedence.": {
			fs: fstest.MapFS{
				"project/invk.yml": &fstest.MapFile{Data: []byte("run:\n  hide: both\n")},
				"runtime.json":     &fstest.MapFile{Data: []byte(`{"run": {"hide": "stderr", "dir": "/tmp"}}`)},
			},
			runtimePath: "runtime.json",
			expSettings: func() model.Settings {
				s := defaultSettings()
				s.Run.Hide = model.HideStderr
				s.Run.Dir = "/tmp"
				s.Sources = []string{"project/invk.yml", "runtime.json"}
				return s
			},
		},

		"Only the first file found in a directory should be used.": {
			fs: fstest.MapFS{
				"home/user/.invk.yaml": &fstest.MapFile{Data: []byte("run:\n  warn: true\n")},
				"home/user/.invk.json": &fstest.MapFile{Data: []byte(`{"run": {"pty": true}}`)},
			},
			expSettings: func() model.Settings {
				s := defaultSettings()
				s.Run.Warn = true
				s.Sources = []string{"home/user/.invk.yaml"}
				return s
			},
		},

		"An empty YAML file should be ignored.": {
			fs: fstest.MapFS{
				"home/user/.invk.yaml": &fstest.MapFile{Data: []byte("---\n")},
			},
			expSettings: func() model.Settings {
				s := defaultSettings()
				s.Sources = []string{"home/user/.invk.yaml"}
				return s
			},
		},

		"A missing runtime file should fail.": {
			fs:          fstest.MapFS{},
			runtimePath: "missing.yaml",
			expErr:      model.ErrNotFound,
		},

		"Unknown keys should fail.": {
			fs: fstest.MapFS{
				"home/user/.invk.yaml": &fstest.MapFile{Data: []byte("run:\n  shel: /bin/bash\n")},
			},
			expErr: model.ErrNotValid,
		},

		"Unknown TOML keys should fail.": {
			fs: fstest.MapFS{
				"project/invk.toml": &fstest.MapFile{Data: []byte("[run]\nwarm = true\n")},
			},
			expErr: model.ErrNotValid,
		},

		"Invalid hide values should fail.": {
			fs: fstest.MapFS{
				"home/user/.invk.yaml": &fstest.MapFile{Data: []byte("run:\n  hide: everything\n")},
			},
			expErr: model.ErrNotValid,
		},

		"Invalid encodings should fail.": {
			fs: fstest.MapFS{
				"home/user/.invk.yaml": &fstest.MapFile{Data: []byte("run:\n  encoding: klingon-8\n")},
			},
			expErr: model.ErrNotValid,
		},

		"Enabled history without a db path should fail.": {
			fs: fstest.MapFS{
				"home/user/.invk.yaml": &fstest.MapFile{Data: []byte("history:\n  db_path: \"\"\n")},
			},
			expErr: model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			repo, err := NewSettingsRepository(SettingsRepositoryConfig{
				FS:      test.fs,
				HomeDir: "home/user",
				WorkDir: "project",
			})
			require.NoError(err)

			got, err := repo.GetSettings(context.Background(), defaultSettings(), test.runtimePath)
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
				return
			}
			require.NoError(err)
			assert.Equal(test.expSettings(), got)
		})
	}
}
