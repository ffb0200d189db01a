package io

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/slok/invk/internal/conventions"
	"github.com/slok/invk/internal/log"
	"github.com/slok/invk/internal/model"
	"github.com/slok/invk/internal/textenc"
)

// SettingsRepositoryConfig is the configuration for the settings repository.
type SettingsRepositoryConfig struct {
	// FS is where the settings files are read from. Defaults to the host filesystem.
	FS fs.FS
	// HomeDir is where the user settings file lives.
	HomeDir string
	// WorkDir is where the project settings file lives.
	WorkDir string
	Logger  log.Logger
}

func (c *SettingsRepositoryConfig) defaults() error {
	if c.FS == nil {
		c.FS = hostFS{}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Settings"})
	return nil
}

// SettingsRepository loads the user, project and runtime settings files and
// merges them on top of the defaults.
type SettingsRepository struct {
	fs      fs.FS
	homeDir string
	workDir string
	logger  log.Logger
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(cfg SettingsRepositoryConfig) (*SettingsRepository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &SettingsRepository{
		fs:      cfg.FS,
		homeDir: cfg.HomeDir,
		workDir: cfg.WorkDir,
		logger:  cfg.Logger,
	}, nil
}

// GetSettings returns the merged settings. Precedence from low to high:
// defaults, user file, project file, runtime file. The runtime file is
// optional but must exist when set.
func (r *SettingsRepository) GetSettings(ctx context.Context, defaults model.Settings, runtimePath string) (model.Settings, error) {
	settings := defaults
	settings.Run.Env = maps.Clone(defaults.Run.Env)

	var candidates [][]string
	if r.homeDir != "" {
		candidates = append(candidates, conventions.SettingsFileCandidates(path.Join(r.homeDir, conventions.UserSettingsName)))
	}
	if r.workDir != "" {
		candidates = append(candidates, conventions.SettingsFileCandidates(path.Join(r.workDir, conventions.ProjectSettingsName)))
	}

	// Only the first file found in each directory is used.
	for _, paths := range candidates {
		for _, p := range paths {
			if ctx.Err() != nil {
				return model.Settings{}, ctx.Err()
			}

			loaded, err := r.merge(&settings, p)
			if err != nil {
				return model.Settings{}, err
			}
			if loaded {
				break
			}
		}
	}

	if runtimePath != "" {
		loaded, err := r.merge(&settings, runtimePath)
		if err != nil {
			return model.Settings{}, err
		}
		if !loaded {
			return model.Settings{}, fmt.Errorf("settings file %q does not exist: %w", runtimePath, model.ErrNotFound)
		}
	}

	settings, err := normalize(settings)
	if err != nil {
		return model.Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return settings, nil
}

func (r *SettingsRepository) merge(settings *model.Settings, p string) (loaded bool, err error) {
	data, err := fs.ReadFile(r.fs, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("reading settings file %q: %w", p, err)
	}

	f, err := parse(p, data)
	if err != nil {
		return false, fmt.Errorf("parsing %q: %w: %w", p, err, model.ErrNotValid)
	}

	f.overlay(settings)
	settings.Sources = append(settings.Sources, p)
	r.logger.Debugf("Loaded settings file %s", p)

	return true, nil
}

func parse(p string, data []byte) (SettingsFile, error) {
	var f SettingsFile

	switch strings.ToLower(path.Ext(p)) {
	case ".toml":
		meta, err := toml.Decode(string(data), &f)
		if err != nil {
			return f, fmt.Errorf("parsing TOML: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return f, fmt.Errorf("unknown TOML keys: %v", undecoded)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return f, fmt.Errorf("parsing JSON: %w", err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return f, fmt.Errorf("parsing YAML: %w", err)
		}
	}

	return f, nil
}

// SettingsFile represents the structure of a settings file. Unset keys keep
// the value of the lower precedence levels.
type SettingsFile struct {
	Run     *RunFile     `yaml:"run" toml:"run" json:"run"`
	History *HistoryFile `yaml:"history" toml:"history" json:"history"`
}

// RunFile represents the run section of a settings file.
type RunFile struct {
	Shell    *string           `yaml:"shell" toml:"shell" json:"shell"`
	Encoding *string           `yaml:"encoding" toml:"encoding" json:"encoding"`
	Hide     *string           `yaml:"hide" toml:"hide" json:"hide"`
	Warn     *bool             `yaml:"warn" toml:"warn" json:"warn"`
	Pty      *bool             `yaml:"pty" toml:"pty" json:"pty"`
	Dir      *string           `yaml:"dir" toml:"dir" json:"dir"`
	Env      map[string]string `yaml:"env" toml:"env" json:"env"`
}

// HistoryFile represents the history section of a settings file.
type HistoryFile struct {
	Enabled *bool   `yaml:"enabled" toml:"enabled" json:"enabled"`
	DBPath  *string `yaml:"db_path" toml:"db_path" json:"db_path"`
}

func (f SettingsFile) overlay(s *model.Settings) {
	if run := f.Run; run != nil {
		setIf(&s.Run.Shell, run.Shell)
		setIf(&s.Run.Encoding, run.Encoding)
		setIf(&s.Run.Warn, run.Warn)
		setIf(&s.Run.Pty, run.Pty)
		setIf(&s.Run.Dir, run.Dir)
		if run.Hide != nil {
			s.Run.Hide = model.Hide(*run.Hide)
		}
		if len(run.Env) > 0 {
			if s.Run.Env == nil {
				s.Run.Env = map[string]string{}
			}
			maps.Copy(s.Run.Env, run.Env)
		}
	}

	if h := f.History; h != nil {
		setIf(&s.History.Enabled, h.Enabled)
		setIf(&s.History.DBPath, h.DBPath)
	}
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// normalize validates the merged settings and resolves aliases.
func normalize(s model.Settings) (model.Settings, error) {
	hide, err := model.ParseHide(string(s.Run.Hide))
	if err != nil {
		return s, fmt.Errorf("run.hide: %w", err)
	}
	s.Run.Hide = hide

	if _, err := textenc.Lookup(s.Run.Encoding); err != nil {
		return s, fmt.Errorf("run.encoding: %s: %w", err, model.ErrNotValid)
	}
	if s.History.Enabled && s.History.DBPath == "" {
		return s, fmt.Errorf("history.db_path is required when history is enabled: %w", model.ErrNotValid)
	}
	return s, nil
}

// hostFS reads straight from the operating system, accepting absolute paths.
type hostFS struct{}

func (hostFS) Open(name string) (fs.File, error) { return os.Open(name) }

func (hostFS) ReadFile(name string) ([]byte, error) { return os.ReadFile(name) }
