package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/invk/internal/log"
	"github.com/slok/invk/internal/model"
	"github.com/slok/invk/internal/storage/sqlite"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// ExitCodeError is returned by commands that want the process to exit with a
// specific code without printing an error.
type ExitCodeError struct {
	Code int
}

func (e ExitCodeError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug      bool
	NoLog      bool
	NoColor    bool
	LoggerType string
	ConfigPath string
	DBPath     string

	// Global instances.
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   log.Logger
	Settings model.Settings
	// SettingsErr is set when the settings could not be loaded and the defaults are used.
	SettingsErr error
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)
	app.Flag("config", "Path to a settings file (YAML, TOML or JSON) applied on top of the user and project ones.").StringVar(&c.ConfigPath)
	app.Flag("db-path", "Path to the SQLite run history database (overrides the settings).").StringVar(&c.DBPath)

	return c
}

// openHistory opens the run history repository. It returns nil when the history is disabled.
func (c *RootCommand) openHistory(ctx context.Context) (*sqlite.Repository, error) {
	if !c.Settings.History.Enabled {
		return nil, nil
	}

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.Settings.History.DBPath,
		Logger: c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not open history: %w", err)
	}

	return repo, nil
}
