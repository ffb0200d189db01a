package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/mattn/go-isatty"
	"github.com/oklog/run"
	"github.com/sirupsen/logrus"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/invk/cmd/invk/commands"
	"github.com/slok/invk/internal/conventions"
	"github.com/slok/invk/internal/log"
	loglogrus "github.com/slok/invk/internal/log/logrus"
	"github.com/slok/invk/internal/model"
	storageio "github.com/slok/invk/internal/storage/io"
	"github.com/slok/invk/internal/textenc"
)

const (
	// Version is the application version (set via ldflags).
	Version = "dev"
)

// Run runs the main application.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	app := kingpin.New("invk", "Run shell commands capturing and echoing their output.")
	app.Version(Version)
	app.DefaultEnvars()
	rootCmd := commands.NewRootCommand(app)

	// Setup commands (registers flags).
	runCmd := commands.NewRunCommand(rootCmd, app)
	configCmd := commands.NewConfigCommand(rootCmd, app)
	doctorCmd := commands.NewDoctorCommand(rootCmd, app)

	// History subcommands share a parent command.
	historyCmd := commands.NewHistoryCommand(app)
	historyListCmd := commands.NewHistoryListCommand(rootCmd, historyCmd)
	historyShowCmd := commands.NewHistoryShowCommand(rootCmd, historyCmd)
	historyClearCmd := commands.NewHistoryClearCommand(rootCmd, historyCmd)

	cmds := map[string]commands.Command{
		runCmd.Name():          runCmd,
		configCmd.Name():       configCmd,
		doctorCmd.Name():       doctorCmd,
		historyListCmd.Name():  historyListCmd,
		historyShowCmd.Name():  historyShowCmd,
		historyClearCmd.Name(): historyClearCmd,
	}

	// Parse command.
	cmdName, err := app.Parse(args[1:])
	if err != nil {
		return fmt.Errorf("invalid command configuration: %w", err)
	}

	// Set standard input/output.
	rootCmd.Stdin = stdin
	rootCmd.Stdout = stdout
	rootCmd.Stderr = stderr

	// Auto-suppress logging for commands that produce structured output (table/JSON/YAML)
	// to prevent log noise from mixing with printer output in the terminal.
	// Users can still enable logging with --debug.
	printerCommands := map[string]bool{
		"config":       true,
		"doctor":       true,
		"history list": true,
		"history show": true,
	}
	if printerCommands[cmdName] && !rootCmd.Debug {
		rootCmd.NoLog = true
	}

	// Set logger.
	rootCmd.Logger = getLogger(ctx, *rootCmd)

	// Load settings once, commands only see the result.
	// Doctor reports broken settings instead of failing on them.
	rootCmd.Settings, err = getSettings(ctx, *rootCmd)
	if err != nil {
		if cmdName != doctorCmd.Name() {
			return fmt.Errorf("could not load settings: %w", err)
		}
		rootCmd.SettingsErr = err
	}

	var g run.Group

	// OS signals.
	{
		signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer signalCancel()

		g.Add(
			func() error {
				<-signalCtx.Done()
				rootCmd.Logger.Debugf("Termination signal received")
				return nil
			},
			func(_ error) {
				signalCancel()
			},
		)
	}

	// Execute command.
	var cmdErr error
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				err := cmds[cmdName].Run(ctx)
				if err != nil {
					cmdErr = fmt.Errorf("%q command failed: %w", cmdName, err)
				}
				return cmdErr
			},
			func(_ error) {
				cancel()
			},
		)
	}

	// A signal ends the group first, the interrupted command result still counts.
	if err := g.Run(); err != nil {
		return err
	}
	return cmdErr
}

// getLogger returns the application logger.
func getLogger(ctx context.Context, config commands.RootCommand) log.Logger {
	if config.NoLog {
		return log.Noop
	}

	// If logger not disabled use logrus logger.
	logrusLog := logrus.New()
	logrusLog.Out = config.Stderr // By default logger goes to stderr (so it can split stdout prints).
	logrusLogEntry := logrus.NewEntry(logrusLog)

	if config.Debug {
		logrusLogEntry.Logger.SetLevel(logrus.DebugLevel)
	}

	// Log format.
	switch config.LoggerType {
	case commands.LoggerTypeDefault:
		color := !config.NoColor && isTerminal(config.Stderr)
		logrusLogEntry.Logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   color,
			DisableColors: !color,
		})
	case commands.LoggerTypeJSON:
		logrusLogEntry.Logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger := loglogrus.NewLogrus(logrusLogEntry).WithValues(log.Kv{
		"version": Version,
	})

	logger.Debugf("Debug level is enabled") // Will log only when debug enabled.

	return logger
}

// getSettings merges the settings files on top of the defaults, then applies the global flags.
// On error the defaults are returned along with it.
func getSettings(ctx context.Context, config commands.RootCommand) (model.Settings, error) {
	homeDir := homedir.HomeDir()
	defaults := model.Settings{
		Run: model.RunSettings{
			Encoding: textenc.Default(os.Getenv),
			Hide:     model.HideNone,
		},
		History: model.HistorySettings{
			Enabled: true,
			DBPath:  conventions.HistoryDBPath(homeDir),
		},
	}

	workDir, err := os.Getwd()
	if err != nil {
		return defaults, fmt.Errorf("could not get working directory: %w", err)
	}

	repo, err := storageio.NewSettingsRepository(storageio.SettingsRepositoryConfig{
		HomeDir: homeDir,
		WorkDir: workDir,
		Logger:  config.Logger,
	})
	if err != nil {
		return defaults, err
	}

	settings, err := repo.GetSettings(ctx, defaults, config.ConfigPath)
	if err != nil {
		return defaults, err
	}

	if config.DBPath != "" {
		settings.History.Enabled = true
		settings.History.DBPath = config.DBPath
	}

	return settings, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func main() {
	ctx := context.Background()
	err := Run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		// Commands that mirror a child exit code have already reported everything.
		var exitErr commands.ExitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}

		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
