package doctor

import (
	"context"
	"fmt"
	"os"
	osexec "os/exec"

	"github.com/mattn/go-isatty"

	"github.com/slok/invk/internal/log"
	"github.com/slok/invk/internal/model"
	"github.com/slok/invk/internal/runner"
	"github.com/slok/invk/internal/textenc"
)

// HistoryChecker knows the state of the history storage.
type HistoryChecker interface {
	SchemaVersion(ctx context.Context) (uint, error)
}

// ServiceConfig is the configuration for the doctor service.
type ServiceConfig struct {
	Settings model.Settings
	// SettingsErr is the error got when loading the settings, if any.
	SettingsErr error
	// History is checked only when the history is enabled on the settings.
	History HistoryChecker
	// HistoryErr is the error got when opening the history storage, if any.
	HistoryErr error

	LookPath     func(file string) (string, error)
	PtySupported func() bool
	IsTerminal   func(fd uintptr) bool
	Getenv       func(key string) string
	Logger       log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.LookPath == nil {
		c.LookPath = osexec.LookPath
	}
	if c.PtySupported == nil {
		c.PtySupported = runner.PtySupported
	}
	if c.IsTerminal == nil {
		c.IsTerminal = isatty.IsTerminal
	}
	if c.Getenv == nil {
		c.Getenv = os.Getenv
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Doctor"})
	return nil
}

// Service runs the preflight checks of the running environment.
type Service struct {
	cfg    ServiceConfig
	logger log.Logger
}

// NewService creates a new doctor service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{cfg: cfg, logger: cfg.Logger}, nil
}

// Run runs all the checks, it never stops on a failed one.
func (s *Service) Run(ctx context.Context) []model.CheckResult {
	results := []model.CheckResult{
		s.checkSettings(),
		s.checkShell(),
		s.checkPty(),
		s.checkTerminal(),
		s.checkEncoding(),
		s.checkLocale(),
		s.checkHistory(ctx),
	}

	sum := model.SummarizeChecks(results)
	s.logger.Debugf("checks finished: %d ok, %d warnings, %d errors", sum.OK, sum.Warnings, sum.Errors)

	return results
}

func (s *Service) checkSettings() model.CheckResult {
	if s.cfg.SettingsErr != nil {
		return model.CheckResult{
			ID:      "settings",
			Message: fmt.Sprintf("Settings are not valid, using defaults: %v", s.cfg.SettingsErr),
			Status:  model.CheckStatusError,
		}
	}

	msg := "No settings files found, using defaults"
	if n := len(s.cfg.Settings.Sources); n > 0 {
		msg = fmt.Sprintf("Settings loaded from %d file(s)", n)
	}
	return model.CheckResult{
		ID:      "settings",
		Message: msg,
		Status:  model.CheckStatusOK,
	}
}

func (s *Service) checkShell() model.CheckResult {
	shell := s.cfg.Settings.Run.Shell
	if shell == "" {
		shell = runner.DefaultShell()
	}

	path, err := s.cfg.LookPath(shell)
	if err != nil {
		return model.CheckResult{
			ID:      "shell_available",
			Message: fmt.Sprintf("Shell %q is not executable: %v", shell, err),
			Status:  model.CheckStatusError,
		}
	}

	return model.CheckResult{
		ID:      "shell_available",
		Message: fmt.Sprintf("Shell found at %s", path),
		Status:  model.CheckStatusOK,
	}
}

func (s *Service) checkPty() model.CheckResult {
	if !s.cfg.PtySupported() {
		status := model.CheckStatusWarning
		if s.cfg.Settings.Run.Pty {
			status = model.CheckStatusError
		}
		return model.CheckResult{
			ID:      "pty_supported",
			Message: "Pseudo-terminals are not supported on this platform",
			Status:  status,
		}
	}

	return model.CheckResult{
		ID:      "pty_supported",
		Message: "Pseudo-terminals are supported",
		Status:  model.CheckStatusOK,
	}
}

func (s *Service) checkTerminal() model.CheckResult {
	if !s.cfg.IsTerminal(os.Stdin.Fd()) {
		return model.CheckResult{
			ID:      "stdin_terminal",
			Message: "Stdin is not a terminal, pty runs will use an 80x24 window",
			Status:  model.CheckStatusWarning,
		}
	}

	return model.CheckResult{
		ID:      "stdin_terminal",
		Message: "Stdin is a terminal, pty runs will inherit its window size",
		Status:  model.CheckStatusOK,
	}
}

func (s *Service) checkEncoding() model.CheckResult {
	enc := s.cfg.Settings.Run.Encoding
	if enc == "" {
		enc = textenc.Default(s.cfg.Getenv)
	}

	if _, err := textenc.Lookup(enc); err != nil {
		return model.CheckResult{
			ID:      "encoding",
			Message: fmt.Sprintf("Configured encoding %q is unknown", enc),
			Status:  model.CheckStatusError,
		}
	}

	return model.CheckResult{
		ID:      "encoding",
		Message: fmt.Sprintf("Output will be decoded as %s", enc),
		Status:  model.CheckStatusOK,
	}
}

func (s *Service) checkLocale() model.CheckResult {
	locale := textenc.Default(s.cfg.Getenv)
	configured := s.cfg.Settings.Run.Encoding
	if configured == "" {
		configured = locale
	}

	if !textenc.Same(locale, configured) {
		return model.CheckResult{
			ID:      "locale_encoding",
			Message: fmt.Sprintf("Locale encoding %s differs from the configured %s", locale, configured),
			Status:  model.CheckStatusWarning,
		}
	}

	return model.CheckResult{
		ID:      "locale_encoding",
		Message: fmt.Sprintf("Locale encoding is %s", locale),
		Status:  model.CheckStatusOK,
	}
}

func (s *Service) checkHistory(ctx context.Context) model.CheckResult {
	if !s.cfg.Settings.History.Enabled {
		return model.CheckResult{
			ID:      "history",
			Message: "History is disabled",
			Status:  model.CheckStatusOK,
		}
	}

	if s.cfg.HistoryErr != nil || s.cfg.History == nil {
		err := s.cfg.HistoryErr
		if err == nil {
			err = fmt.Errorf("no history storage")
		}
		return model.CheckResult{
			ID:      "history",
			Message: fmt.Sprintf("Cannot open history at %s: %v", s.cfg.Settings.History.DBPath, err),
			Status:  model.CheckStatusError,
		}
	}

	version, err := s.cfg.History.SchemaVersion(ctx)
	if err != nil {
		return model.CheckResult{
			ID:      "history",
			Message: fmt.Sprintf("History schema is not usable: %v", err),
			Status:  model.CheckStatusError,
		}
	}

	return model.CheckResult{
		ID:      "history",
		Message: fmt.Sprintf("History at %s (schema v%d)", s.cfg.Settings.History.DBPath, version),
		Status:  model.CheckStatusOK,
	}
}
