package model

import (
	"fmt"
	"os"
	"strings"

	"github.com/slok/invk/internal/textenc"
)

// Hide selects which output streams are kept off the real terminal.
// Capture is never affected by hiding.
type Hide string

const (
	// HideNone echoes both streams.
	HideNone Hide = "none"
	// HideStdout suppresses the stdout echo.
	HideStdout Hide = "stdout"
	// HideStderr suppresses the stderr echo.
	HideStderr Hide = "stderr"
	// HideBoth suppresses all echo.
	HideBoth Hide = "both"
)

// ParseHide parses the user facing hide values, accepting the short aliases
// "out" and "err" and "true" as a synonym of "both".
func ParseHide(s string) (Hide, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "false":
		return HideNone, nil
	case "out", "stdout":
		return HideStdout, nil
	case "err", "stderr":
		return HideStderr, nil
	case "both", "true":
		return HideBoth, nil
	}

	return "", fmt.Errorf("invalid hide value %q (must be: none, stdout, stderr, both): %w", s, ErrNotValid)
}

// HidesStdout returns true if the stdout echo is suppressed.
func (h Hide) HidesStdout() bool { return h == HideStdout || h == HideBoth }

// HidesStderr returns true if the stderr echo is suppressed.
func (h Hide) HidesStderr() bool { return h == HideStderr || h == HideBoth }

// CommandSpec describes what to run and how. It is immutable once built,
// use NewCommandSpec to create one.
type CommandSpec struct {
	command  string
	hide     Hide
	warn     bool
	pty      bool
	encoding string
}

// CommandSpecOption configures a CommandSpec at construction time.
type CommandSpecOption func(*CommandSpec)

// WithHide sets the echo hide policy.
func WithHide(h Hide) CommandSpecOption {
	return func(c *CommandSpec) { c.hide = h }
}

// WithWarn makes nonzero exits be returned as data instead of errors.
func WithWarn(warn bool) CommandSpecOption {
	return func(c *CommandSpec) { c.warn = warn }
}

// WithPty runs the command attached to a pseudo-terminal.
func WithPty(pty bool) CommandSpecOption {
	return func(c *CommandSpec) { c.pty = pty }
}

// WithEncoding sets the encoding used to decode the captured output.
func WithEncoding(encoding string) CommandSpecOption {
	return func(c *CommandSpec) { c.encoding = encoding }
}

// NewCommandSpec validates and defaults a new command spec. Unset options
// default to no hiding, no warn, no pty and the platform encoding taken
// from the locale environment.
func NewCommandSpec(command string, opts ...CommandSpecOption) (CommandSpec, error) {
	c := CommandSpec{command: command}
	for _, opt := range opts {
		opt(&c)
	}

	if strings.TrimSpace(c.command) == "" {
		return CommandSpec{}, fmt.Errorf("command cannot be empty: %w", ErrNotValid)
	}

	if c.hide == "" {
		c.hide = HideNone
	}
	switch c.hide {
	case HideNone, HideStdout, HideStderr, HideBoth:
	default:
		return CommandSpec{}, fmt.Errorf("invalid hide policy %q: %w", c.hide, ErrNotValid)
	}

	if c.encoding == "" {
		c.encoding = textenc.Default(os.Getenv)
	}
	if _, err := textenc.Lookup(c.encoding); err != nil {
		return CommandSpec{}, fmt.Errorf("invalid encoding: %s: %w", err, ErrNotValid)
	}

	return c, nil
}

// Command returns the command line interpreted by the shell.
func (c CommandSpec) Command() string { return c.command }

// Hide returns the echo hide policy.
func (c CommandSpec) Hide() Hide { return c.hide }

// Warn returns true if nonzero exits are returned as data instead of errors.
func (c CommandSpec) Warn() bool { return c.warn }

// Pty returns true if the command runs attached to a pseudo-terminal.
func (c CommandSpec) Pty() bool { return c.pty }

// Encoding returns the encoding used to decode the captured output.
func (c CommandSpec) Encoding() string { return c.encoding }
