// Package log provides the logging interface for the invk SDK.
//
// [lib.Config] accepts any implementation of [Logger], [Noop] is used when
// none is set. Runs log at debug level (command, pty mode, exit code) and warn
// when a command is interrupted or the history can't be written.
//
// Adapting a logger only needs the format methods to do something useful:
//
//	type slogLogger struct{ kv []any }
//
//	func (l slogLogger) Infof(format string, args ...any)    { slog.Info(fmt.Sprintf(format, args...), l.kv...) }
//	func (l slogLogger) Warningf(format string, args ...any) { slog.Warn(fmt.Sprintf(format, args...), l.kv...) }
//	func (l slogLogger) Errorf(format string, args ...any)   { slog.Error(fmt.Sprintf(format, args...), l.kv...) }
//	func (l slogLogger) Debugf(format string, args ...any)   { slog.Debug(fmt.Sprintf(format, args...), l.kv...) }
//	// ... WithValues, WithCtxValues and SetValuesOnCtx
package log

import "github.com/slok/invk/internal/log"

// Logger is the interface that loggers must implement for the SDK.
type Logger = log.Logger

// Kv holds structured logging key-value pairs.
type Kv = log.Kv

// Noop is a logger that discards all log output.
var Noop = log.Noop
