// Copyright 2024 The go-equa Authors

// Package logutil adapts the teacher's glog-style terminal logger
// (github.com/equa/go-equa/log, itself internal to that module and
// unavailable outside it) into a standalone logger built on log/slog's
// plain text handler, with an optional rotating file sink via
// gopkg.in/natefinch/lumberjack.v2. Once a file sink is set, stderr is
// wrapped with mattn/go-colorable when mattn/go-isatty reports a
// terminal; the handler itself emits no color codes.
package logutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

var root atomic.Pointer[slog.Logger]

func init() {
	root.Store(slog.New(newHandler(os.Stderr)))
}

// SetFileOutput redirects all future root-logger output to a rotating
// file sink at path, in addition to the terminal. Every Logger resolves
// the root on each call rather than at construction time, so this takes
// effect for loggers already created, including package-level ones
// initialized before main() runs.
func SetFileOutput(path string, maxSizeMB int) {
	rotator := &lumberjack.Logger{
		Filename: path,
		MaxSize:  maxSizeMB,
		Compress: true,
	}
	root.Store(slog.New(newHandler(io.MultiWriter(terminalWriter(os.Stderr), rotator))))
}

func terminalWriter(f *os.File) io.Writer {
	if isatty.IsTerminal(f.Fd()) {
		return colorable.NewColorable(f)
	}
	return f
}

func newHandler(w io.Writer) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
}

// Logger is a thin, named wrapper over the package-level root logger,
// matching the teacher's key-value calling convention
// (log.Info("msg", "key", value, ...)). It resolves the current root on
// every call rather than caching it, so SetFileOutput affects Loggers
// already constructed, including those in package-level vars.
type Logger struct {
	component string
}

// New returns a Logger tagging every line with component.
func New(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) log(level slog.Level, msg string, kv ...any) {
	root.Load().Log(context.Background(), level, msg, append([]any{"component", l.component}, kv...)...)
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, kv ...any) { l.log(slog.LevelDebug, msg, kv...) }

// Info logs at info level.
func (l *Logger) Info(msg string, kv ...any) { l.log(slog.LevelInfo, msg, kv...) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, kv ...any) { l.log(slog.LevelWarn, msg, kv...) }

// Error logs at error level.
func (l *Logger) Error(msg string, kv ...any) { l.log(slog.LevelError, msg, kv...) }

// Crit logs at error level and terminates the process, matching the
// teacher's log.Crit behavior for unrecoverable startup failures.
func (l *Logger) Crit(msg string, kv ...any) {
	l.log(slog.LevelError, msg, kv...)
	fmt.Fprintln(os.Stderr, "fatal:", msg)
	os.Exit(1)
}
