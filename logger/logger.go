// Package logger wraps log/slog so every package logs through one configurable
// handler. The default is JSON on stderr at info level; the text format uses
// tint for colored console output.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Logger is the default logger instance.
var Logger *slog.Logger

var (
	level  = new(slog.LevelVar)
	format = FormatJSON
	output io.Writer = os.Stderr
)

// Output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

func init() {
	level.Set(slog.LevelInfo)
	Logger = slog.New(newHandler())
}

func newHandler() slog.Handler {
	if format == FormatText {
		return tint.NewHandler(output, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    !isTerminal(output),
		})
	}
	return slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ParseLevel maps debug/info/warn/error (any case) to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return l, nil
}

// SetLevel configures the logging level.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// Configure replaces the handler. format is "json" or "text"; a nil w keeps the
// current output.
func Configure(lvl slog.Level, f string, w io.Writer) error {
	switch f {
	case FormatJSON, FormatText:
	case "":
		f = FormatJSON
	default:
		return fmt.Errorf("invalid log format %q (expected json or text)", f)
	}
	if w != nil {
		output = w
	}
	format = f
	SetLevel(lvl)
	Logger = slog.New(newHandler())
	return nil
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

// With returns a logger carrying the given attributes.
func With(args ...any) *slog.Logger {
	return Logger.With(args...)
}
