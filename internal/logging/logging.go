// Package logging configures keepclipd's two standing loggers: a
// structured JSON logger (stdout, or a rotated file) and a human-readable
// text logger (stderr), both built on log/slog.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/keepclip/keepclip/internal/conf"
	kcerrors "github.com/keepclip/keepclip/internal/errors"
)

var (
	structuredLogger   *slog.Logger
	humanReadableLogger *slog.Logger
)

// LevelTrace and LevelFatal extend slog's four standard levels with the
// two keepclipd also uses.
const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelFatal: "FATAL",
}

// ParseLevel maps a config string ("trace", "debug", "info", "warn",
// "error", "fatal") to its slog.Level, defaulting to Info for anything
// unrecognized.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "fatal":
		return LevelFatal
	default:
		return slog.LevelInfo
	}
}

func replaceLevelAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level, _ := a.Value.Any().(slog.Level)
		if label, ok := levelNames[level]; ok {
			a.Value = slog.StringValue(label)
		}
	}
	return a
}

// Init builds the structured and human-readable loggers from cfg and
// installs the structured logger as slog's process default. If
// cfg.Path is set, the structured logger writes rotated JSON to that
// file (via lumberjack) instead of stdout.
func Init(cfg conf.LogSettings) (func() error, error) {
	level := ParseLevel(cfg.Level)

	var structuredOutput io.Writer = os.Stdout
	closeFunc := func() error { return nil }
	if cfg.Path != "" {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, kcerrors.New(err).
					Component("logging").
					Category(kcerrors.CategoryFileIO).
					Context("operation", "create-log-directory").
					Build()
			}
		}
		lj := &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.Rotation.MaxSizeMB,
			MaxBackups: cfg.Rotation.MaxBackups,
			MaxAge:     cfg.Rotation.MaxAgeDays,
			Compress:   cfg.Rotation.Compress,
		}
		structuredOutput = lj
		closeFunc = lj.Close
	}

	structuredHandler := newHandler(cfg.JSON, structuredOutput, level)
	structuredLogger = slog.New(structuredHandler)
	humanReadableLogger = slog.New(newHandler(false, os.Stderr, slog.LevelInfo))

	slog.SetDefault(structuredLogger)
	return closeFunc, nil
}

func newHandler(asJSON bool, w io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: replaceLevelAttr}
	if asJSON {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Structured returns the process-wide structured logger. Nil until Init runs.
func Structured() *slog.Logger { return structuredLogger }

// HumanReadable returns the process-wide text logger. Nil until Init runs.
func HumanReadable() *slog.Logger { return humanReadableLogger }

// ForComponent returns a structured logger with a "component" attribute,
// for passing into videoring.Config.Logger, avbuffer.Config.Logger, etc.
func ForComponent(name string) *slog.Logger {
	if structuredLogger == nil {
		return slog.Default().With("component", name)
	}
	return structuredLogger.With("component", name)
}

func Debug(msg string, args ...any) { slog.Debug(msg, args...) }
func Info(msg string, args ...any)  { slog.Info(msg, args...) }
func Warn(msg string, args ...any)  { slog.Warn(msg, args...) }
func Error(msg string, args ...any) { slog.Error(msg, args...) }

// Trace logs at LevelTrace using the default logger.
func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}

// Fatal logs at LevelFatal using the default logger, then exits.
func Fatal(msg string, args ...any) {
	slog.Log(context.Background(), LevelFatal, msg, args...)
	os.Exit(1)
}
