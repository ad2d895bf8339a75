package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LogLevel uses the slog level values so it can feed handlers directly.
type LogLevel = slog.Level

const (
	DEBUG = slog.LevelDebug
	INFO  = slog.LevelInfo
	WARN  = slog.LevelWarn
	ERROR = slog.LevelError
)

const redacted = "[redacted]"

var secretKeys = map[string]bool{
	"password": true,
	"token":    true,
	"dsn":      true,
}

var (
	Logger *slog.Logger
	level  slog.LevelVar
)

func init() {
	Logger = slog.New(newHandler("text", os.Stderr))
}

type Options struct {
	Level string
	File  string
	// Format is "text" (default) or "json".
	Format string
	// Quiet drops the stderr sink so CLI output stays clean; File still receives records.
	Quiet bool
}

func Configure(opts Options) error {
	var errs []error
	if strings.TrimSpace(opts.Level) != "" {
		parsed, err := ParseLogLevel(opts.Level)
		if err != nil {
			errs = append(errs, err)
		} else {
			level.Set(parsed)
		}
	}

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	switch format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q", opts.Format))
		format = "text"
	}

	var sinks []io.Writer
	if !opts.Quiet {
		sinks = append(sinks, os.Stderr)
	}
	if path := strings.TrimSpace(opts.File); path != "" {
		file, err := openLogFile(path)
		if err != nil {
			errs = append(errs, err)
		} else {
			sinks = append(sinks, file)
		}
	}

	var writer io.Writer
	switch len(sinks) {
	case 0:
		writer = io.Discard
	case 1:
		writer = sinks[0]
	default:
		writer = io.MultiWriter(sinks...)
	}
	Logger = slog.New(newHandler(format, writer))
	return errors.Join(errs...)
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func newHandler(format string, w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: &level, ReplaceAttr: redactSecrets}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// redactSecrets masks credentials that end up in key/value pairs.
func redactSecrets(groups []string, a slog.Attr) slog.Attr {
	if secretKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, redacted)
	}
	return a
}

func SetLogLevel(l LogLevel) {
	level.Set(l)
}

func Enabled(l LogLevel) bool {
	return l >= level.Level()
}

func ParseLogLevel(value string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("invalid log level %q", value)
	}
}

func Debug(msg string, args ...any) {
	if Enabled(DEBUG) {
		Logger.Debug(msg, args...)
	}
}

func Info(msg string, args ...any) {
	if Enabled(INFO) {
		Logger.Info(msg, args...)
	}
}

func Warn(msg string, args ...any) {
	if Enabled(WARN) {
		Logger.Warn(msg, args...)
	}
}

func Error(msg string, args ...any) {
	if Enabled(ERROR) {
		Logger.Error(msg, args...)
	}
}
