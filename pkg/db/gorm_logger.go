package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/smith3v/mood-tracker/pkg/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// queryLogger sends gorm traces to the application logger. Plain queries are
// logged at debug so a normal run only shows failures and slow statements.
type queryLogger struct {
	level gormlogger.LogLevel
	slow  time.Duration
}

var gormLevels = map[string]gormlogger.LogLevel{
	"silent": gormlogger.Silent,
	"error":  gormlogger.Error,
	"warn":   gormlogger.Warn,
	"info":   gormlogger.Info,
}

// newQueryLogger falls back to warn when level is not recognised and reports
// the bad value.
func newQueryLogger(level string, slow time.Duration) (*queryLogger, error) {
	l := &queryLogger{level: gormlogger.Warn, slow: slow}
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "" {
		return l, nil
	}
	parsed, ok := gormLevels[name]
	if !ok {
		return l, fmt.Errorf("invalid gorm log level %q", level)
	}
	l.level = parsed
	return l, nil
}

func (l *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	copied := *l
	copied.level = level
	return &copied
}

func (l *queryLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, gormlogger.Info, slog.LevelInfo, fmt.Sprintf(msg, args...))
}

func (l *queryLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, gormlogger.Warn, slog.LevelWarn, fmt.Sprintf(msg, args...))
}

func (l *queryLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, gormlogger.Error, slog.LevelError, fmt.Sprintf(msg, args...))
}

func (l *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level == gormlogger.Silent {
		return
	}
	// Lookups for a missing row are normal control flow in the store.
	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return
	}

	took := time.Since(begin)
	statement, rows := fc()
	attrs := []slog.Attr{
		slog.String("op", statementVerb(statement)),
		slog.Duration("took", took),
		slog.Int64("rows", rows),
		slog.String("statement", statement),
	}

	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
		l.log(ctx, gormlogger.Error, slog.LevelError, "store query failed", attrs...)
		return
	}
	if l.slow > 0 && took > l.slow {
		attrs = append(attrs, slog.Duration("slow_after", l.slow))
		l.log(ctx, gormlogger.Warn, slog.LevelWarn, "slow store query", attrs...)
		return
	}
	l.log(ctx, gormlogger.Info, slog.LevelDebug, "store query", attrs...)
}

func (l *queryLogger) log(ctx context.Context, needs gormlogger.LogLevel, level slog.Level, msg string, attrs ...slog.Attr) {
	if l.level < needs || !logger.Enabled(level) {
		return
	}
	logger.Logger.LogAttrs(ctx, level, msg, append(attrs, slog.String("component", "store"))...)
}

// statementVerb returns the leading SQL keyword, e.g. "select" or "insert".
func statementVerb(statement string) string {
	fields := strings.Fields(statement)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
