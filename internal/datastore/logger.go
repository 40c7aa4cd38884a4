package datastore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	gormlogger "gorm.io/gorm/logger"

	"github.com/wingman2025/birdtarifa/internal/logging"
)

var (
	datastoreLogger   *slog.Logger
	datastoreLevelVar = new(slog.LevelVar)
	closeLogger       func() error
)

func init() {
	datastoreLevelVar.Set(slog.LevelInfo)
	var err error
	datastoreLogger, closeLogger, err = logging.NewFileLogger("logs/datastore.log", "datastore", datastoreLevelVar)
	if err != nil || datastoreLogger == nil {
		datastoreLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
		closeLogger = func() error { return nil }
	}
}

// CloseLogger releases the package log file. Call during shutdown.
func CloseLogger() error {
	if closeLogger != nil {
		return closeLogger()
	}
	return nil
}

// slogGormLogger routes GORM's own logging into the package slog logger.
// Slow queries over the threshold are logged at warn.
type slogGormLogger struct {
	slowThreshold time.Duration
	level         gormlogger.LogLevel
}

func createGormLogger() gormlogger.Interface {
	return &slogGormLogger{
		slowThreshold: 200 * time.Millisecond,
		level:         gormlogger.Warn,
	}
}

func (l *slogGormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *slogGormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		datastoreLogger.Info(fmt.Sprintf(msg, args...))
	}
}

func (l *slogGormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		datastoreLogger.Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *slogGormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		datastoreLogger.Error(fmt.Sprintf(msg, args...))
	}
}

func (l *slogGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	switch {
	case err != nil && l.level >= gormlogger.Error:
		datastoreLogger.Error("query failed", "sql", sql, "rows", rows, "elapsed", elapsed, "error", err)
	case elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		datastoreLogger.Warn("slow query", "sql", sql, "rows", rows, "elapsed", elapsed)
	case l.level >= gormlogger.Info:
		datastoreLogger.Info("query", "sql", sql, "rows", rows, "elapsed", elapsed)
	}
}
