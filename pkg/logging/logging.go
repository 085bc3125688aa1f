// Package logging is a thin process-wide wrapper around a zap logger.
package logging

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger atomic.Pointer[zap.Logger]

func init() {
	l, err := newLogger("info")
	if err != nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build(zap.AddCallerSkip(1))
}

// Init replaces the process logger with one writing at the given level.
func Init(level string) error {
	l, err := newLogger(level)
	if err != nil {
		return err
	}
	if old := logger.Swap(l); old != nil {
		_ = old.Sync()
	}
	return nil
}

// Use installs an existing logger, mostly for tests.
func Use(l *zap.Logger) {
	logger.Store(l.WithOptions(zap.AddCallerSkip(1)))
}

func L() *zap.Logger {
	return logger.Load()
}

func Debug(msg string, fields ...zap.Field) {
	logger.Load().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	logger.Load().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	logger.Load().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	logger.Load().Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	logger.Load().Fatal(msg, fields...)
}

func Sync() error {
	return logger.Load().Sync()
}
