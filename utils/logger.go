package utils

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides leveled, printf-style logging throughout the application.
// Messages keep the "[component]" prefix convention; structured fields are
// attached with With.
type Logger struct {
	sugar *zap.SugaredLogger
}

// NewLogger creates an info-level Logger writing colored console output to stdout.
func NewLogger() *Logger {
	l, err := NewLoggerWithLevel("info", "console")
	if err != nil {
		// console/info is always valid
		panic(err)
	}
	return l
}

// NewLoggerWithLevel builds a Logger for the given level (debug, info, warn, error)
// and format ("console" or "json").
func NewLoggerWithLevel(level, format string) (*Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder

	var enc zapcore.Encoder
	switch strings.ToLower(format) {
	case "json":
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(encCfg)
	case "", "console":
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("logger: unknown format %q", format)
	}

	// errors go to stderr, everything else to stdout
	low := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= lvl && l < zapcore.ErrorLevel })
	high := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= lvl && l >= zapcore.ErrorLevel })
	core := zapcore.NewTee(
		zapcore.NewCore(enc, zapcore.Lock(os.Stdout), low),
		zapcore.NewCore(enc, zapcore.Lock(os.Stderr), high),
	)

	return &Logger{sugar: zap.New(core).Sugar()}, nil
}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("logger: unknown level %q", level)
	}
}

// With returns a child Logger that adds key=value to every entry.
func (l *Logger) With(key string, value any) *Logger {
	return &Logger{sugar: l.sugar.With(key, value)}
}

func (l *Logger) Info(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.sugar.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.sugar.Debugf(format, args...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
