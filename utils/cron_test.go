package utils

import (
	"errors"
	"strings"
	"testing"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{sugar: zap.New(core).Sugar()}, logs
}

func TestCronLogger(t *testing.T) {
	logger, logs := observedLogger()
	cl := NewCronLogger(logger)

	cl.Info("wake", "now", "10:00")
	cl.Error(errors.New("boom"), "panic", "stack", "main.go:1")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries; want 2", len(entries))
	}
	if entries[0].Level != zapcore.DebugLevel || entries[0].Message != "[cron] wake now=10:00" {
		t.Errorf("Info entry = %s %q", entries[0].Level, entries[0].Message)
	}
	if entries[1].Level != zapcore.ErrorLevel || entries[1].Message != "[cron] panic: boom stack=main.go:1" {
		t.Errorf("Error entry = %s %q", entries[1].Level, entries[1].Message)
	}
}

func TestCronLoggerRecoversJobPanic(t *testing.T) {
	logger, logs := observedLogger()

	job := cron.NewChain(cron.Recover(NewCronLogger(logger))).Then(cron.FuncJob(func() {
		panic("scan exploded")
	}))
	job.Run()

	errs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	if len(errs) != 1 {
		t.Fatalf("got %d error entries; want 1", len(errs))
	}
	if !strings.HasPrefix(errs[0].Message, "[cron] panic: scan exploded stack=") {
		t.Errorf("message = %q", errs[0].Message)
	}
}
