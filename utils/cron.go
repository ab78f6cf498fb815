package utils

import (
	"fmt"
	"strings"
)

// CronLogger adapts Logger to the robfig/cron Logger interface. Scheduler
// chatter is logged at debug level, recovered job panics as errors.
type CronLogger struct {
	logger *Logger
}

// NewCronLogger wraps logger for cron.WithLogger and cron.Recover.
func NewCronLogger(logger *Logger) CronLogger {
	return CronLogger{logger: logger}
}

func (c CronLogger) Info(msg string, keysAndValues ...any) {
	c.logger.Debug("[cron] %s%s", msg, formatKV(keysAndValues))
}

func (c CronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.logger.Error("[cron] %s: %v%s", msg, err, formatKV(keysAndValues))
}

func formatKV(kv []any) string {
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	return b.String()
}
