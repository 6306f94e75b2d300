package logging

import (
	"fmt"

	"github.com/rollbar/rollbar-go"
)

// RollbarConfig holds the settings used to report to Rollbar.
type RollbarConfig struct {
	Token       string
	Environment string
	CodeVersion string
	ServerHost  string
}

// RollbarLogger forwards warnings and errors to Rollbar and every record to the wrapped Logger.
type RollbarLogger struct {
	next Logger
}

var _ Logger = (*RollbarLogger)(nil)

// NewRollbar configures the rollbar client and wraps next.
//
// Reporting is disabled when the token is empty, the wrapped logger still receives every record.
func NewRollbar(next Logger, conf RollbarConfig) *RollbarLogger {
	rollbar.SetToken(conf.Token)
	rollbar.SetEnvironment(conf.Environment)
	if conf.CodeVersion != "" {
		rollbar.SetCodeVersion(conf.CodeVersion)
	}
	if conf.ServerHost != "" {
		rollbar.SetServerHost(conf.ServerHost)
	}
	rollbar.SetEnabled(conf.Token != "")

	return &RollbarLogger{next: next}
}

// expected fmt: msg, key, value, key, value... errors among the values are reported as such
func (l *RollbarLogger) prepare(msg string, keysAndValues []any) []any {
	extras := make(map[string]interface{}, len(keysAndValues)/2)
	var reported error
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		val := keysAndValues[i+1]
		if err, ok := val.(error); ok && reported == nil {
			reported = err
			continue
		}
		extras[key] = val
	}

	args := make([]any, 0, 2)
	if reported != nil {
		args = append(args, fmt.Errorf("%s: %w", msg, reported))
	} else {
		args = append(args, msg)
	}
	if len(extras) > 0 {
		args = append(args, extras)
	}
	return args
}

func (l *RollbarLogger) Debug(msg string, keysAndValues ...any) {
	l.next.Debug(msg, keysAndValues...)
}

func (l *RollbarLogger) Info(msg string, keysAndValues ...any) {
	l.next.Info(msg, keysAndValues...)
}

func (l *RollbarLogger) Warn(msg string, keysAndValues ...any) {
	rollbar.Warning(l.prepare(msg, keysAndValues)...)
	l.next.Warn(msg, keysAndValues...)
}

func (l *RollbarLogger) Error(msg string, keysAndValues ...any) {
	rollbar.Error(l.prepare(msg, keysAndValues)...)
	l.next.Error(msg, keysAndValues...)
}

// Fatal reports a critical item, waits for delivery and hands off to the wrapped logger.
func (l *RollbarLogger) Fatal(msg string, keysAndValues ...any) {
	rollbar.Critical(l.prepare(msg, keysAndValues)...)
	rollbar.Wait()
	l.next.Fatal(msg, keysAndValues...)
}

// Close flushes pending Rollbar items.
func (l *RollbarLogger) Close() {
	rollbar.Close()
}
