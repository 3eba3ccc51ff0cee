package logger

import (
	"context"
	"fmt"
	"time"

	"github.com/orgsim/orgsim/utils"
	"github.com/sirupsen/logrus"
)

// LogrusLogger implements Interface using logrus
type LogrusLogger struct {
	Logger                    *logrus.Logger
	LogLevel                  LogLevel
	SlowThreshold             time.Duration
	IgnoreRecordNotFoundError bool
}

// NewLogrusLogger creates a new logger using logrus
func NewLogrusLogger(logger *logrus.Logger, config Config) Interface {
	return &LogrusLogger{
		Logger:                    logger,
		LogLevel:                  config.LogLevel,
		SlowThreshold:             config.SlowThreshold,
		IgnoreRecordNotFoundError: config.IgnoreRecordNotFoundError,
	}
}

// LogMode sets the log level
func (l *LogrusLogger) LogMode(level LogLevel) Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

func (l *LogrusLogger) entry(ctx context.Context, data []interface{}) *logrus.Entry {
	entry := l.Logger.WithFields(logrus.Fields{
		"file": utils.FileWithLineNum(),
		"data": data,
	})
	if ctx != nil {
		entry = entry.WithContext(ctx)
	}
	return entry
}

// Info logs info messages
func (l *LogrusLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Info {
		l.entry(ctx, data).Info(msg)
	}
}

// Warn logs warning messages
func (l *LogrusLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Warn {
		l.entry(ctx, data).Warn(msg)
	}
}

// Error logs error messages
func (l *LogrusLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Error {
		l.entry(ctx, data).Error(msg)
	}
}

// Trace logs operation execution details
func (l *LogrusLogger) Trace(ctx context.Context, begin time.Time, fc func() (operation string, rowsAffected int64), err error) {
	if l.LogLevel <= Silent {
		return
	}

	elapsed := time.Since(begin)
	operation, rows := fc()

	fields := logrus.Fields{
		"file":      utils.FileWithLineNum(),
		"duration":  fmt.Sprintf("%.3fms", float64(elapsed.Nanoseconds())/1e6),
		"operation": operation,
	}

	if rows != -1 {
		fields["rows"] = rows
	}

	entry := l.Logger.WithFields(fields)
	if ctx != nil {
		entry = entry.WithContext(ctx)
	}

	switch {
	case isReportable(err, l.IgnoreRecordNotFoundError) && l.LogLevel >= Error:
		entry = entry.WithField("error", err.Error())
		if code, ok := FaultCode(err); ok {
			entry = entry.WithField("fault_code", code)
		}
		entry.Error("operation executed")

	case l.SlowThreshold != 0 && elapsed > l.SlowThreshold && l.LogLevel >= Warn:
		entry.WithField("slow_threshold", l.SlowThreshold.String()).Warn("SLOW operation executed")

	case l.LogLevel >= Info:
		entry.Info("operation executed")
	}
}
