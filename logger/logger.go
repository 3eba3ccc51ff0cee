package logger

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrRecordNotFound record not found error
var ErrRecordNotFound = errors.New("record not found")

// LogLevel log level
type LogLevel int

const (
	// Silent silent log level
	Silent LogLevel = iota + 1
	// Error error log level
	Error
	// Warn warn log level
	Warn
	// Info info log level
	Info
)

// String returns the level name used by ParseLevel
func (l LogLevel) String() string {
	switch l {
	case Silent:
		return "silent"
	case Error:
		return "error"
	case Warn:
		return "warn"
	case Info:
		return "info"
	}
	return "unknown"
}

// ParseLevel converts a level name into a LogLevel, unknown names fall back to Warn
func ParseLevel(name string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "silent":
		return Silent
	case "error":
		return Error
	case "info":
		return Info
	default:
		return Warn
	}
}

// Config logger config
type Config struct {
	SlowThreshold             time.Duration
	LogLevel                  LogLevel
	IgnoreRecordNotFoundError bool
}

// Interface logger interface
type Interface interface {
	LogMode(LogLevel) Interface
	Info(context.Context, string, ...interface{})
	Warn(context.Context, string, ...interface{})
	Error(context.Context, string, ...interface{})
	Trace(ctx context.Context, begin time.Time, fc func() (operation string, rowsAffected int64), err error)
}

var (
	// Discard logger will print nothing
	Discard = NewZapLogger(zap.NewNop(), Config{LogLevel: Silent})
	// Default default logger, level taken from ORGSIM_LOG_LEVEL
	Default = NewZapLoggerWithConfig(Config{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      ParseLevel(os.Getenv("ORGSIM_LOG_LEVEL")),
	})
)

// codedError an error carrying a remote service error code
type codedError interface {
	error
	FaultCode() int32
}

// FaultCode returns the error code carried by err, ok is false for plain errors
func FaultCode(err error) (code int32, ok bool) {
	var c codedError
	if errors.As(err, &c) {
		return c.FaultCode(), true
	}
	return 0, false
}

func isReportable(err error, ignoreRecordNotFound bool) bool {
	return err != nil && (!ignoreRecordNotFound || !errors.Is(err, ErrRecordNotFound))
}
