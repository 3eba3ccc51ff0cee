package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newBufferedLogrus(buf *bytes.Buffer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(buf)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.DebugLevel)
	return l
}

func TestLogrusLogger(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := NewLogrusLogger(newBufferedLogrus(&buf), Config{
		LogLevel:      Info,
		SlowThreshold: 50 * time.Millisecond,
	})

	t.Run("Warn", func(t *testing.T) {
		buf.Reset()
		logger.Warn(ctx, "rule warning", "connection")
		assert.Contains(t, buf.String(), `"level":"warning"`)
		assert.Contains(t, buf.String(), "rule warning")
	})

	t.Run("Trace", func(t *testing.T) {
		buf.Reset()
		logger.Trace(ctx, time.Now(), func() (string, int64) {
			return "Associate contact_account", 1
		}, nil)
		assert.Contains(t, buf.String(), `"operation":"Associate contact_account"`)
		assert.Contains(t, buf.String(), "operation executed")
	})

	t.Run("Slow", func(t *testing.T) {
		buf.Reset()
		logger.Trace(ctx, time.Now().Add(-time.Second), func() (string, int64) {
			return "RetrieveMultiple account", 2
		}, nil)
		assert.Contains(t, buf.String(), "SLOW operation executed")
	})

	t.Run("Error", func(t *testing.T) {
		buf.Reset()
		logger.Trace(ctx, time.Now(), func() (string, int64) {
			return "Update contact", 0
		}, errors.New("duplicate key"))
		assert.Contains(t, buf.String(), `"level":"error"`)
		assert.Contains(t, buf.String(), "duplicate key")
	})

	t.Run("Silent", func(t *testing.T) {
		buf.Reset()
		logger.LogMode(Silent).Error(ctx, "nothing")
		assert.Empty(t, buf.String())
	})
}
