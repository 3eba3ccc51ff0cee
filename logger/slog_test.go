//go:build go1.21

package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlogLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := slog.NewTextHandler(buf, &slog.HandlerOptions{AddSource: true})
	logger := NewSlogLogger(slog.New(handler), Config{LogLevel: Info})

	logger.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "RetrieveMultiple contact", 0
	}, nil)

	assert.NotContains(t, buf.String(), "logger/slog.go", "caller frame should skip the adapter")
	assert.Contains(t, buf.String(), "logger/slog_test.go")
	assert.Contains(t, buf.String(), "trace.operation")
}
