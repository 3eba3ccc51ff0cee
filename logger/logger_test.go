package logger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"silent": Silent,
		"ERROR":  Error,
		" warn ": Warn,
		"info":   Info,
		"":       Warn,
		"debug":  Warn,
	}

	for name, want := range tests {
		assert.Equal(t, want, ParseLevel(name), name)
	}

	assert.Equal(t, "info", Info.String())
	assert.Equal(t, Error, ParseLevel(Error.String()))
}

func TestIsReportable(t *testing.T) {
	wrapped := fmt.Errorf("retrieve: %w", ErrRecordNotFound)

	assert.False(t, isReportable(nil, false))
	assert.True(t, isReportable(wrapped, false))
	assert.False(t, isReportable(wrapped, true))
	assert.True(t, isReportable(fmt.Errorf("other"), true))
}

type codedTestError struct{ code int32 }

func (e codedTestError) Error() string    { return "coded" }
func (e codedTestError) FaultCode() int32 { return e.code }

func TestFaultCode(t *testing.T) {
	code, ok := FaultCode(fmt.Errorf("create: %w", codedTestError{code: -2147220969}))
	assert.True(t, ok)
	assert.Equal(t, int32(-2147220969), code)

	_, ok = FaultCode(fmt.Errorf("plain"))
	assert.False(t, ok)
}
