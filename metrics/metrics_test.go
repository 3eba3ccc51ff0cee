package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder, err := NewPrometheusRecorder(reg, "test")
	require.NoError(t, err)

	ctx := context.Background()
	recorder.Observe(ctx, "Create", true, time.Millisecond)
	recorder.Observe(ctx, "Create", true, 2*time.Millisecond)
	recorder.Observe(ctx, "Create", false, time.Millisecond)
	recorder.Observe(ctx, "Delete", true, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(recorder.operations.WithLabelValues("Create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.operations.WithLabelValues("Create", "failure")))
	assert.Equal(t, 3, testutil.CollectAndCount(recorder.operations))
	assert.Equal(t, 2, testutil.CollectAndCount(recorder.durations))
}

func TestPrometheusRecorderReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPrometheusRecorder(reg, "")
	require.NoError(t, err)
	second, err := NewPrometheusRecorder(reg, "")
	require.NoError(t, err)

	first.Observe(context.Background(), "Update", true, time.Millisecond)
	second.Observe(context.Background(), "Update", true, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(second.operations.WithLabelValues("Update", "success")))
}

func TestNoop(t *testing.T) {
	var r Recorder = Noop{}
	assert.NotPanics(t, func() { r.Observe(context.Background(), "Create", true, time.Second) })
}
