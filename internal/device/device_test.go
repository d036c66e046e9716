package device_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/healthsync/vitalsim/internal/device"
	"github.com/healthsync/vitalsim/internal/errors"
	"github.com/healthsync/vitalsim/internal/vitals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPusher struct {
	pushes chan *device.Reading
	err    error
}

func (p *countingPusher) Push(_ context.Context, r *device.Reading) error {
	select {
	case p.pushes <- r:
	default:
	}
	return p.err
}

type panickingPusher struct{}

func (panickingPusher) Push(context.Context, *device.Reading) error {
	panic("transport wedged")
}

func watchConfig(interval time.Duration) device.Config {
	return device.Config{
		ID:       "dev_001",
		Name:     "Smart Watch Pro",
		Type:     "smartwatch",
		Interval: interval,
		Metrics:  []vitals.Metric{vitals.MetricHeartRate, vitals.MetricHRV, vitals.MetricSteps},
	}
}

func TestWorkerEmitsOnSchedule(t *testing.T) {
	pusher := &countingPusher{pushes: make(chan *device.Reading, 64)}
	state := vitals.NewState(0, 1)
	w := device.NewWorker(watchConfig(20*time.Millisecond), state, pusher, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 130*time.Millisecond)
	defer cancel()
	w.Run(ctx)

	// Immediate first emission plus roughly one per interval.
	assert.GreaterOrEqual(t, w.Emitted(), uint64(4))

	r := <-pusher.pushes
	assert.Equal(t, "dev_001", r.DeviceID)
	assert.Len(t, r.Values, 3)
	assert.Contains(t, r.Values, vitals.MetricHeartRate)
}

func TestWorkerKeepsCountingWhenEveryPushFails(t *testing.T) {
	pusher := &countingPusher{
		pushes: make(chan *device.Reading, 64),
		err:    errors.New().New(errors.ErrUnavailable),
	}
	state := vitals.NewState(0, 1)
	w := device.NewWorker(watchConfig(20*time.Millisecond), state, pusher, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 130*time.Millisecond)
	defer cancel()
	w.Run(ctx)

	assert.GreaterOrEqual(t, w.Emitted(), uint64(4),
		"delivery failures must not stop or slow the schedule")
}

func TestWorkerSurvivesPanicInCycle(t *testing.T) {
	state := vitals.NewState(0, 1)
	w := device.NewWorker(watchConfig(20*time.Millisecond), state, panickingPusher{}, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Millisecond)
	defer cancel()

	require.NotPanics(t, func() { w.Run(ctx) })
	assert.GreaterOrEqual(t, w.Emitted(), uint64(2),
		"a failing cycle must not take the worker down")
}

func TestWorkerStopsPromptlyOnCancel(t *testing.T) {
	pusher := &countingPusher{pushes: make(chan *device.Reading, 64)}
	state := vitals.NewState(0, 1)
	// Long interval: the wait must be interruptible, not a fixed sleep.
	w := device.NewWorker(watchConfig(time.Hour), state, pusher, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not observe cancellation during its interval wait")
	}
	assert.Equal(t, uint64(1), w.Emitted())
}

func TestReadingMarshalsFlat(t *testing.T) {
	r := &device.Reading{
		DeviceID:  "dev_002",
		Timestamp: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Values: map[vitals.Metric]float64{
			vitals.MetricSystolicBP:  121,
			vitals.MetricDiastolicBP: 79,
		},
	}

	raw, err := json.Marshal(r)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))

	assert.Equal(t, "dev_002", payload["device_id"])
	assert.Equal(t, "2026-03-14T09:00:00Z", payload["timestamp"])
	assert.Equal(t, float64(121), payload["systolic_bp"])
	assert.Equal(t, float64(79), payload["diastolic_bp"])
	assert.Len(t, payload, 4, "metrics are flattened beside device_id and timestamp")
}
