package sim_test

import (
	"context"
	"testing"
	"time"

	"github.com/healthsync/vitalsim/internal/device"
	"github.com/healthsync/vitalsim/internal/errors"
	"github.com/healthsync/vitalsim/internal/sim"
	"github.com/healthsync/vitalsim/internal/vitals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type okPusher struct{}

func (okPusher) Push(context.Context, *device.Reading) error { return nil }

type failPusher struct{}

func (failPusher) Push(context.Context, *device.Reading) error {
	return errors.New().New(errors.ErrUnavailable)
}

// blockingPusher never returns until released, simulating a worker
// stuck on network I/O through shutdown.
type blockingPusher struct {
	release chan struct{}
}

func (p *blockingPusher) Push(context.Context, *device.Reading) error {
	<-p.release
	return nil
}

func fleet(intervals ...time.Duration) []device.Config {
	devices := make([]device.Config, len(intervals))
	for i, interval := range intervals {
		devices[i] = device.Config{
			ID:       string(rune('a' + i)),
			Name:     "test device",
			Type:     "test",
			Interval: interval,
			Metrics:  []vitals.Metric{vitals.MetricHeartRate},
		}
	}
	return devices
}

func TestRunSummaryTotalsMatchPerDeviceCounts(t *testing.T) {
	o, err := sim.New(sim.Config{
		Devices:     fleet(20*time.Millisecond, 100*time.Millisecond),
		Seed:        1,
		Duration:    250 * time.Millisecond,
		JoinTimeout: time.Second,
	}, okPusher{}, nil, nil)
	require.NoError(t, err)

	summary, err := o.Run(context.Background())
	require.NoError(t, err)

	var sum uint64
	for _, count := range summary.PerDevice {
		sum += count
	}
	assert.Equal(t, summary.Total, sum)

	// The fast device emits immediately and then every 20ms; the slow
	// one every 100ms. Bounds are generous to absorb scheduling jitter.
	assert.GreaterOrEqual(t, summary.PerDevice["a"], uint64(8))
	assert.GreaterOrEqual(t, summary.PerDevice["b"], uint64(2))
	assert.LessOrEqual(t, summary.PerDevice["b"], uint64(4))
	assert.Greater(t, summary.PerDevice["a"], summary.PerDevice["b"])
}

func TestRunWithFailingPusherKeepsEmitting(t *testing.T) {
	o, err := sim.New(sim.Config{
		Devices:     fleet(20 * time.Millisecond),
		Seed:        1,
		Duration:    130 * time.Millisecond,
		JoinTimeout: time.Second,
	}, failPusher{}, nil, nil)
	require.NoError(t, err)

	summary, err := o.Run(context.Background())
	require.NoError(t, err)

	// Delivery failures must not slow or stop the schedule.
	assert.GreaterOrEqual(t, summary.Total, uint64(4))
}

func TestRunReturnsWithinJoinTimeout(t *testing.T) {
	pusher := &blockingPusher{release: make(chan struct{})}
	defer close(pusher.release)

	o, err := sim.New(sim.Config{
		Devices:     fleet(20 * time.Millisecond),
		Seed:        1,
		Duration:    50 * time.Millisecond,
		JoinTimeout: 200 * time.Millisecond,
	}, pusher, nil, nil)
	require.NoError(t, err)

	start := time.Now()
	summary, err := o.Run(context.Background())
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, errors.ErrJoinTimeout, errors.CodeOf(err))
	assert.Less(t, elapsed, 2*time.Second, "run must not await a blocked worker indefinitely")
	assert.Equal(t, uint64(1), summary.Total, "the blocked first cycle was still counted")
}

func TestRunStopsOnExternalCancellation(t *testing.T) {
	o, err := sim.New(sim.Config{
		Devices:     fleet(10 * time.Millisecond),
		Seed:        1,
		JoinTimeout: time.Second,
	}, okPusher{}, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(80 * time.Millisecond)
		cancel()
	}()

	summary, err := o.Run(ctx)
	require.NoError(t, err)
	assert.Positive(t, summary.Total)
}

func TestNewRejectsInvalidFleet(t *testing.T) {
	cases := []struct {
		name    string
		devices []device.Config
		code    errors.ErrorCode
	}{
		{"empty fleet", nil, errors.ErrInvalidConfig},
		{"missing id", []device.Config{{Interval: time.Second, Metrics: []vitals.Metric{vitals.MetricSpO2}}}, errors.ErrInvalidDevice},
		{"bad interval", []device.Config{{ID: "x", Metrics: []vitals.Metric{vitals.MetricSpO2}}}, errors.ErrInvalidInterval},
		{"no metrics", []device.Config{{ID: "x", Interval: time.Second}}, errors.ErrInvalidDevice},
		{"unknown metric", []device.Config{{ID: "x", Interval: time.Second, Metrics: []vitals.Metric{"blood_sugar"}}}, errors.ErrUnknownMetric},
		{"duplicate id", []device.Config{
			{ID: "x", Interval: time.Second, Metrics: []vitals.Metric{vitals.MetricSpO2}},
			{ID: "x", Interval: time.Second, Metrics: []vitals.Metric{vitals.MetricSpO2}},
		}, errors.ErrInvalidDevice},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := sim.New(sim.Config{Devices: tc.devices}, okPusher{}, nil, nil)
			require.Error(t, err)
			assert.Equal(t, tc.code, errors.CodeOf(err))
		})
	}
}
