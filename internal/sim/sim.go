// Package sim runs the device fleet: it owns the shared subject state,
// spawns one worker per configured device, and coordinates shutdown.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/healthsync/vitalsim/internal/device"
	"github.com/healthsync/vitalsim/internal/errors"
	"github.com/healthsync/vitalsim/internal/logger"
	"github.com/healthsync/vitalsim/internal/metrics"
	"github.com/healthsync/vitalsim/internal/vitals"
)

const defaultJoinTimeout = 5 * time.Second

// Config holds the orchestrator's tunables.
type Config struct {
	Devices            []device.Config
	AnomalyProbability float64
	Seed               int64

	// Duration bounds the run; zero means run until the context is
	// cancelled externally.
	Duration time.Duration

	// JoinTimeout bounds how long Run waits for workers after
	// cancellation before abandoning stragglers.
	JoinTimeout time.Duration
}

// Summary reports what the fleet produced during a run.
type Summary struct {
	Total     uint64
	PerDevice map[string]uint64
}

// Orchestrator wires one shared vitals.State to N device workers.
type Orchestrator struct {
	cfg      Config
	state    *vitals.State
	pusher   device.Pusher
	recorder device.Recorder
	metrics  *metrics.Metrics
}

// New validates the device configs and builds an orchestrator.
// recorder and m may be nil.
func New(cfg Config, pusher device.Pusher, recorder device.Recorder, m *metrics.Metrics) (*Orchestrator, error) {
	if err := validateDevices(cfg.Devices); err != nil {
		return nil, err
	}

	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = defaultJoinTimeout
	}

	return &Orchestrator{
		cfg:      cfg,
		state:    vitals.NewState(cfg.AnomalyProbability, cfg.Seed),
		pusher:   pusher,
		recorder: recorder,
		metrics:  m,
	}, nil
}

// State exposes the shared subject state, mainly for scripted
// scenarios that force an anomaly before starting the fleet.
func (o *Orchestrator) State() *vitals.State {
	return o.state
}

// Run spawns every worker and blocks until all of them have observed
// cancellation and stopped, or the join timeout expires. Every worker
// is joined-or-abandoned before Run returns; abandoned workers are
// goroutines blocked on a push whose own timeout will reap them.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	runCtx := ctx
	if o.cfg.Duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.cfg.Duration)
		defer cancel()
	}

	workers := make([]*device.Worker, 0, len(o.cfg.Devices))
	var wg sync.WaitGroup

	for _, devCfg := range o.cfg.Devices {
		w := device.NewWorker(devCfg, o.state, o.pusher, o.recorder, o.metrics)
		workers = append(workers, w)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if o.metrics != nil {
				o.metrics.ActiveDevices.Inc()
				defer o.metrics.ActiveDevices.Dec()
			}
			w.Run(runCtx)
		}()
	}

	logger.Info().Int("devices", len(workers)).Msg("All devices started")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var joinErr error
	select {
	case <-done:
	case <-runCtx.Done():
		select {
		case <-done:
		case <-time.After(o.cfg.JoinTimeout):
			joinErr = errors.New().New(errors.ErrJoinTimeout)
			logger.Warn().
				Dur("join_timeout", o.cfg.JoinTimeout).
				Msg("Abandoning workers that did not stop in time")
		}
	}

	return o.summarize(workers), joinErr
}

func (o *Orchestrator) summarize(workers []*device.Worker) Summary {
	summary := Summary{PerDevice: make(map[string]uint64, len(workers))}
	for _, w := range workers {
		count := w.Emitted()
		summary.PerDevice[w.ID()] = count
		summary.Total += count
	}

	return summary
}

func validateDevices(devices []device.Config) error {
	errFactory := errors.New()

	if len(devices) == 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "no devices configured")
	}

	seen := make(map[string]bool, len(devices))
	for _, d := range devices {
		if d.ID == "" {
			return errFactory.WithData(errors.ErrInvalidDevice, d.Name)
		}
		if seen[d.ID] {
			return errFactory.WithData(errors.ErrInvalidDevice, d.ID)
		}
		seen[d.ID] = true

		if d.Interval <= 0 {
			return errFactory.WithData(errors.ErrInvalidInterval, d.ID)
		}
		if len(d.Metrics) == 0 {
			return errFactory.WithData(errors.ErrInvalidDevice, d.ID)
		}
		for _, m := range d.Metrics {
			if !vitals.ValidMetric(string(m)) {
				return errFactory.WithData(errors.ErrUnknownMetric, string(m))
			}
		}
	}

	return nil
}
