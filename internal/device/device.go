package device

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/healthsync/vitalsim/internal/errors"
	"github.com/healthsync/vitalsim/internal/logger"
	"github.com/healthsync/vitalsim/internal/metrics"
	"github.com/healthsync/vitalsim/internal/vitals"
)

// Config describes one simulated device.
type Config struct {
	ID       string
	Name     string
	Type     string
	Interval time.Duration
	Metrics  []vitals.Metric
}

// Pusher delivers a reading to the ingestion backend. Delivery
// failures are expected and non-fatal.
type Pusher interface {
	Push(ctx context.Context, r *Reading) error
}

// Recorder persists a reading locally. Optional.
type Recorder interface {
	Record(ctx context.Context, r *Reading) error
}

// Worker is one concurrently-running simulated device. It owns its
// schedule and emitted counter; all physiological state lives in the
// shared vitals.State.
type Worker struct {
	cfg      Config
	state    *vitals.State
	pusher   Pusher
	recorder Recorder
	metrics  *metrics.Metrics

	emitted uint64
}

// NewWorker creates a worker. recorder and m may be nil.
func NewWorker(cfg Config, state *vitals.State, pusher Pusher, recorder Recorder, m *metrics.Metrics) *Worker {
	return &Worker{
		cfg:      cfg,
		state:    state,
		pusher:   pusher,
		recorder: recorder,
		metrics:  m,
	}
}

// ID returns the device identifier.
func (w *Worker) ID() string {
	return w.cfg.ID
}

// Emitted returns the number of readings produced so far. Safe to call
// while the worker is running.
func (w *Worker) Emitted() uint64 {
	return atomic.LoadUint64(&w.emitted)
}

// Run emits readings until ctx is cancelled. The first reading is
// emitted immediately; afterwards the worker waits for its interval or
// cancellation, whichever comes first. Once cancelled it finishes the
// in-flight cycle (including its push attempt) and exits without
// sleeping.
func (w *Worker) Run(ctx context.Context) {
	logger.Info().
		Str("device", w.cfg.ID).
		Str("name", w.cfg.Name).
		Dur("interval", w.cfg.Interval).
		Msg("Device started")

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		w.cycle()

		select {
		case <-ctx.Done():
			logger.Info().
				Str("device", w.cfg.ID).
				Uint64("readings", w.Emitted()).
				Msg("Device stopped")

			return
		case <-ticker.C:
		}
	}
}

// cycle produces and emits exactly one reading. A failure inside one
// cycle must not take the worker down, so panics are recovered here
// and the schedule continues.
func (w *Worker) cycle() {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Str("device", w.cfg.ID).
				Interface("panic", r).
				Msg("Reading cycle failed")
		}
	}()

	values, transition, kind := w.state.Cycle(w.cfg.Metrics)
	reading := &Reading{
		DeviceID:  w.cfg.ID,
		Timestamp: time.Now(),
		Values:    values,
	}

	w.logTransition(transition, kind)

	count := atomic.AddUint64(&w.emitted, 1)
	logger.Debug().
		Str("device", w.cfg.ID).
		Uint64("seq", count).
		Interface("values", values).
		Msg("Reading emitted")

	// The payload is already captured; delivery and archival must not
	// be aborted by shutdown mid-push. Both rely on their own
	// timeouts instead of the run context.
	if err := w.pusher.Push(context.Background(), reading); err != nil {
		w.countDeliveryFailure()
		logger.Warn().
			Str("device", w.cfg.ID).
			Str("error_code", string(errors.CodeOf(err))).
			Err(err).
			Msg("Push failed; continuing in simulation-only mode")
	}

	if w.recorder != nil {
		if err := w.recorder.Record(context.Background(), reading); err != nil {
			if w.metrics != nil {
				w.metrics.ArchiveFailures.Inc()
			}
			logger.Warn().
				Str("device", w.cfg.ID).
				Err(err).
				Msg("Failed to archive reading")
		}
	}

	if w.metrics != nil {
		w.metrics.ReadingsEmitted.WithLabelValues(w.cfg.ID).Inc()
	}
}

func (w *Worker) logTransition(transition vitals.Transition, kind vitals.Kind) {
	switch transition {
	case vitals.TransitionTriggered:
		if w.metrics != nil {
			w.metrics.AnomaliesTriggered.WithLabelValues(string(kind)).Inc()
		}
		logger.Warn().
			Str("device", w.cfg.ID).
			Str("anomaly", string(kind)).
			Msg("Anomaly triggered")
	case vitals.TransitionResolved:
		logger.Info().
			Str("device", w.cfg.ID).
			Str("anomaly", string(kind)).
			Msg("Anomaly resolved; returning to normal")
	}
}

func (w *Worker) countDeliveryFailure() {
	if w.metrics != nil {
		w.metrics.DeliveryFailures.WithLabelValues(w.cfg.ID).Inc()
	}
}
