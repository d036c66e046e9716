package vitals

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// State is the shared physiological state of the simulated subject.
// Every device worker reads from the same instance; all access is
// serialized behind the mutex so the drift recurrence for each metric
// never sees interleaved partial updates, and the anomaly clock
// advances exactly once per device reading cycle.
type State struct {
	mu      sync.Mutex
	rng     *rand.Rand
	anomaly *Controller
	values  map[Metric]float64

	// stepIncrement is the subject's per-cycle stride budget, fixed
	// for the lifetime of the run.
	stepIncrement int

	now func() time.Time
}

// NewState creates the subject state with baseline values. A zero seed
// selects a time-based seed; any other value makes the produced metric
// sequences fully reproducible.
func NewState(anomalyProbability float64, seed int64) *State {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	values := make(map[Metric]float64, len(profiles)+4)
	for m, p := range profiles {
		values[m] = p.baseline
	}
	values[MetricSteps] = 0
	values[MetricCalories] = 0
	values[MetricHydration] = 0
	values[MetricSleepHours] = 7.0

	return &State{
		rng:           rng,
		anomaly:       NewController(anomalyProbability, rng),
		values:        values,
		stepIncrement: stepIncrementMin + rng.Intn(stepIncrementMax-stepIncrementMin+1),
		now:           time.Now,
	}
}

// Cycle produces one reading cycle for the given metrics. The anomaly
// controller advances exactly once per call regardless of how many
// metrics are requested, so a device owning five metrics does not age
// the anomaly five times as fast as one owning a single metric. The
// returned transition lets the caller log and count anomaly events.
func (s *State) Cycle(metrics []Metric) (map[Metric]float64, Transition, Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	transition, kind := s.anomaly.Advance()

	out := make(map[Metric]float64, len(metrics))
	for _, m := range metrics {
		out[m] = s.reading(m)
	}

	return out, transition, kind
}

// ForceAnomaly schedules the given anomaly to start on the next cycle.
func (s *State) ForceAnomaly(kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anomaly.Force(kind)
}

// AnomalyStatus returns a consistent snapshot of the controller state.
func (s *State) AnomalyStatus() (active bool, kind Kind, remaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.anomaly.Active(), s.anomaly.Kind(), s.anomaly.Remaining()
}

// reading updates and returns a single metric. Callers must hold mu.
func (s *State) reading(m Metric) float64 {
	switch m {
	case MetricSteps:
		// Steps only accrue during waking hours. The increment is
		// always positive (stride budget >= 50, jitter >= -30) so the
		// accumulator never decreases.
		if h := s.now().Hour(); h >= activeHoursStart && h <= activeHoursEnd {
			s.values[m] += float64(s.stepIncrement + s.rng.Intn(81) - 30)
		}

		return s.values[m]

	case MetricCalories:
		s.values[m] += float64(10 + s.rng.Intn(31))

		return s.values[m]

	case MetricHydration:
		if s.rng.Float64() < hydrationChance {
			s.values[m]++
		}

		return s.values[m]

	case MetricSleepHours:
		// A retrospective nightly measurement, drawn fresh each cycle
		// rather than drifted.
		v := roundTenth(sleepHoursMin + s.rng.Float64()*(sleepHoursMax-sleepHoursMin))
		s.values[m] = v

		return v
	}

	p, ok := profiles[m]
	if !ok {
		// Unknown metrics are rejected at configuration load.
		return 0
	}

	v := Drift(s.values[m], s.target(m, p), p.noise, p.speed, s.rng)
	v = clampFloat(v, p.min, p.max)
	s.values[m] = v

	if p.integer {
		return math.Round(v)
	}

	return roundTenth(v)
}

// target resolves the drift target for a metric: the anomaly band if
// the active anomaly perturbs this metric, the healthy baseline
// otherwise. Band targets are redrawn every cycle, matching the jitter
// of a real destabilized signal.
func (s *State) target(m Metric, p profile) float64 {
	if kind := s.anomaly.Kind(); kind != KindNone {
		if b, ok := anomalyTargets[kind][m]; ok {
			if p.integer {
				return float64(int(b.lo) + s.rng.Intn(int(b.hi-b.lo)+1))
			}

			return b.lo + s.rng.Float64()*(b.hi-b.lo)
		}
	}

	return p.baseline
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}

	return v
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
