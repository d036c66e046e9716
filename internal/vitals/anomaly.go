package vitals

import "math/rand"

// Kind identifies a transient health anomaly.
type Kind string

const (
	KindNone        Kind = "none"
	KindTachycardia Kind = "tachycardia"
	KindBradycardia Kind = "bradycardia"
	KindLowSpO2     Kind = "low_spo2"
	KindFever       Kind = "fever"
	KindHighStress  Kind = "high_stress"
	KindHighBP      Kind = "high_bp"
)

// catalogue enumerates every anomaly kind with its duration in reading
// cycles. Adding a kind means adding a row here and a target entry in
// anomalyTargets.
var catalogue = []struct {
	kind   Kind
	cycles int
}{
	{KindTachycardia, 4},
	{KindBradycardia, 3},
	{KindLowSpO2, 5},
	{KindFever, 6},
	{KindHighStress, 8},
	{KindHighBP, 4},
}

// Transition reports what an Advance call did to the controller state.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionTriggered
	TransitionResolved
)

// Controller is the anomaly state machine for one simulated subject.
// It is not safe for concurrent use; State serializes access to it.
type Controller struct {
	probability float64
	rng         *rand.Rand

	active    bool
	kind      Kind
	remaining int
	forced    Kind
}

// NewController creates an inactive controller. probability is the
// per-cycle chance of a new anomaly while none is active.
func NewController(probability float64, rng *rand.Rand) *Controller {
	return &Controller{
		probability: probability,
		rng:         rng,
		kind:        KindNone,
		forced:      KindNone,
	}
}

// Advance moves the state machine one reading cycle forward. While an
// anomaly is active no new one may start; it counts down and resolves
// when its remaining cycles reach zero. The trigger cycle itself
// counts as the first affected cycle.
func (c *Controller) Advance() (Transition, Kind) {
	if c.active {
		c.remaining--
		if c.remaining <= 0 {
			resolved := c.kind
			c.active = false
			c.kind = KindNone
			c.remaining = 0

			return TransitionResolved, resolved
		}

		return TransitionNone, c.kind
	}

	if c.forced != KindNone {
		kind := c.forced
		c.forced = KindNone
		c.trigger(kind)

		return TransitionTriggered, kind
	}

	if c.rng.Float64() < c.probability {
		entry := catalogue[c.rng.Intn(len(catalogue))]
		c.trigger(entry.kind)

		return TransitionTriggered, entry.kind
	}

	return TransitionNone, KindNone
}

func (c *Controller) trigger(kind Kind) {
	for _, entry := range catalogue {
		if entry.kind == kind {
			c.active = true
			c.kind = kind
			c.remaining = entry.cycles

			return
		}
	}
}

// Force schedules the given anomaly to start on the next Advance while
// the controller is inactive. Used for scripted scenarios and tests.
func (c *Controller) Force(kind Kind) {
	c.forced = kind
}

// Active reports whether an anomaly is currently in effect.
func (c *Controller) Active() bool {
	return c.active
}

// Kind returns the active anomaly kind, or KindNone.
func (c *Controller) Kind() Kind {
	return c.kind
}

// Remaining returns how many reading cycles the active anomaly has
// left, including the current one.
func (c *Controller) Remaining() int {
	return c.remaining
}
