package vitals

import "math/rand"

// Drift advances a value one step toward target with Gaussian noise.
// speed is a smoothing coefficient in (0,1]; larger values converge
// faster. The result is a mean-reverting random walk: the value
// oscillates around target with bounded variance instead of jumping
// there, which is what makes displaced targets (anomalies) show up as
// gradual transitions in the emitted readings.
func Drift(current, target, noise, speed float64, rng *rand.Rand) float64 {
	return current + speed*(target-current) + rng.NormFloat64()*noise
}
