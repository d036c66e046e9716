package vitals

// Metric identifies a single physiological signal produced by the
// simulated subject.
type Metric string

const (
	MetricHeartRate   Metric = "heart_rate"
	MetricSpO2        Metric = "spo2"
	MetricTemperature Metric = "temperature"
	MetricSystolicBP  Metric = "systolic_bp"
	MetricDiastolicBP Metric = "diastolic_bp"
	MetricSteps       Metric = "steps"
	MetricSleepHours  Metric = "sleep_hours"
	MetricHRV         Metric = "hrv"
	MetricStress      Metric = "stress_level"
	MetricCalories    Metric = "calories"
	MetricHydration   Metric = "hydration_glasses"
)

const (
	defaultSpeed = 0.1

	activeHoursStart = 6
	activeHoursEnd   = 21

	hydrationChance = 0.15

	sleepHoursMin = 5.0
	sleepHoursMax = 9.0

	stepIncrementMin = 50
	stepIncrementMax = 200
)

// profile holds the drift parameters for a continuously-varying metric.
// Accumulators and sleep_hours are generated differently and have no
// profile entry.
type profile struct {
	baseline float64
	min, max float64
	noise    float64
	speed    float64
	integer  bool
}

var profiles = map[Metric]profile{
	MetricHeartRate:   {baseline: 72, min: 30, max: 200, noise: 3.0, speed: defaultSpeed, integer: true},
	MetricSpO2:        {baseline: 97.5, min: 85, max: 100, noise: 0.5, speed: defaultSpeed},
	MetricTemperature: {baseline: 36.6, min: 35.0, max: 40.0, noise: 0.15, speed: defaultSpeed},
	MetricSystolicBP:  {baseline: 120, min: 70, max: 200, noise: 4.0, speed: defaultSpeed, integer: true},
	MetricDiastolicBP: {baseline: 78, min: 40, max: 130, noise: 3.0, speed: defaultSpeed, integer: true},
	MetricHRV:         {baseline: 58, min: 15, max: 100, noise: 3.0, speed: defaultSpeed, integer: true},
	MetricStress:      {baseline: 40, min: 0, max: 100, noise: 5.0, speed: defaultSpeed},
}

// band is an inclusive target range an anomaly forces onto a metric.
type band struct {
	lo, hi float64
}

// anomalyTargets maps each anomaly kind to the metrics it perturbs.
// Metrics absent from a kind's entry keep drifting toward baseline
// while that anomaly is active.
var anomalyTargets = map[Kind]map[Metric]band{
	KindTachycardia: {MetricHeartRate: {100, 140}},
	KindBradycardia: {MetricHeartRate: {38, 52}},
	KindLowSpO2:     {MetricSpO2: {88, 93}},
	KindFever:       {MetricTemperature: {38.0, 39.2}},
	KindHighStress:  {MetricStress: {70, 90}, MetricHRV: {20, 35}},
	KindHighBP:      {MetricSystolicBP: {145, 165}, MetricDiastolicBP: {92, 105}},
}

// KnownMetrics returns every metric the simulator can produce, in
// reporting order.
func KnownMetrics() []Metric {
	return []Metric{
		MetricHeartRate,
		MetricSpO2,
		MetricTemperature,
		MetricSystolicBP,
		MetricDiastolicBP,
		MetricSteps,
		MetricSleepHours,
		MetricHRV,
		MetricStress,
		MetricCalories,
		MetricHydration,
	}
}

// ValidMetric reports whether name is a metric the simulator knows.
func ValidMetric(name string) bool {
	switch Metric(name) {
	case MetricHeartRate, MetricSpO2, MetricTemperature, MetricSystolicBP,
		MetricDiastolicBP, MetricSteps, MetricSleepHours, MetricHRV,
		MetricStress, MetricCalories, MetricHydration:
		return true
	default:
		return false
	}
}

// Range returns the clamp range for a drifting metric. Accumulators
// have no upper bound; their lower bound is zero.
func Range(m Metric) (lo, hi float64, bounded bool) {
	if p, ok := profiles[m]; ok {
		return p.min, p.max, true
	}

	return 0, 0, false
}
