package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the simulator's Prometheus instruments.
type Metrics struct {
	ReadingsEmitted    *prometheus.CounterVec
	DeliveryFailures   *prometheus.CounterVec
	AnomaliesTriggered *prometheus.CounterVec
	ArchiveFailures    prometheus.Counter
	ActiveDevices      prometheus.Gauge
}

// New creates and registers all instruments on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ReadingsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vitalsim",
			Subsystem: "device",
			Name:      "readings_emitted_total",
			Help:      "Total readings emitted, per device",
		}, []string{"device_id"}),
		DeliveryFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vitalsim",
			Subsystem: "ingest",
			Name:      "delivery_failures_total",
			Help:      "Total failed push attempts, per device",
		}, []string{"device_id"}),
		AnomaliesTriggered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vitalsim",
			Subsystem: "subject",
			Name:      "anomalies_triggered_total",
			Help:      "Total anomalies triggered, per kind",
		}, []string{"kind"}),
		ArchiveFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "vitalsim",
			Subsystem: "archive",
			Name:      "failures_total",
			Help:      "Total failed local archive writes",
		}),
		ActiveDevices: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "vitalsim",
			Subsystem: "device",
			Name:      "active_workers",
			Help:      "Number of device workers currently running",
		}),
	}
}
