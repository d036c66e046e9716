package device

import (
	"encoding/json"
	"time"

	"github.com/healthsync/vitalsim/internal/vitals"
)

// Reading is one point-in-time payload emitted by a device. It is
// immutable once built; delivery and archival both receive the same
// captured snapshot, so neither touches shared state.
type Reading struct {
	DeviceID  string
	Timestamp time.Time
	Values    map[vitals.Metric]float64
}

// MarshalJSON flattens the reading into the ingestion wire format:
// {"device_id": ..., "timestamp": ISO-8601, "<metric>": <number>, ...}
func (r *Reading) MarshalJSON() ([]byte, error) {
	payload := make(map[string]any, len(r.Values)+2)
	payload["device_id"] = r.DeviceID
	payload["timestamp"] = r.Timestamp.Format(time.RFC3339)
	for m, v := range r.Values {
		payload[string(m)] = v
	}

	return json.Marshal(payload)
}
