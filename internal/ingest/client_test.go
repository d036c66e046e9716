package ingest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/healthsync/vitalsim/internal/device"
	"github.com/healthsync/vitalsim/internal/errors"
	"github.com/healthsync/vitalsim/internal/ingest"
	"github.com/healthsync/vitalsim/internal/vitals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReading() *device.Reading {
	return &device.Reading{
		DeviceID:  "dev_003",
		Timestamp: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		Values: map[vitals.Metric]float64{
			vitals.MetricSpO2:      97.5,
			vitals.MetricHeartRate: 72,
		},
	}
}

func TestPushDeliversFlatPayload(t *testing.T) {
	var got map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/vitals", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer demo_token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client, err := ingest.NewClient(ingest.Config{BaseURL: srv.URL + "/api", Token: "demo_token"})
	require.NoError(t, err)

	require.NoError(t, client.Push(context.Background(), testReading()))

	assert.Equal(t, "dev_003", got["device_id"])
	assert.Equal(t, "2026-03-14T10:30:00Z", got["timestamp"])
	assert.Equal(t, 97.5, got["spo2"])
	assert.Equal(t, float64(72), got["heart_rate"])
}

func TestPushRejectedOnNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad payload", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client, err := ingest.NewClient(ingest.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	err = client.Push(context.Background(), testReading())
	require.Error(t, err)
	assert.Equal(t, ingest.ErrRejected, errors.CodeOf(err))
}

func TestPushUnreachableBackend(t *testing.T) {
	// Reserved-but-closed port: connection refused immediately.
	client, err := ingest.NewClient(ingest.Config{
		BaseURL: "http://127.0.0.1:1",
		Timeout: 500 * time.Millisecond,
	})
	require.NoError(t, err)

	err = client.Push(context.Background(), testReading())
	require.Error(t, err)
	assert.Equal(t, ingest.ErrUnreachable, errors.CodeOf(err))
}

func TestNewClientRejectsMalformedURL(t *testing.T) {
	_, err := ingest.NewClient(ingest.Config{BaseURL: "not a url"})
	require.Error(t, err)
	assert.Equal(t, ingest.ErrInvalidBackendURL, errors.CodeOf(err))
}
