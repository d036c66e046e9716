package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/healthsync/vitalsim/internal/device"
	"github.com/healthsync/vitalsim/internal/errors"
)

const defaultTimeout = 5 * time.Second

// Config holds the ingestion backend settings.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client delivers readings to the backend's vitals endpoint. The
// backend is treated as unreliable: every returned error is a
// recoverable delivery failure, never a reason to stop simulating.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
}

// NewClient validates the backend URL and builds a client.
func NewClient(cfg Config) (*Client, error) {
	errFactory := errors.New()

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errFactory.Wrap(ErrInvalidBackendURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errFactory.WithData(ErrInvalidBackendURL, cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/vitals",
		token:      cfg.Token,
	}, nil
}

// Push POSTs one reading as JSON. Non-2xx responses and transport
// failures come back as typed errors the caller logs and moves past.
func (c *Client) Push(ctx context.Context, r *device.Reading) error {
	errFactory := errors.New()

	body, err := json.Marshal(r)
	if err != nil {
		return errFactory.Wrap(ErrEncodeFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errFactory.Wrap(ErrEncodeFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errFactory.Wrap(ErrUnreachable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return errFactory.WithData(ErrRejected, resp.Status)
	}

	return nil
}
