package ingest

import "github.com/healthsync/vitalsim/internal/errors"

const (
	// Configuration errors
	ErrInvalidBackendURL = errors.ErrorCode("ingest_invalid_backend_url")

	// Delivery errors
	ErrEncodeFailed = errors.ErrorCode("ingest_encode_failed")
	ErrUnreachable  = errors.ErrorCode("ingest_backend_unreachable")
	ErrRejected     = errors.ErrorCode("ingest_reading_rejected")
)
