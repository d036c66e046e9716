// Package archive persists emitted readings to a local SQLite
// database. Archival is optional and best-effort: a failed write is
// reported to the worker, logged, and never interrupts the schedule.
package archive

import (
	"context"

	"github.com/healthsync/vitalsim/internal/device"
	"github.com/healthsync/vitalsim/internal/errors"
)

// Archiver is the core domain interface; it satisfies device.Recorder.
type Archiver interface {
	Record(ctx context.Context, r *device.Reading) error
	Close() error
}

type service struct {
	repo Repository
	cfg  Config
}

// NewService validates the configuration and opens the archive.
func NewService(cfg Config) (Archiver, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	repo, err := NewRepository(cfg)
	if err != nil {
		return nil, err // Already wrapped with appropriate error
	}

	return &service{
		repo: repo,
		cfg:  cfg,
	}, nil
}

func (s *service) Record(ctx context.Context, r *device.Reading) error {
	errFactory := errors.New()

	if r == nil {
		return errFactory.New(ErrInvalidReading)
	}

	if err := s.repo.Store(ctx, r); err != nil {
		return errFactory.Wrap(ErrRecordFailed, err)
	}

	return nil
}

func (s *service) Close() error {
	return s.repo.Close()
}
