package dataset

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/district-stress-dashboard/internal/observability"
)

// Store holds the current dataset. Readers get an immutable snapshot; Load
// swaps in a new one atomically.
type Store struct {
	loader  Loader
	logger  *slog.Logger
	metrics *observability.Metrics
	current atomic.Pointer[Dataset]
	version atomic.Uint64
}

// NewStore creates an empty Store. Call Load before serving.
func NewStore(loader Loader, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{loader: loader, logger: logger, metrics: metrics}
}

// Load reads the source and replaces the current dataset. On failure the
// previous dataset stays in place.
func (s *Store) Load(ctx context.Context) (*Dataset, error) {
	start := time.Now()

	ds, err := s.loader.Load(ctx)
	if err != nil {
		s.metrics.DatasetLoads.WithLabelValues("error").Inc()
		return nil, err
	}

	ds.Version = s.version.Add(1)
	s.current.Store(ds)

	s.metrics.DatasetLoads.WithLabelValues("success").Inc()
	s.metrics.DatasetLoadDuration.Observe(time.Since(start).Seconds())
	s.metrics.DatasetRecords.Set(float64(len(ds.Records)))
	s.logger.Info("dataset loaded",
		"source", ds.Source,
		"records", len(ds.Records),
		"version", ds.Version,
	)
	return ds, nil
}

// Current returns the loaded dataset, or nil before the first Load.
func (s *Store) Current() *Dataset {
	return s.current.Load()
}

// CheckReadiness returns nil once a dataset has been loaded.
func (s *Store) CheckReadiness(_ context.Context) error {
	if s.current.Load() == nil {
		return errors.New("dataset has not been loaded yet")
	}
	return nil
}

// modTimer is implemented by loaders that can tell when their source changed.
type modTimer interface {
	ModTime() (time.Time, error)
}

// Refresh reloads the dataset when the source changed since the last load.
// Loaders that cannot report changes are always reloaded. It reports whether
// a new dataset was swapped in.
func (s *Store) Refresh(ctx context.Context) (bool, error) {
	if mt, ok := s.loader.(modTimer); ok {
		if cur := s.Current(); cur != nil {
			modified, err := mt.ModTime()
			if err != nil {
				s.metrics.DatasetLoads.WithLabelValues("error").Inc()
				return false, err
			}
			if !modified.After(cur.ModTime) {
				return false, nil
			}
		}
	}
	if _, err := s.Load(ctx); err != nil {
		return false, err
	}
	return true, nil
}
