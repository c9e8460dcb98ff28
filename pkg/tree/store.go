package tree

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Snapshot is the pair of sequences a differ compares: the current tree and
// the one it superseded. Snapshots are immutable.
type Snapshot struct {
	Version  uint64
	Current  Sequence
	Previous Sequence
}

// Store publishes built sequences so that readers always observe a complete
// sequence and a consistent (current, previous) pair.
//
// Publish is serialized; Load never blocks.
type Store struct {
	mu       sync.Mutex
	snapshot atomic.Pointer[Snapshot]

	validate bool
	logger   *slog.Logger
	metrics  *Metrics
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the store logger.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStoreMetrics sets the collectors updated on publish.
func WithStoreMetrics(m *Metrics) StoreOption {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithValidation controls whether Publish validates sequences before making
// them visible (default: true).
func WithValidation(validate bool) StoreOption {
	return func(s *Store) {
		s.validate = validate
	}
}

// NewStore creates a Store holding an empty snapshot at version 0.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		validate: true,
		logger:   slog.Default().With("component", "store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.snapshot.Store(&Snapshot{})
	return s
}

// Load returns the latest snapshot.
func (s *Store) Load() *Snapshot {
	return s.snapshot.Load()
}

// Publish makes seq the current sequence and demotes the old current one to
// previous. An invalid sequence is rejected and nothing changes.
func (s *Store) Publish(seq Sequence) (*Snapshot, error) {
	if s.validate {
		if err := seq.Validate(); err != nil {
			s.logger.Warn("publish rejected", "error", err)
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.snapshot.Load()
	next := &Snapshot{
		Version:  old.Version + 1,
		Current:  seq,
		Previous: old.Current,
	}
	s.snapshot.Store(next)

	s.metrics.recordPublish(next.Version)
	s.logger.Debug("sequence published", "version", next.Version, "frames", seq.Len())
	return next, nil
}
