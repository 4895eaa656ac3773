package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RMahshie/s2plab/internal/loader"
	"github.com/RMahshie/s2plab/pkg/analysis"
	"github.com/RMahshie/s2plab/pkg/touchstone"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNotLoaded is returned before the first successful reload.
	ErrNotLoaded = errors.New("catalog not loaded")
	// ErrNetworkNotFound is returned for an index outside the loaded set.
	ErrNetworkNotFound = errors.New("network not found")
)

// Snapshot is one immutable load of the measurement files.
type Snapshot struct {
	Result   *loader.Result
	LoadedAt time.Time
}

// Metrics receives load and reload outcomes. observability.Collector
// implements it.
type Metrics interface {
	loader.Recorder
	ObserveReload(err error)
}

// Service serves the networks of the most recent load.
type Service interface {
	Reload(ctx context.Context) (*Snapshot, error)
	Snapshot() (*Snapshot, error)
	Network(index int) (*touchstone.Network, error)
	Summarize(targetHz float64) ([]analysis.Record, error)
}

// Options configures a catalog.
type Options struct {
	Workers    int
	Metrics    Metrics
	Classifier analysis.Classifier
}

type service struct {
	src        loader.Source
	workers    int
	metrics    Metrics
	classifier analysis.Classifier

	reloadMu sync.Mutex

	mu   sync.RWMutex
	snap *Snapshot
}

// NewService creates a catalog over src. It holds nothing until Reload.
// A zero Classifier means analysis.DefaultClassifier.
func NewService(src loader.Source, opts Options) Service {
	c := opts.Classifier
	if c == (analysis.Classifier{}) {
		c = analysis.DefaultClassifier
	}
	return &service{
		src:        src,
		workers:    opts.Workers,
		metrics:    opts.Metrics,
		classifier: c,
	}
}

// Reload loads every file from the source and swaps in the new snapshot.
// On error the previous snapshot stays in place. Concurrent calls are
// serialized.
func (s *service) Reload(ctx context.Context) (*Snapshot, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	opts := loader.Options{Workers: s.workers}
	if s.metrics != nil {
		opts.Recorder = s.metrics
	}

	res, err := loader.Load(ctx, s.src, opts)
	if s.metrics != nil {
		s.metrics.ObserveReload(err)
	}
	if err != nil {
		log.Error().Err(err).Msg("Catalog reload failed")
		return nil, fmt.Errorf("reload: %w", err)
	}

	snap := &Snapshot{Result: res, LoadedAt: time.Now()}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	log.Info().
		Int("loaded", len(res.Loaded)).
		Int("failed", len(res.Failed)).
		Msg("Catalog reloaded")
	return snap, nil
}

func (s *service) Snapshot() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, ErrNotLoaded
	}
	return s.snap, nil
}

func (s *service) Network(index int) (*touchstone.Network, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(snap.Result.Loaded) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrNetworkNotFound, index, len(snap.Result.Loaded))
	}
	return snap.Result.Loaded[index].Network, nil
}

func (s *service) Summarize(targetHz float64) ([]analysis.Record, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return s.classifier.Summarize(snap.Result.Networks(), targetHz), nil
}
