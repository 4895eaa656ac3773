package storage

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// BreakerConfig holds configuration for the store circuit breaker
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig trips after 5 requests with at least 60% failures and
// probes again after 30s.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      2,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// breakerStore guards the network-bound calls of an ObjectStore. Pre-signing
// is local computation and passes straight through.
type breakerStore struct {
	inner ObjectStore
	cb    *gobreaker.CircuitBreaker
}

// WithBreaker wraps store so that repeated remote failures fail fast with
// gobreaker.ErrOpenState instead of waiting on a dead endpoint.
func WithBreaker(store ObjectStore, cfg BreakerConfig) ObjectStore {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			// Cancellation is not a store failure.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &breakerStore{inner: store, cb: cb}
}

func (b *breakerStore) Unwrap() ObjectStore { return b.inner }

func (b *breakerStore) GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error) {
	return b.inner.GenerateUploadURL(ctx, key, contentType)
}

func (b *breakerStore) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	return b.inner.GenerateDownloadURL(ctx, key)
}

func (b *breakerStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.ListKeys(ctx, prefix)
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (b *breakerStore) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.DownloadFile(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (b *breakerStore) DeleteFile(ctx context.Context, key string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.inner.DeleteFile(ctx, key)
	})
	return err
}
