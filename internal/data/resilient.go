package data

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/quantrun/quantrun/internal/domain"
)

// ResilienceConfig bounds the vendor client.
type ResilienceConfig struct {
	// RequestsPerSecond caps outbound vendor calls; Burst allows short
	// spikes during batch scans.
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	BreakerInterval   time.Duration `yaml:"breaker_interval"`
	BreakerTimeout    time.Duration `yaml:"breaker_timeout"`
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32 `yaml:"consecutive_failures"`
}

// DefaultResilienceConfig returns production limits.
func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		RequestsPerSecond:   5,
		Burst:               10,
		BreakerInterval:     60 * time.Second,
		BreakerTimeout:      30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// Validate rejects limits that would deadlock every call.
func (c ResilienceConfig) Validate() error {
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: requests_per_second must be positive", domain.ErrInvalidConfig)
	}
	if c.Burst < 1 {
		return fmt.Errorf("%w: burst must be >= 1", domain.ErrInvalidConfig)
	}
	if c.ConsecutiveFailures < 1 {
		return fmt.Errorf("%w: consecutive_failures must be >= 1", domain.ErrInvalidConfig)
	}
	return nil
}

// ResilientSource decorates a vendor Source with a rate limiter and a
// circuit breaker. Vendor failures come back wrapped in
// domain.ErrDataSourceUnavailable so the engine can contain them.
type ResilientSource struct {
	inner   Source
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewResilientSource validates the config eagerly and wraps the source.
func NewResilientSource(inner Source, cfg ResilienceConfig) (*ResilientSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("resilient source: %w", err)
	}
	failures := cfg.ConsecutiveFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "market_data",
		Interval: cfg.BreakerInterval,
		Timeout:  cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("market data breaker state change")
		},
	})
	return &ResilientSource{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: breaker,
	}, nil
}

// BreakerState reports the breaker for health surfaces.
func (r *ResilientSource) BreakerState() string {
	return r.breaker.State().String()
}

func (r *ResilientSource) execute(ctx context.Context, what string, fn func() (interface{}, error)) (interface{}, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s rate wait: %v", domain.ErrDataSourceUnavailable, what, err)
	}
	out, err := r.breaker.Execute(fn)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDataSourceUnavailable, what, err)
	}
	return out, nil
}

// GetBars implements Source.
func (r *ResilientSource) GetBars(ctx context.Context, ticker string, start, end time.Time) ([]domain.PriceBar, error) {
	out, err := r.execute(ctx, "get_bars", func() (interface{}, error) {
		return r.inner.GetBars(ctx, ticker, start, end)
	})
	if err != nil {
		return nil, err
	}
	return out.([]domain.PriceBar), nil
}

// GetFundamentals implements Source.
func (r *ResilientSource) GetFundamentals(ctx context.Context, ticker string) (*domain.FundamentalsSnapshot, error) {
	out, err := r.execute(ctx, "get_fundamentals", func() (interface{}, error) {
		return r.inner.GetFundamentals(ctx, ticker)
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}
	return out.(*domain.FundamentalsSnapshot), nil
}
