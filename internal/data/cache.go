package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/quantrun/quantrun/internal/domain"
)

// CacheConfig controls the Redis-backed market data cache.
type CacheConfig struct {
	BarsTTL         time.Duration `yaml:"bars_ttl"`
	FundamentalsTTL time.Duration `yaml:"fundamentals_ttl"`
	KeyPrefix       string        `yaml:"key_prefix"`
}

// DefaultCacheConfig caches bars until the next session and fundamentals
// for a day.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		BarsTTL:         15 * time.Minute,
		FundamentalsTTL: 24 * time.Hour,
		KeyPrefix:       "quantrun",
	}
}

// CachedSource decorates a Source with a Redis read-through cache. Cache
// failures are logged and ignored: a broken cache degrades to vendor calls,
// it never fails an evaluation.
type CachedSource struct {
	inner Source
	rdb   redis.Cmdable
	cfg   CacheConfig
}

// NewCachedSource wraps a source with the cache.
func NewCachedSource(inner Source, rdb redis.Cmdable, cfg CacheConfig) *CachedSource {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "quantrun"
	}
	return &CachedSource{inner: inner, rdb: rdb, cfg: cfg}
}

func (c *CachedSource) barsKey(ticker string, start, end time.Time) string {
	return fmt.Sprintf("%s:bars:%s:%s:%s", c.cfg.KeyPrefix, ticker,
		start.Format("20060102"), end.Format("20060102"))
}

func (c *CachedSource) fundamentalsKey(ticker string) string {
	return fmt.Sprintf("%s:fund:%s", c.cfg.KeyPrefix, ticker)
}

// GetBars implements Source with a read-through cache.
func (c *CachedSource) GetBars(ctx context.Context, ticker string, start, end time.Time) ([]domain.PriceBar, error) {
	key := c.barsKey(ticker, start, end)
	if payload, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var bars []domain.PriceBar
		if err := json.Unmarshal(payload, &bars); err == nil {
			return bars, nil
		}
		log.Warn().Str("key", key).Msg("corrupt cached bars, refetching")
	} else if err != redis.Nil {
		log.Warn().Err(err).Str("key", key).Msg("bar cache read failed")
	}

	bars, err := c.inner.GetBars(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, bars, c.cfg.BarsTTL)
	return bars, nil
}

// GetFundamentals implements Source with a read-through cache. A vendor
// "unavailable" (nil) result is cached too, as an empty payload, so a dead
// feed does not get hammered.
func (c *CachedSource) GetFundamentals(ctx context.Context, ticker string) (*domain.FundamentalsSnapshot, error) {
	key := c.fundamentalsKey(ticker)
	if payload, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		if len(payload) == 0 {
			return nil, nil
		}
		var snap domain.FundamentalsSnapshot
		if err := json.Unmarshal(payload, &snap); err == nil {
			return &snap, nil
		}
		log.Warn().Str("key", key).Msg("corrupt cached fundamentals, refetching")
	} else if err != redis.Nil {
		log.Warn().Err(err).Str("key", key).Msg("fundamentals cache read failed")
	}

	snap, err := c.inner.GetFundamentals(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		if err := c.rdb.Set(ctx, key, []byte{}, c.cfg.FundamentalsTTL).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
		return nil, nil
	}
	c.store(ctx, key, snap, c.cfg.FundamentalsTTL)
	return snap, nil
}

func (c *CachedSource) store(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache marshal failed")
		return
	}
	if err := c.rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}
