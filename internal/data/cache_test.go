package data

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantrun/quantrun/internal/domain"
)

// recordingSource counts vendor calls and serves canned data.
type recordingSource struct {
	bars      []domain.PriceBar
	barsErr   error
	fund      *domain.FundamentalsSnapshot
	fundErr   error
	barCalls  int
	fundCalls int
}

func (s *recordingSource) GetBars(ctx context.Context, ticker string, start, end time.Time) ([]domain.PriceBar, error) {
	s.barCalls++
	return s.bars, s.barsErr
}

func (s *recordingSource) GetFundamentals(ctx context.Context, ticker string) (*domain.FundamentalsSnapshot, error) {
	s.fundCalls++
	return s.fund, s.fundErr
}

func fixtureBars() []domain.PriceBar {
	day := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	return []domain.PriceBar{
		{Date: day, Open: 10, High: 11, Low: 9.5, Close: 10.5, Volume: 1e6},
		{Date: day.AddDate(0, 0, 1), Open: 10.5, High: 12, Low: 10.4, Close: 11.8, Volume: 1.2e6},
	}
}

func TestCachedSourceBarsMiss(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inner := &recordingSource{bars: fixtureBars()}
	cfg := DefaultCacheConfig()
	src := NewCachedSource(inner, rdb, cfg)

	start := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 5)
	key := src.barsKey("ACME", start, end)
	payload, err := json.Marshal(inner.bars)
	require.NoError(t, err)

	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, payload, cfg.BarsTTL).SetVal("OK")

	bars, err := src.GetBars(context.Background(), "ACME", start, end)
	require.NoError(t, err)
	assert.Len(t, bars, 2)
	assert.Equal(t, 1, inner.barCalls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedSourceBarsHit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inner := &recordingSource{bars: fixtureBars()}
	src := NewCachedSource(inner, rdb, DefaultCacheConfig())

	start := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 5)
	payload, err := json.Marshal(fixtureBars())
	require.NoError(t, err)

	mock.ExpectGet(src.barsKey("ACME", start, end)).SetVal(string(payload))

	bars, err := src.GetBars(context.Background(), "ACME", start, end)
	require.NoError(t, err)
	assert.Len(t, bars, 2)
	// Vendor never called on a hit.
	assert.Zero(t, inner.barCalls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedSourceRedisFailureFallsThrough(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inner := &recordingSource{bars: fixtureBars()}
	cfg := DefaultCacheConfig()
	src := NewCachedSource(inner, rdb, cfg)

	start := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 5)
	key := src.barsKey("ACME", start, end)
	payload, _ := json.Marshal(inner.bars)

	mock.ExpectGet(key).SetErr(errors.New("redis down"))
	mock.ExpectSet(key, payload, cfg.BarsTTL).SetErr(errors.New("redis down"))

	bars, err := src.GetBars(context.Background(), "ACME", start, end)
	require.NoError(t, err)
	assert.Len(t, bars, 2)
	assert.Equal(t, 1, inner.barCalls)
}

func TestCachedSourceCorruptEntryRefetches(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inner := &recordingSource{bars: fixtureBars()}
	cfg := DefaultCacheConfig()
	src := NewCachedSource(inner, rdb, cfg)

	start := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 5)
	key := src.barsKey("ACME", start, end)
	payload, _ := json.Marshal(inner.bars)

	mock.ExpectGet(key).SetVal("not json")
	mock.ExpectSet(key, payload, cfg.BarsTTL).SetVal("OK")

	bars, err := src.GetBars(context.Background(), "ACME", start, end)
	require.NoError(t, err)
	assert.Len(t, bars, 2)
	assert.Equal(t, 1, inner.barCalls)
}

func TestCachedSourceVendorErrorNotCached(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inner := &recordingSource{barsErr: domain.ErrDataSourceUnavailable}
	src := NewCachedSource(inner, rdb, DefaultCacheConfig())

	start := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 5)
	mock.ExpectGet(src.barsKey("ACME", start, end)).RedisNil()

	_, err := src.GetBars(context.Background(), "ACME", start, end)
	assert.ErrorIs(t, err, domain.ErrDataSourceUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedSourceFundamentals(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	snap := &domain.FundamentalsSnapshot{Ticker: "ACME", Sector: "technology", PERatio: domain.Some(21)}
	inner := &recordingSource{fund: snap}
	cfg := DefaultCacheConfig()
	src := NewCachedSource(inner, rdb, cfg)

	key := src.fundamentalsKey("ACME")
	payload, err := json.Marshal(snap)
	require.NoError(t, err)

	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, payload, cfg.FundamentalsTTL).SetVal("OK")

	got, err := src.GetFundamentals(context.Background(), "ACME")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ACME", got.Ticker)

	pe, ok := got.PERatio.Value()
	require.True(t, ok)
	assert.Equal(t, 21.0, pe)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedSourceCachesMissingFundamentals(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inner := &recordingSource{fund: nil}
	cfg := DefaultCacheConfig()
	src := NewCachedSource(inner, rdb, cfg)
	key := src.fundamentalsKey("NOFUND")

	// First call: vendor says "nothing for this ticker"; the absence is
	// cached as an empty payload.
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, []byte{}, cfg.FundamentalsTTL).SetVal("OK")

	got, err := src.GetFundamentals(context.Background(), "NOFUND")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 1, inner.fundCalls)

	// Second call: the cached absence short-circuits the vendor.
	mock.ExpectGet(key).SetVal("")

	got, err = src.GetFundamentals(context.Background(), "NOFUND")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 1, inner.fundCalls)
	assert.NoError(t, mock.ExpectationsWereMet())
}
