package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantrun/quantrun/internal/data"
	"github.com/quantrun/quantrun/internal/domain"
	"github.com/quantrun/quantrun/internal/engine"
	"github.com/quantrun/quantrun/internal/gates"
	"github.com/quantrun/quantrun/internal/indicators"
	"github.com/quantrun/quantrun/internal/metrics"
	"github.com/quantrun/quantrun/internal/scoring"
)

type fixedSource struct{}

var _ data.Source = fixedSource{}

func (fixedSource) GetBars(ctx context.Context, ticker string, start, end time.Time) ([]domain.PriceBar, error) {
	bars := make([]domain.PriceBar, 90)
	day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	price := 80.0
	for i := range bars {
		price *= 1.001
		bars[i] = domain.PriceBar{Date: day, Open: price, High: price * 1.01, Low: price * 0.99, Close: price, Volume: 1e6}
		day = day.AddDate(0, 0, 1)
	}
	return bars, nil
}

func (fixedSource) GetFundamentals(ctx context.Context, ticker string) (*domain.FundamentalsSnapshot, error) {
	return &domain.FundamentalsSnapshot{Ticker: ticker, Sector: "technology", PERatio: domain.Some(20)}, nil
}

type fixedBreaker struct{ state string }

func (b fixedBreaker) BreakerState() string { return b.state }

func newTestServer(t *testing.T, breaker BreakerStater) *Server {
	t.Helper()
	ind, err := indicators.NewEngine(indicators.DefaultConfig())
	require.NoError(t, err)
	scorer, err := scoring.NewScorer(scoring.DefaultWeights())
	require.NoError(t, err)
	framework, err := gates.New(gates.DefaultConfig())
	require.NoError(t, err)

	cfg := engine.DefaultConfig()
	cfg.LookbackDays = 60
	reg := metrics.NewRegistry()
	eng, err := engine.New(cfg, fixedSource{}, ind, scorer, framework, nil, reg)
	require.NoError(t, err)
	return NewServer(eng, reg, breaker)
}

func TestEvaluateEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	body := `{"ticker":"ACME","as_of":"2025-04-01T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(body))
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var d domain.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, "ACME", d.Ticker)
	assert.NotEmpty(t, d.ID)
	assert.Len(t, d.Gates, 4)
}

func TestEvaluateEndpointRequiresTicker(t *testing.T) {
	s := newTestServer(t, nil)
	for _, body := range []string{`{}`, `{"ticker":""}`, `not json`} {
		req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(body))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

func TestEvaluateEndpointMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/evaluate", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestScanEndpointRanks(t *testing.T) {
	s := newTestServer(t, nil)
	body := `{"tickers":["ACME","GLOBEX","INITECH"]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/scan", strings.NewReader(body))
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var scores []scoring.PriorityScore
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scores))
	require.Len(t, scores, 3)
	for i, sc := range scores {
		assert.Equal(t, i+1, sc.Rank)
	}
}

func TestScreenEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	body := `{"tickers":["ACME","GLOBEX"]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/screen", strings.NewReader(body))
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var decisions []domain.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decisions))
	require.Len(t, decisions, 2)
	assert.Equal(t, "ACME", decisions[0].Ticker)
	assert.Equal(t, "GLOBEX", decisions[1].Ticker)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, fixedBreaker{state: "closed"})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "closed", health["data_source_breaker"])
}

func TestHealthEndpointDegradedOnOpenBreaker(t *testing.T) {
	s := newTestServer(t, fixedBreaker{state: "open"})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "degraded", health["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	// Drive one evaluation so the counters exist.
	body := `{"ticker":"ACME"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(body))
	s.Handler().ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "quantrun_evaluations_total")
}

func TestDecisionStream(t *testing.T) {
	s := newTestServer(t, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/decisions"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.hub.Subscribers() == 1 },
		time.Second, 10*time.Millisecond)

	body := `{"ticker":"ACME"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(body))
	s.Handler().ServeHTTP(httptest.NewRecorder(), req)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var d domain.Decision
	require.NoError(t, conn.ReadJSON(&d))
	assert.Equal(t, "ACME", d.Ticker)
}
