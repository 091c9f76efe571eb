package main

import (
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/quantrun/quantrun/internal/config"
	"github.com/quantrun/quantrun/internal/data"
	"github.com/quantrun/quantrun/internal/engine"
	"github.com/quantrun/quantrun/internal/gates"
	"github.com/quantrun/quantrun/internal/httpapi"
	"github.com/quantrun/quantrun/internal/indicators"
	"github.com/quantrun/quantrun/internal/metrics"
	"github.com/quantrun/quantrun/internal/persistence"
	"github.com/quantrun/quantrun/internal/retriever"
	"github.com/quantrun/quantrun/internal/scoring"
)

// embeddingDim is the local hash embedder's vector size. It must match the
// embedding column width of the historical store.
const embeddingDim = 64

// app is the wired engine plus the pieces the commands need directly.
type app struct {
	cfg     *config.Config
	engine  *engine.Engine
	metrics *metrics.Registry
	breaker httpapi.BreakerStater
}

// buildApp assembles the engine from configuration. Construction is where
// every configuration error surfaces; commands run with a known-good stack.
func buildApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	var source data.Source = data.NewFileSource(cfg.Data.Dir)
	resilient, err := data.NewResilientSource(source, cfg.Resilience)
	if err != nil {
		return nil, err
	}
	source = resilient

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		source = data.NewCachedSource(source, rdb, cfg.Cache)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("market data cache enabled")
	}

	ind, err := indicators.NewEngine(cfg.Indicators)
	if err != nil {
		return nil, err
	}
	scorer, err := scoring.NewScorer(cfg.Weights)
	if err != nil {
		return nil, err
	}
	framework, err := gates.New(cfg.Gates)
	if err != nil {
		return nil, err
	}

	var retr *retriever.Retriever
	if cfg.Postgres.DSN != "" {
		db, err := sqlx.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("open historical store: %w", err)
		}
		embedder, err := retriever.NewHashEmbedder(embeddingDim)
		if err != nil {
			return nil, err
		}
		retr, err = retriever.New(embedder, persistence.NewHistoricalStore(db), cfg.Retrieval)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("historical context retrieval enabled")
	} else {
		log.Info().Msg("no historical store configured, running cold")
	}

	reg := metrics.NewRegistry()
	eng, err := engine.New(cfg.Engine, source, ind, scorer, framework, retr, reg)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, engine: eng, metrics: reg, breaker: resilient}, nil
}
