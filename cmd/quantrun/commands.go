package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantrun/quantrun/internal/config"
	"github.com/quantrun/quantrun/internal/domain"
	"github.com/quantrun/quantrun/internal/gates"
	"github.com/quantrun/quantrun/internal/httpapi"
)

func newEvaluateCmd() *cobra.Command {
	var (
		asOfRaw        string
		sectorExposure float64
		positionPct    float64
		explain        bool
	)
	cmd := &cobra.Command{
		Use:   "evaluate TICKER",
		Short: "Run the four-gate evaluation for one ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := parseAsOf(asOfRaw)
			if err != nil {
				return err
			}
			a, err := buildApp(configPath)
			if err != nil {
				return err
			}
			decision := a.engine.Evaluate(cmd.Context(), args[0], asOf, gates.PositionContext{
				SectorExposure:      sectorExposure,
				ProposedPositionPct: positionPct,
			})
			if explain {
				return printJSON(decision.Explain())
			}
			return printJSON(decision)
		},
	}
	cmd.Flags().StringVar(&asOfRaw, "as-of", "", "evaluation date (YYYY-MM-DD, default today)")
	cmd.Flags().Float64Var(&sectorExposure, "sector-exposure", 0, "current portfolio fraction in the ticker's sector")
	cmd.Flags().Float64Var(&positionPct, "position-pct", 0.05, "proposed position weight")
	cmd.Flags().BoolVar(&explain, "explain", false, "print structured reasoning instead of the raw decision")
	return cmd
}

func newScanCmd() *cobra.Command {
	var (
		asOfRaw      string
		universePath string
		top          int
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Score and rank a ticker universe",
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := parseAsOf(asOfRaw)
			if err != nil {
				return err
			}
			universe, err := config.LoadUniverse(universePath)
			if err != nil {
				return err
			}
			a, err := buildApp(configPath)
			if err != nil {
				return err
			}

			started := time.Now()
			scores := a.engine.ScoreBatch(cmd.Context(), universe.Symbols(), asOf)
			log.Info().Int("tickers", len(scores)).Dur("took", time.Since(started)).Msg("scan complete")

			if top > 0 && top < len(scores) {
				scores = scores[:top]
			}
			for _, s := range scores {
				flag := ""
				if s.LowConfidence {
					flag = " (low confidence)"
				}
				fmt.Fprintf(os.Stdout, "%3d  %-8s composite %5.1f  tech %5.1f  vol %5.1f  mom %5.1f  fund %5.1f%s\n",
					s.Rank, s.Ticker, s.Composite, s.Technical, s.Volume, s.Momentum, s.Fundamental, flag)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&asOfRaw, "as-of", "", "scan date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&universePath, "universe", "config/universe.yaml", "universe file")
	cmd.Flags().IntVar(&top, "top", 0, "only print the top N rows (0 = all)")
	return cmd
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the evaluate/scan API with metrics and the decision stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(configPath)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			server := httpapi.NewServer(a.engine, a.metrics, a.breaker)
			log.Info().Str("addr", addr).Msg("serving")
			return http.ListenAndServe(addr, server.Handler())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func newExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain DECISION_JSON",
		Short: "Re-serialize a stored decision's gate reasoning",
		Long:  "Reads a decision record produced by evaluate and prints its structured reasoning without recomputing anything.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var decision domain.Decision
			if err := json.Unmarshal(raw, &decision); err != nil {
				return fmt.Errorf("parse decision: %w", err)
			}
			return printJSON(decision.Explain())
		},
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
