package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const (
	appName = "quantrun"
	version = "v1.2.0"
)

var (
	configPath string
	verbosity  int
)

// bindGlobalFlags registers the flags shared by every subcommand.
func bindGlobalFlags(fs *pflag.FlagSet) {
	fs.StringVar(&configPath, "config", "", "path to engine config YAML (defaults used when empty)")
	fs.CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v debug, -vv trace)")
}

func logLevel() zerolog.Level {
	switch {
	case verbosity >= 2:
		return zerolog.TraceLevel
	case verbosity == 1:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Market signal and decision gate engine",
		Long:    "quantrun scores tickers with a weighted composite of technical, volume, momentum and fundamental signals, then runs each candidate through four decision gates to produce a BUY/WAIT/PASS recommendation.",
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zerolog.SetGlobalLevel(logLevel())
		},
	}
	bindGlobalFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newEvaluateCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newExplainCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// parseAsOf resolves the --as-of flag; empty means now.
func parseAsOf(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	asOf, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q: want YYYY-MM-DD", raw)
	}
	return asOf, nil
}
