package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/openbell/tapescan/internal/classify"
	"github.com/openbell/tapescan/internal/config"
	"github.com/openbell/tapescan/internal/feed"
	"github.com/openbell/tapescan/internal/fetch"
	"github.com/openbell/tapescan/internal/metrics"
	"github.com/openbell/tapescan/internal/notify"
	"github.com/openbell/tapescan/internal/pipeline"
	"github.com/openbell/tapescan/internal/report"
	"github.com/openbell/tapescan/internal/store"
	"github.com/openbell/tapescan/internal/universe"
)

const (
	appName = "tapescan"
	version = "v1.2.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Daily tick-tape accumulation scanner",
		Version: version,
		Long: `tapescan downloads one trading day's tick tape for an instrument
universe, classifies each instrument into suspicious accumulation pattern
buckets and writes the ranked result.`,
	}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run the daily scan",
		RunE:  runScan,
	}
	addScanFlags(scanCmd.Flags())

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Probe the feed and report whether the date is a trading day",
		RunE:  runHealth,
	}
	healthCmd.Flags().StringP("date", "d", "", "trading date (YYYYMMDD, default today)")
	healthCmd.Flags().String("config", "config/tapescan.yaml", "config file path")

	rootCmd.AddCommand(scanCmd, healthCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func addScanFlags(fs *pflag.FlagSet) {
	fs.StringP("date", "d", "", "trading date (YYYYMMDD, default today)")
	fs.String("config", "config/tapescan.yaml", "config file path")
	fs.BoolP("myself", "m", false, "notify the self recipient set only")
	fs.String("metrics-addr", "", "serve /health and /metrics on this address")
	fs.Bool("skip-oracle", false, "skip the trading-day probe")
}

func runScan(cmd *cobra.Command, _ []string) error {
	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		date = time.Now().Format("20060102")
	}
	configPath, _ := cmd.Flags().GetString("config")
	myself, _ := cmd.Flags().GetBool("myself")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	skipOracle, _ := cmd.Flags().GetBool("skip-oracle")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if metricsAddr != "" {
		cfg.Metrics.ListenAddr = metricsAddr
	}

	universeList, err := universe.Load(cfg.Universe.Path)
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}

	ruleSet := classify.DefaultRuleSet()
	if cfg.Rules.Path != "" {
		if ruleSet, err = classify.LoadRuleSet(cfg.Rules.Path); err != nil {
			return err
		}
	}
	engine, err := classify.NewEngine(ruleSet)
	if err != nil {
		return err
	}

	seriesStore, err := buildStore(cfg.Store)
	if err != nil {
		return err
	}

	client := feed.NewHTTPClient(cfg.Feed)
	var oracle feed.Oracle
	if !skipOracle {
		oracle = feed.NewProbeOracle(client, cfg.Universe.ProbeCode)
	}

	var m *metrics.Metrics
	if cfg.Metrics.ListenAddr != "" {
		m = metrics.New()
		m.Serve(cfg.Metrics.ListenAddr)
	}

	recipients := cfg.Notify.Recipients
	if myself {
		recipients = cfg.Notify.SelfRecipients
	}

	p := &pipeline.Pipeline{
		Universe: universeList,
		Fetcher: fetch.New(client, cfg.Fetch.MaxConcurrent,
			time.Duration(cfg.Fetch.PerFetchTimeoutSecs)*time.Second),
		Store:    seriesStore,
		Engine:   engine,
		Oracle:   oracle,
		Reporter: report.NewFileSink(cfg.Report.OutputDir),
		Notifier: notify.LogNotifier{},
		Metrics:  m,
	}

	_, err = p.Run(context.Background(), date, recipients)
	return err
}

func runHealth(cmd *cobra.Command, _ []string) error {
	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		date = time.Now().Format("20060102")
	}
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	oracle := feed.NewProbeOracle(feed.NewHTTPClient(cfg.Feed), cfg.Universe.ProbeCode)
	trading, err := oracle.IsTradingDay(context.Background(), date)
	if err != nil {
		return err
	}
	log.Info().Str("date", date).Bool("trading_day", trading).Msg("trading day probe")
	return nil
}

// loadConfig falls back to defaults when the default config file is absent;
// an explicitly configured path must exist.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && path == "config/tapescan.yaml" {
		log.Warn().Str("path", path).Msg("config file not found, using defaults")
		return config.Default(), nil
	}
	return config.Load(path)
}

func buildStore(cfg config.StoreConfig) (store.Store, error) {
	var inner store.Store
	switch cfg.Driver {
	case "", "fs":
		inner = store.NewFSStore(cfg.Dir)
	case "redis":
		inner = store.DialRedisStore(cfg.RedisAddr, time.Duration(cfg.RedisTTLHours)*time.Hour)
	case "postgres":
		pg, err := store.OpenPostgresStore(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		inner = pg
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if cfg.PutRetries > 1 {
		return store.WithRetry(inner, cfg.PutRetries,
			time.Duration(cfg.RetryBackoffMs)*time.Millisecond), nil
	}
	return inner, nil
}
