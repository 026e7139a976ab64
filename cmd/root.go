package cmd

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/pedlens/internal/config"
	"github.com/KaramelBytes/pedlens/internal/dataset"
	"github.com/KaramelBytes/pedlens/internal/logging"
	"github.com/KaramelBytes/pedlens/internal/metrics"
	"github.com/KaramelBytes/pedlens/internal/query"
)

var (
	cfgFile string
	debug   bool
	asJSON  bool
	// Source/HTTP flags (override config if set)
	flagCSVSource      string
	flagGeoJSONSource  string
	flagHTTPTimeoutSec int
	flagMetricsFile    string

	// Loaded configuration
	cfg *cfgpkg.Global

	// Built on first use by a query command.
	svcOnce  sync.Once
	svc      *query.Service
	svcErr   error
	registry *prometheus.Registry
)

var rootCmd = &cobra.Command{
	Use:   "pedlens",
	Short: "pedlens: query the NYC pedestrian counts dataset",
	Long: `pedlens loads the pedestrian counting dataset (tabular CSV plus GeoJSON locations) and answers
analytical queries: filtered locations, summary and grouped statistics, top sites, group comparisons,
per-location time series and filtered exports.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if flagMetricsFile == "" || registry == nil {
			return nil
		}
		if err := prometheus.WriteToTextfile(flagMetricsFile, registry); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		return nil
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.pedlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print results as JSON instead of Markdown")
	rootCmd.PersistentFlags().StringVar(&flagCSVSource, "csv", "", "tabular dataset URL or path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagGeoJSONSource, "geojson", "", "GeoJSON dataset URL or path (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagMetricsFile, "metrics-file", "", "write Prometheus metrics to this file after the command")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: config commands still work; queries report it
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("csv") && flagCSVSource != "" {
		cfg.CSVSource = flagCSVSource
	}
	if f.Changed("geojson") && flagGeoJSONSource != "" {
		cfg.GeoJSONSource = flagGeoJSONSource
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	lc := logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr}
	if debug {
		lc.Level = "debug"
	}
	logging.Init(lc)
}

// service returns the query service for the loaded configuration.
func service() (*query.Service, error) {
	svcOnce.Do(func() {
		if cfg == nil {
			svcErr = errors.New("no configuration loaded")
			return
		}
		registry = prometheus.NewRegistry()
		m := metrics.New(registry)
		loader := dataset.NewLoader(dataset.Options{
			CSVSource:     cfg.CSVSource,
			GeoJSONSource: cfg.GeoJSONSource,
			Fetcher:       dataset.NewFetcher(time.Duration(cfg.HTTPTimeoutSec) * time.Second),
			Observer:      m,
		})
		log := logging.With("cli")
		log.Debug().Str("session", loader.Session()).Str("csv", cfg.CSVSource).
			Str("geojson", cfg.GeoJSONSource).Msg("dataset loader ready")
		svc = query.NewService(loader, m)
	})
	return svc, svcErr
}

// resetService drops the cached service so the next command rebuilds it from config.
func resetService() {
	svcOnce = sync.Once{}
	svc, svcErr, registry = nil, nil, nil
}
