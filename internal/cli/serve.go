package cli

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/beriox/bexp/internal/config"
	"github.com/beriox/bexp/internal/experiment"
	"github.com/beriox/bexp/internal/logging"
	"github.com/beriox/bexp/internal/metrics"
	"github.com/beriox/bexp/internal/server"
	"github.com/beriox/bexp/internal/store"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the bexp HTTP server.

The server provides:
  - Assignment endpoint (/v1/assign)
  - Event beacon (/b)
  - Results and export API (/v1/experiments)
  - Prometheus metrics (/metrics)
  - Health check (/health)

Example:
  bexp serve --config bexp.yaml`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path (default: ./bexp.yaml if present)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	manager, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg := manager.Config()

	log, err := logging.Init(logging.Options{
		Level:      cfg.Logging.Level,
		Directory:  cfg.Logging.Directory,
		MaxSizeMB:  cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		return err
	}
	defer log.Sync()

	registry := prometheus.NewRegistry()

	opts := []experiment.Option{
		experiment.WithLogger(log),
		experiment.WithMetrics(metrics.NewPrometheus(registry)),
	}

	// --db wins over the config file so the flag stays useful.
	storagePath := cfg.Storage.Path
	if dbPath != "" {
		storagePath = dbPath
	}
	if storagePath != "" {
		s, err := store.Open(storagePath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer s.Close()
		opts = append(opts, experiment.WithStore(s))
	}

	engine := experiment.New(opts...)
	defer engine.Flush()

	if cfg.SeedFile != "" {
		definitions, err := experiment.LoadDefinitions(cfg.SeedFile)
		if err != nil {
			return err
		}
		if _, err := engine.Seed(definitions); err != nil {
			return err
		}
	}

	// Retention sweep. The horizon is re-read on every tick so config
	// hot-reload takes effect without a restart.
	go func() {
		interval := cfg.Retention.SweepInterval
		if interval <= 0 {
			interval = time.Hour
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			maxAge := manager.Config().Retention.MaxAge
			if maxAge <= 0 {
				maxAge = experiment.DefaultRetention
			}
			engine.CleanupOldResults(maxAge)
		}
	}()

	manager.Watch(func(updated config.Config) {
		log.Info("configuration reloaded",
			zap.String("action", "config_reload"),
			zap.Duration("retention", updated.Retention.MaxAge),
		)
	})

	srv := server.New(engine, log, server.Options{
		Port:        cfg.Server.Port,
		TokenFile:   cfg.Server.TokenFile,
		BeaconRate:  cfg.Server.BeaconRate,
		BeaconBurst: cfg.Server.BeaconBurst,
		Registry:    registry,
	})

	fmt.Printf("bexp running on http://localhost:%d\n", cfg.Server.Port)
	fmt.Printf("Admin token: %s\n", srv.Token())
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop")

	return srv.Start()
}
