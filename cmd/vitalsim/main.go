package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/healthsync/vitalsim/internal/archive"
	"github.com/healthsync/vitalsim/internal/config"
	"github.com/healthsync/vitalsim/internal/device"
	"github.com/healthsync/vitalsim/internal/ingest"
	"github.com/healthsync/vitalsim/internal/logger"
	"github.com/healthsync/vitalsim/internal/metrics"
	"github.com/healthsync/vitalsim/internal/pid"
	"github.com/healthsync/vitalsim/internal/sim"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 5 * time.Second

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, logger.IsService()); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug().Msg("Config loaded")
}

func main() {
	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("failed to write PID file")
	}
	defer pid.Remove()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	pusher, err := ingest.NewClient(ingest.Config{
		BaseURL: cfg.BackendURL,
		Token:   cfg.AuthToken,
		Timeout: time.Duration(cfg.PushTimeout) * time.Second,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize ingestion client")
	}

	var recorder device.Recorder
	if cfg.Archive {
		store, err := archive.NewService(archive.Config{DBPath: cfg.ArchiveDB})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open reading archive")
		}
		defer store.Close()
		recorder = store
	}

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		m = metrics.New(registry)
		server := metrics.NewServer(cfg.MetricsAddr, registry)
		server.Start()
		defer func() {
			stopCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stop()
			if err := server.Stop(stopCtx); err != nil {
				logger.Error().Err(err).Msg("failed to stop metrics server")
			}
		}()
	}

	orchestrator, err := sim.New(sim.Config{
		Devices:            cfg.DeviceConfigs(),
		AnomalyProbability: cfg.AnomalyRate,
		Seed:               cfg.Seed,
		Duration:           time.Duration(cfg.Duration) * time.Second,
		JoinTimeout:        time.Duration(cfg.JoinTimeout) * time.Second,
	}, pusher, recorder, m)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid simulation configuration")
	}

	logBanner()

	summary, err := orchestrator.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("simulation ended with errors")
	}
	logSummary(summary)
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func logBanner() {
	duration := "infinite"
	if cfg.Duration > 0 {
		duration = fmt.Sprintf("%ds", cfg.Duration)
	}

	logger.Info().
		Str("backend_url", cfg.BackendURL).
		Float64("anomaly_rate", cfg.AnomalyRate).
		Int("devices", len(cfg.Devices)).
		Str("duration", duration).
		Bool("archive", cfg.Archive).
		Msg("Starting HealthSync device simulator")
}

func logSummary(summary sim.Summary) {
	for _, d := range cfg.Devices {
		logger.Info().
			Str("device", d.ID).
			Str("name", d.Name).
			Uint64("readings", summary.PerDevice[d.ID]).
			Msg("Device summary")
	}
	logger.Info().Uint64("total_readings", summary.Total).Msg("Simulation complete")
}
