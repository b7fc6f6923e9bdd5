package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/deepseaguard/insight-engine/internal/alerter"
	"github.com/deepseaguard/insight-engine/internal/api"
	"github.com/deepseaguard/insight-engine/internal/collector"
	"github.com/deepseaguard/insight-engine/internal/config"
	"github.com/deepseaguard/insight-engine/internal/notifier"
	"github.com/deepseaguard/insight-engine/internal/pipeline"
	"github.com/deepseaguard/insight-engine/internal/state"
	"github.com/deepseaguard/insight-engine/internal/store"
	"github.com/deepseaguard/insight-engine/internal/types"
	"github.com/deepseaguard/insight-engine/internal/version"
)

func main() {
	configDir := flag.String("config", "/config", "Path to the configuration directory")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	env := config.LoadEnv()

	logBuffer := api.NewLogBuffer(1000)

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(io.MultiWriter(os.Stdout, logBuffer)).With().
		Timestamp().
		Str("version", version.Version).
		Logger()

	logger.Info().Msg("Starting insight engine")

	cfg, err := config.LoadConfigDir(*configDir)
	if err != nil {
		logger.Fatal().Err(err).Str("config_dir", *configDir).Msg("Failed to load configuration")
	}
	logger.Info().
		Int("zone_count", len(cfg.Zones.Zones)).
		Int("vehicle_policies", len(cfg.Vehicles.Vehicles)).
		Dur("dead_threshold", cfg.Monitoring.DeadThreshold()).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	vehicles := state.NewStore()
	engine := alerter.NewEngine(logger, env.EventBufferSize)
	pipe := pipeline.New(logger, vehicles, engine, cfg)
	hub := api.NewHub(logger)

	sinks := []pipeline.EventSink{
		hub,
		notifier.NewWebhook(logger, cfg.Alerts.Webhook),
	}

	var pgStore *store.PostgresStore
	if env.PostgresDSN != "" {
		pgStore, err = store.NewPostgresStore(ctx, env.PostgresDSN, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to postgres")
		}
		defer pgStore.Close()
		sinks = append(sinks, pgStore)
		logger.Info().Msg("Alert persistence enabled")
	}

	var redisStore *store.RedisStore
	var mirrorCh chan types.TelemetrySample
	if env.RedisAddr != "" {
		redisStore, err = store.NewRedisStore(ctx, env.RedisAddr, env.RedisPassword, env.RedisDB, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer redisStore.Close()
		sinks = append(sinks, redisStore)
		mirrorCh = make(chan types.TelemetrySample, 1024)
		logger.Info().Str("addr", env.RedisAddr).Msg("Live state mirror enabled")
	}

	var wg sync.WaitGroup

	pump := pipeline.NewPump(logger, sinks...)
	wg.Add(1)
	go func() {
		defer wg.Done()
		pump.Run(ctx, engine.Events())
	}()

	if redisStore != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			redisStore.RunMirror(ctx, mirrorCh)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		pipe.RunSweeper(ctx)
	}()

	var feed *collector.Collector
	if env.TelemetryURL != "" {
		feed = collector.NewCollector(env.TelemetryURL, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			feed.Run()
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case sample := <-feed.Updates():
					if err := pipe.Ingest(sample); err != nil {
						logger.Warn().Err(err).Msg("Rejected telemetry sample")
						continue
					}
					if mirrorCh != nil {
						select {
						case mirrorCh <- sample:
						default:
							// Mirror is best-effort; never stall ingestion.
						}
					}
				}
			}
		}()
	} else {
		logger.Warn().Msg("TELEMETRY_WS_URL not set, no telemetry feed configured")
	}

	apiServer := api.NewServer(logger, env.APIPort, engine, pipe, vehicles, hub)
	apiServer.SetLogBuffer(logBuffer)
	apiServer.SetVersion(version.Version, version.Commit)
	if pgStore != nil {
		apiServer.SetAlertStore(pgStore)
	}
	if feed != nil {
		apiServer.SetFeedHealth(feed.Health)
	}
	apiServer.SetReloadFunc(func() error {
		newCfg, err := config.LoadConfigDir(*configDir)
		if err != nil {
			return err
		}
		pipe.Reload(newCfg)
		return nil
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error().Err(err).Msg("API server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Info().Msg("Shutting down...")

	if feed != nil {
		feed.Close()
	}

	// Cancel workers; in-flight per-vehicle evaluation finishes before the
	// sweeper and sample loop observe the cancellation.
	cancel()
	wg.Wait()
	engine.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("API server shutdown error")
	}
	hub.Close()

	logger.Info().Msg("Insight engine stopped")
}
