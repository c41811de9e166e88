package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/iamawumpas/Metlink-Explorer/config"
	"github.com/iamawumpas/Metlink-Explorer/explorer"
	"github.com/iamawumpas/Metlink-Explorer/logging"
	"github.com/iamawumpas/Metlink-Explorer/metlink"
	"github.com/iamawumpas/Metlink-Explorer/metrics"
	"github.com/iamawumpas/Metlink-Explorer/schedule"
	"github.com/iamawumpas/Metlink-Explorer/server"
)

// Wellington local time governs ETA evaluation regardless of where the
// service runs.
const agencyTimezone = "Pacific/Auckland"

func main() {
	configPath := flag.String("config", "", "path to config.yml (default: config.yml, ./config/config.yml)")
	validateOnly := flag.Bool("validate-key", false, "validate the API key against the agency resource and exit")
	flag.Parse()

	var paths []string
	if *configPath != "" {
		paths = append(paths, *configPath)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		fallback := logging.New(config.LoggingConfig{})
		fallback.Fatal().Err(err).Msg("configuration invalid")
	}
	logger := logging.New(cfg.Logging)

	if cfg.API.Key == "" {
		logger.Fatal().Msg("no API key configured; set METLINK_API_KEY or api.key in config.yml")
	}

	client := metlink.NewClient(cfg.API, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := client.ValidateKey(ctx); err != nil {
		logger.Fatal().Err(err).Msg("API key rejected")
	}
	logger.Info().Msg("API key validated")
	if *validateOnly {
		return
	}

	loc, err := time.LoadLocation(agencyTimezone)
	if err != nil {
		logger.Warn().Err(err).Msg("timezone unavailable, using system local time")
		loc = time.Local
	}

	collector := metrics.NewCollector()
	exp := explorer.New(client, collector, loc, logger)

	exclude := make(map[string]struct{}, len(cfg.Watches))
	keys := make([]explorer.Key, 0, len(cfg.Watches))
	for _, w := range cfg.Watches {
		exclude[schedule.NormalizeID(w.RouteID)] = struct{}{}
		keys = append(keys, explorer.Key{RouteID: w.RouteID, DirectionID: w.DirectionID})
	}

	refreshInterval := time.Duration(cfg.Refresh.IntervalSeconds) * time.Second
	srv := server.New(cfg.Server, exp, collector, exclude, refreshInterval, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	go runScheduler(ctx, exp, keys, refreshInterval, logger)

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	logger.Info().Msg("stopped")
}

// runScheduler refreshes every watched route+direction on a fixed
// interval. Refresh itself coalesces overlapping cycles per key, so a
// slow upstream cannot pile up work.
func runScheduler(ctx context.Context, exp *explorer.Explorer, keys []explorer.Key, interval time.Duration, logger zerolog.Logger) {
	if len(keys) == 0 {
		logger.Info().Msg("no watches configured; timelines refresh on demand")
		return
	}

	refreshAll := func() {
		for _, key := range keys {
			if ctx.Err() != nil {
				return
			}
			if _, err := exp.Refresh(ctx, key); err != nil {
				logger.Warn().Err(err).Str("key", key.String()).Msg("scheduled refresh failed")
			}
		}
	}

	refreshAll()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refreshAll()
		}
	}
}
