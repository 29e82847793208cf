package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"rachiohook/internal/api"
	"rachiohook/internal/api/handlers"
	"rachiohook/internal/api/middleware"
	"rachiohook/internal/engine/events"
	"rachiohook/internal/pkg/logger"
	"rachiohook/internal/platform/config"
	"rachiohook/internal/platform/discord"
	"rachiohook/internal/platform/rachio"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Init(cfg.Logging)

	if err := cfg.ValidateServer(); err != nil {
		log.Fatal().Err(err).Msg("refusing to start")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Clients
	rachioClient := rachio.New(cfg.Rachio)
	discordClient := discord.New(cfg.Discord)

	var devices events.DeviceDirectory = rachioClient
	if cfg.Rachio.DeviceCacheTTL > 0 {
		devices = rachio.NewDeviceCache(rachioClient, cfg.Rachio.DeviceCacheTTL)
	}

	dispatcher, err := events.NewDispatcher(discordClient, devices)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid event handler configuration")
	}

	// Router
	deps := &api.Dependencies{
		WebhookHandler:   handlers.NewWebhookHandler(dispatcher),
		HealthHandler:    handlers.NewHealthHandler(nil),
		MetricsHandler:   handlers.NewMetricsHandler(),
		SecretMiddleware: middleware.NewSecretMiddleware(cfg.Rachio.WebhookSecret),
		RateLimiter:      middleware.NewRateLimiter(ctx, cfg.Server.RateLimit),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
