package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloud-ru/emi-calculator-go/internal/config"
	"github.com/cloud-ru/emi-calculator-go/internal/httpapi"
	"github.com/cloud-ru/emi-calculator-go/internal/logging"
	"github.com/cloud-ru/emi-calculator-go/internal/tracing"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		bootLogger := logging.New("INFO", "json", os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	shutdownTracing, err := tracing.InitTracing(context.Background(), cfg.OTELServiceName, cfg.OTELEndpoint, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init tracing")
	}

	limiter, closeLimiter := newLimiter(cfg, logger)
	defer closeLimiter()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      httpapi.NewRouter(cfg, tracing.Tracer, logger, limiter),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("EMI calculator listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Error().Err(err).Msg("server failed")
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Error().Err(err).Msg("error flushing spans")
	}

	logger.Info().Msg("server exited")
}

// newLimiter выбирает Redis ограничитель при заданном REDIS_ADDR,
// иначе ограничитель в памяти процесса.
func newLimiter(cfg *config.Config, logger zerolog.Logger) (httpapi.Limiter, func()) {
	if cfg.RedisAddr == "" {
		mem := httpapi.NewMemoryLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
		return mem, mem.Stop
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, limiter fails open until it recovers")
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("using redis rate limiter")
	return httpapi.NewRedisLimiter(client, cfg.RateLimitRequests, cfg.RateLimitWindow), func() {
		_ = client.Close()
	}
}
