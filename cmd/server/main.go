// Command server runs the streaming-subscriptions API.
//
// Startup order:
//  1. Load .env (best effort) and the validated environment config.
//  2. Configure global zerolog output and level.
//  3. Open SQLite, run migrations, seed the streaming-service catalog.
//  4. Configure OpenTelemetry tracing (OTLP/gRPC) and the GORM tracing plugin.
//  5. Build the Gin engine, register middleware and routes, serve.
//
// Shutdown is graceful: SIGINT/SIGTERM drains in-flight requests before the
// process exits, then flushes the trace pipeline.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/plugin/opentelemetry/tracing"

	_ "github.com/moviesmadeeasy/go-subscriptions-backend/docs"
	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/config"
	httpapi "github.com/moviesmadeeasy/go-subscriptions-backend/internal/http"
	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/movies"
	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/observability"
	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/openai"
	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/repo"
	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	// Logging
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Info().Str("version", version).Str("port", cfg.Port).Msg("starting server")

	gin.SetMode(cfg.GinMode)

	// Database
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}
	if err := repo.SeedStreamingServices(db); err != nil {
		log.Fatal().Err(err).Msg("seed streaming services")
	}

	// Tracing
	ctx := context.Background()
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup opentelemetry")
	}
	if cfg.OTEL.Enabled {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			log.Fatal().Err(err).Msg("attach gorm tracing plugin")
		}
	}

	// Outbound clients
	ai := &openai.Service{
		APIKey:       cfg.OpenAI.APIKey,
		BaseURL:      cfg.OpenAI.BaseURL,
		Model:        cfg.OpenAI.Model,
		Temperature:  cfg.OpenAI.Temperature,
		MaxTokens:    cfg.OpenAI.MaxTokens,
		MaxRetries:   cfg.OpenAI.MaxRetries,
		InitialDelay: cfg.OpenAI.InitialDelay,
	}
	movieAPI := &movies.Client{
		BaseURL: cfg.MovieAPI.BaseURL,
		APIKey:  cfg.MovieAPI.APIKey,
		Timeout: cfg.MovieAPI.Timeout,
	}

	// HTTP transport
	r := gin.New()
	httpapi.RegisterRoutes(r, db, ai, movieAPI, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	// Block until a termination signal arrives, then drain.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	log.Info().Msg("bye")
}
