// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/setlisthq/setlist/internal/config"
	"github.com/setlisthq/setlist/internal/handler"
	"github.com/setlisthq/setlist/internal/realtime"
	"github.com/setlisthq/setlist/internal/service"
	"github.com/setlisthq/setlist/internal/snapshot"
	"github.com/setlisthq/setlist/internal/spotify"
	"github.com/setlisthq/setlist/internal/store"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg)

	// ── 1. Open the snapshot gateway and restore state ────────────────────
	snapshots, err := snapshot.Open(cfg.SnapshotPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open snapshot store")
	}
	defer snapshots.Close()

	eventStore := store.NewEventStore()
	requestStore := store.NewRequestStore(eventStore)
	hub := realtime.NewHub(logger.With().Str("component", "hub").Logger())
	search := spotify.NewClient(
		cfg.SpotifyClientID,
		cfg.SpotifyClientSecret,
		logger.With().Str("component", "spotify").Logger(),
	)

	svc := service.New(
		eventStore,
		requestStore,
		snapshots,
		hub,
		search,
		logger.With().Str("component", "service").Logger(),
	)
	if err := svc.Restore(); err != nil {
		logger.Fatal().Err(err).Msg("restore snapshot")
	}

	// ── 2. Build the router ───────────────────────────────────────────────
	api := handler.New(svc, hub, logger.With().Str("component", "http").Logger())

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.AccessLog(logger))
	r.Use(handler.CORS)
	r.Mount("/", api.Routes())

	// ── 3. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	if cfg.LogJSON {
		return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}).Level(level).With().Timestamp().Logger()
}
