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

	"github.com/practicehub/api/internal/config"
	"github.com/practicehub/api/internal/database"
	"github.com/practicehub/api/internal/handler"
	"github.com/practicehub/api/internal/notify"
	"github.com/practicehub/api/internal/repository"
	"github.com/practicehub/api/internal/service"
)

func main() {
	ctx := context.Background()
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg := config.Load()

	// ── 1. Open the store and bring the schema up to date ────────────────
	db, err := database.Open(ctx, cfg.DBPath, log.With().Str("component", "database").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer db.Close()
	log.Info().Str("path", cfg.DBPath).Msg("store ready")

	// ── 2. Wire up layers ────────────────────────────────────────────────
	mailer := notify.New(cfg.SMTP, log.With().Str("component", "mailer").Logger())
	eventRepo := repository.NewEventRepository(db)
	rsvpRepo := repository.NewRSVPRepository(db)
	eventSvc := service.NewEventService(eventRepo, rsvpRepo, mailer, log.With().Str("component", "service").Logger())
	eventHandler := handler.NewEventHandler(eventSvc, log.With().Str("component", "handler").Logger())
	debugHandler := handler.NewDebugHandler(cfg, mailer, log.With().Str("component", "debug").Logger())

	// ── 3. Build the router ──────────────────────────────────────────────
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(handler.Logger(log.With().Str("component", "http").Logger()))
	r.Use(handler.CORS)

	r.Get("/health", handler.HealthCheck)

	r.Route("/events", func(r chi.Router) {
		r.Post("/", eventHandler.CreateEvent)
		r.Get("/", eventHandler.ListEvents)
		r.Post("/{id}/rsvp", eventHandler.RSVP)
		r.Get("/{id}/rsvps", eventHandler.ListRSVPs)
	})

	r.Post("/test-email", debugHandler.TestEmail)
	r.Get("/debug/config", debugHandler.Config)

	// ── 4. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second, // a request may wait out the mail transport timeout
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
