/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the wealth engine server. Handles configuration,
  dependency injection, the periodic ledger resync job, and graceful
  shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Initialize SQLite store
  3. Create API handler and run an initial ledger reconcile
  4. Start the cron resync job
  5. Start the HTTP server with graceful shutdown

CONFIGURATION:
  Flags win over environment variables. Environment (via .env or the
  process environment):
    PORT             HTTP server port (default: 8080)
    DATABASE_PATH    SQLite database path (default: wealth.db)
    LEDGER_CURRENCY  Canonical ledger currency (default: AMD)
    SYNC_SCHEDULE    Cron spec for the resync job (default: @every 15m)
    LOG_LEVEL        zerolog level (default: info)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the cron job
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close the database connection

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers and the Resync entry point
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/warp/wealth-engine/api"
	"github.com/warp/wealth-engine/store/sqlite"
)

func main() {
	// .env is optional; the process environment always applies.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DATABASE_PATH", "wealth.db"), "SQLite database path")
	currency := flag.String("currency", envStr("LEDGER_CURRENCY", "AMD"), "canonical ledger currency")
	syncSpec := flag.String("sync", envStr("SYNC_SCHEDULE", "@every 15m"), "cron spec for ledger resync")
	logLevel := flag.String("log-level", envStr("LOG_LEVEL", "info"), "log level")
	flag.Parse()

	log := newLogger(*logLevel)
	log.Info().Int("port", *port).Str("db", *dbPath).Str("currency", *currency).
		Msg("starting wealth engine")

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer store.Close()

	// Initialize handler and converge the ledger once at startup.
	handler := api.NewHandler(store, log, *currency)
	if _, err := handler.Resync(context.Background()); err != nil {
		log.Warn().Err(err).Msg("initial ledger reconcile failed")
	}

	// Opportunistic resync job. Reconcile is idempotent, so overlapping
	// triggers from the UI and this job coalesce safely.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(*syncSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := handler.Resync(ctx); err != nil {
			log.Error().Err(err).Msg("scheduled ledger reconcile failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Str("spec", *syncSpec).Msg("invalid sync schedule")
	}
	scheduler.Start()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server stopped")
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).With().Timestamp().Logger()
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return fallback
	}
	return n
}
