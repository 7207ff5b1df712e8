/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the envelope ledger server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (environment, then flags)
  2. Initialize SQLite store
  3. Create the budget engine and seed reserved records
  4. Start the period scheduler
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port      HTTP server port (default: 8080)
  -db        SQLite database path (default: ledger.db)
             Use ":memory:" for in-memory database
  -currency  ISO 4217 code for display strings (default: USD)
  -origins   Comma-separated CORS origins
  -period-check  Period scheduler interval (default: 1h, 0 disables)

ENVIRONMENT:
  ENVELOPE_LEDGER_PORT, ENVELOPE_LEDGER_DB, ENVELOPE_LEDGER_CURRENCY,
  ENVELOPE_LEDGER_ALLOWED_ORIGINS, ENVELOPE_LEDGER_PERIOD_CHECK.
  Flags take precedence.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/ledger.db"

  # Run in-memory, displaying euros
  ./server -db=":memory:" -currency=EUR

SEE ALSO:
  - config/config.go: Settings
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/envelope-ledger/api"
	"github.com/warp/envelope-ledger/budget"
	"github.com/warp/envelope-ledger/config"
	"github.com/warp/envelope-ledger/store/sqlite"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Reserved payee, groups and envelopes must exist before any request
	engine := budget.New(store)
	if err := engine.Bootstrap(context.Background()); err != nil {
		log.Fatalf("Failed to bootstrap ledger: %v", err)
	}

	scheduler := api.NewPeriodScheduler(engine, cfg.PeriodCheck)
	scheduler.Start()
	defer scheduler.Stop()

	router := api.NewRouter(api.NewHandler(engine, cfg.Currency), cfg.AllowedOrigins)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d (db=%s, currency=%s)", cfg.Port, cfg.DBPath, cfg.Currency)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
