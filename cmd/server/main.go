/*
main.go - Application entry point

STARTUP SEQUENCE:
  1. Load .env (optional) and parse flags
  2. Open SQLite store, migrate schema, seed default leave types
  3. Wire API handler and chi router
  4. Start server with graceful shutdown

CONFIGURATION:
  Flags override environment variables:
    -port / PORT        HTTP server port (default 8080)
    -db   / DATABASE    SQLite path (default leave.db, ":memory:" works)
    -log  / LOG_LEVEL   logrus level (default info)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, wait up to 30s for active
  requests, close the database, exit.
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
	"github.com/sirupsen/logrus"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/entitlement"
	"github.com/warp/leave-engine/store/sqlite"
)

func main() {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DATABASE", "leave.db"), "SQLite database path")
	logLevel := flag.String("log", envStr("LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	flag.Parse()

	log := logrus.New()
	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		log.SetLevel(level)
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	if err := seedLeaveTypes(context.Background(), store); err != nil {
		log.WithError(err).Warn("failed to seed leave types")
	}

	handler := api.NewHandler(store, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}
	log.Info("server stopped")
}

// seedLeaveTypes installs the standard leave type catalog on first run.
// SaveLeaveType upserts, so re-running is harmless.
func seedLeaveTypes(ctx context.Context, store *sqlite.Store) error {
	defaults := []entitlement.LeaveType{
		{ID: "annual", Name: "Annual Leave", IsPaid: true},
		{ID: "sick", Name: "Sick Leave", IsPaid: true},
		{ID: "unpaid", Name: "Unpaid Leave", IsPaid: false},
	}
	for _, lt := range defaults {
		if err := store.SaveLeaveType(ctx, lt); err != nil {
			return err
		}
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return fallback
}
