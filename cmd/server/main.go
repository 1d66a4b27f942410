/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the supply ledger server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (environment, optional .env) and parse flags
  2. Open the store (SQLite file, ":memory:", or the map-backed store)
  3. Install seed catalog and the Authority account
  4. Start the notification dispatcher (chat bot, optional Kafka)
  5. Build services and the API handler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS (override the environment):
  -port    HTTP server port (default: SERVER_PORT or 8080)
  -db      SQLite database path (default: DB_PATH or supply.db)
           Use ":memory:" for in-memory SQLite, "memory" for the map store

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Drain queued notifications
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/supply.db"

  # Run with the map-backed store
  ./server -db=memory

  # Publish requisition events to Kafka
  KAFKA_BROKERS=localhost:9092 ./server

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
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

	"github.com/sirupsen/logrus"

	"github.com/warp/supply-ledger/api"
	"github.com/warp/supply-ledger/catalog"
	"github.com/warp/supply-ledger/config"
	"github.com/warp/supply-ledger/inventory"
	"github.com/warp/supply-ledger/ledger"
	"github.com/warp/supply-ledger/notify"
	"github.com/warp/supply-ledger/report"
	"github.com/warp/supply-ledger/requisition"
	"github.com/warp/supply-ledger/store/memory"
	"github.com/warp/supply-ledger/store/sqlite"
)

// backend is what both store implementations provide.
type backend interface {
	catalog.Store
	ledger.Store
	requisition.TxStore
	Reset(ctx context.Context) error
}

func main() {
	cfg := config.Load()

	// Flags
	port := flag.Int("port", cfg.Server.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.Database.Path, `SQLite database path, or "memory"`)
	flag.Parse()

	log := config.NewLogger(cfg.Log)
	logrus.SetLevel(log.GetLevel())
	logrus.SetFormatter(log.Formatter)

	// Initialize store
	var store backend
	if *dbPath == "memory" {
		store = memory.New()
		log.Info("using in-memory store")
	} else {
		db, err := sqlite.New(*dbPath)
		if err != nil {
			log.WithError(err).Fatal("failed to initialize database")
		}
		defer db.Close()
		store = db
		log.WithField("path", *dbPath).Info("using sqlite store")
	}

	authority := catalog.AuthoritySeed{
		Username: cfg.Authority.Username,
		Password: cfg.Authority.Password,
		Name:     cfg.Authority.Name,
	}
	catalogSvc := catalog.NewService(store)
	catalogSvc.Log = log
	if err := catalogSvc.EnsureSeed(context.Background(), authority); err != nil {
		log.WithError(err).Fatal("failed to install seed data")
	}

	l := ledger.NewLedger(store)
	l.Log = log

	// Notifications
	telegram := notify.NewTelegram(catalogSvc, cfg.Telegram.APIBase)
	telegram.Log = log
	targets := notify.Multi{telegram}
	name := "telegram"
	if cfg.Kafka.Enabled() {
		k := notify.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer k.Close()
		targets = append(targets, k)
		name = "telegram+kafka"
		log.WithField("topic", cfg.Kafka.Topic).Info("publishing requisition events to kafka")
	}
	dispatcher := notify.NewDispatcher(targets, name)
	dispatcher.Log = log
	dispatcher.Start()
	defer dispatcher.Stop()

	reqSvc := requisition.NewService(store, l, catalogSvc, dispatcher)
	reqSvc.Log = log
	invSvc := inventory.NewService(l, catalogSvc)
	invSvc.Log = log

	// Initialize handler
	handler := api.NewHandler(catalogSvc, reqSvc, invSvc)
	handler.Log = log
	handler.Store = store
	handler.Authority = authority
	handler.Telegram = telegram
	handler.CORSOrigins = cfg.Server.CORSOrigins
	handler.LoginLimiter = api.NewRateLimiter(cfg.Server.LoginRatePerMinute)
	if cfg.Summarizer.APIKey != "" {
		handler.Summarizer = report.NewGeminiSummarizer(cfg.Summarizer.Endpoint, cfg.Summarizer.Model, cfg.Summarizer.APIKey)
	}

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infof("server starting on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}

	log.Info("server stopped")
}
