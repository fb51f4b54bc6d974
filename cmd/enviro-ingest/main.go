// Command enviro-ingest receives telemetry uploads on POST /sensor-data and
// stores them in PostgreSQL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/sweeney/enviro-monitor/internal/config"
	"github.com/sweeney/enviro-monitor/internal/ingest"
	"github.com/sweeney/enviro-monitor/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadIngest(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("ingest stopped with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Ingest, logger *zap.Logger) error {
	db, err := ingest.OpenPostgres(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	store := ingest.NewPostgresStore(db, cfg.AlarmField)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	var latest ingest.LatestCache
	if cfg.Redis.Addr != "" {
		client, err := ingest.NewRedisClient(cfg.Redis.Addr)
		if err != nil {
			return err
		}
		defer client.Close()
		latest = ingest.NewRedisLatest(client)
		logger.Info("latest-row cache enabled", zap.String("redis", cfg.Redis.Addr))
	}

	h := ingest.NewHandler(store, latest, cfg.AlarmField, prometheus.NewRegistry(), logger.Named("ingest"))
	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           wrap(h.Router(), cfg.CORSOrigins, os.Stdout),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("ingest listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// wrap adds access logging and CORS. No origins means any origin.
func wrap(router http.Handler, origins []string, accessLog io.Writer) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return cors(handlers.LoggingHandler(accessLog, router))
}
