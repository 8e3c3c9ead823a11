package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/wageledger/internal/config"
	"github.com/mmynk/wageledger/internal/ledger"
	"github.com/mmynk/wageledger/internal/metrics"
	"github.com/mmynk/wageledger/internal/migrate"
	"github.com/mmynk/wageledger/internal/notify"
	"github.com/mmynk/wageledger/internal/relay"
	"github.com/mmynk/wageledger/internal/service"
	"github.com/mmynk/wageledger/internal/storage/sqlite"
	"github.com/mmynk/wageledger/pkg/logging"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	// Bring persisted records to the current schema before serving
	if err := migrate.Migrate(ctx, store, migrate.WithMetrics(m)); err != nil {
		var failed *migrate.MigrationFailedError
		if errors.As(err, &failed) {
			slog.Error("Schema migration failed", "from", failed.From, "to", failed.To, "error", failed.Err)
		}
		return err
	}

	broker := notify.NewBroker()
	defer broker.Close()

	l := ledger.New(store,
		ledger.WithBroker(broker),
		ledger.WithMetrics(m),
	)

	if cfg.RelayEnabled() {
		pub, err := relay.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return fmt.Errorf("connect event relay: %w", err)
		}
		defer pub.Close()
		sub := relay.New(pub, 0, slog.Default()).Start(l)
		defer sub.Close()
		slog.Info("Event relay enabled", "exchange", cfg.AMQPExchange)
	}

	router := newRouter(service.NewLedgerService(l), reg, cfg.AllowedOrigins, logging.ParseLevel(cfg.LogLevel))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect streaming)
	// Watch streams never finish on their own; Shutdown cancels their contexts.
	baseCtx, cancelStreams := context.WithCancel(context.Background())
	defer cancelStreams()
	srv := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     h2c.NewHandler(router, &http2.Server{}),
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancelStreams)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Connect server starting", "address", srv.Addr, "url", fmt.Sprintf("http://localhost%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("Shutting down", "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
