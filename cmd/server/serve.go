package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/charge-rate-engine/api"
	"github.com/warp/charge-rate-engine/chargerate"
	"github.com/warp/charge-rate-engine/generic"
	"github.com/warp/charge-rate-engine/logging"
	"github.com/warp/charge-rate-engine/ratesource"
)

var (
	servePort int
	serveDB   string
)

// serveCmd starts the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API.

On SIGINT/SIGTERM the server stops accepting connections, waits up to 30s
for active requests, stops the cache warmer and closes the store.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (overrides server.port)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", `database path, ":memory:" or "memory" (overrides database.path)`)
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveDB != "" {
		cfg.Database.Path = serveDB
	}
	clock := generic.SystemClock{}

	store, closer, err := openStore(cfg, clock, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	resolver, err := newResolver(cfg, clock, logger)
	if err != nil {
		return err
	}

	calc := chargerate.NewCalculator(store, resolver,
		chargerate.WithWorkConfiguration(cfg.Work()),
		chargerate.WithCostConfiguration(cfg.Cost()),
		chargerate.WithBillableOptions(cfg.Billable()),
		chargerate.WithClock(clock),
		chargerate.WithLogger(logging.Named(logger, "chargerate")),
	)
	handler := api.NewHandler(store, calc, resolver,
		api.WithDefaults(cfg.Work(), cfg.Cost(), cfg.Billable()),
		api.WithCalendarYear(generic.CalendarYear(cfg.RateSource.CalendarYear)),
		api.WithClock(clock),
		api.WithLogger(logging.Named(logger, "api")),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RateSource.RemoteEnabled() && len(cfg.RateSource.WarmAwards) > 0 {
		warmer := ratesource.NewWarmer(resolver, cfg.RateSource.WarmAwards, cfg.RateSource.WarmInterval, clock, logger)
		warmer.Start(ctx)
		defer warmer.Stop()
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("server failed", zap.Error(err))
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("server stopped")
	return nil
}
