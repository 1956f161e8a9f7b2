// Package main starts the launcher daemon: the loopback JSON API over the
// shared data directory, the periodic orphan repair and the metrics endpoint.
package main

import (
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/atinyakov/GameLauncher/internal/app"
	"github.com/atinyakov/GameLauncher/internal/config"
	"github.com/atinyakov/GameLauncher/internal/db"
	"github.com/atinyakov/GameLauncher/internal/logger"
	"github.com/atinyakov/GameLauncher/internal/metrics"
	"github.com/atinyakov/GameLauncher/internal/middleware"
	"github.com/atinyakov/GameLauncher/internal/server/handler/http"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	// Load defaults, config file and environment.
	options, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Register process and launcher metrics.
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// Open the database and build stores and services.
	launcher, err := app.New(ctx, options, collector, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot init launcher", zap.Error(err))
	}
	defer launcher.Close()

	// Periodically move games out of categories their owner no longer has.
	db.StartOrphanRepair(ctx, launcher.Catalog, options.RepairInterval, zapLogger)

	// Build the router with middleware and routes.
	router := http.NewRouter(
		http.Handlers{
			Auth:     &http.AuthHandler{AuthService: launcher.Directory, Log: zapLogger},
			Catalog:  &http.CatalogHandler{Catalog: launcher.Catalog, Log: zapLogger},
			History:  &http.HistoryHandler{History: launcher.History, Log: zapLogger},
			Settings: &http.SettingsHandler{Settings: launcher.Preferences, Log: zapLogger},
			Metrics:  metrics.Handler(registry),
		},
		launcher.Directory,
		middleware.NewLoginLimiter(options.LoginRate, options.LoginBurst, zapLogger),
		collector,
		zapLogger,
	)

	server := &nethttp.Server{
		Addr:              options.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("failed to shut down server", zap.Error(err))
		}
	}()

	zapLogger.Info("starting launcher API", zap.String("addr", options.Addr), zap.String("data_dir", options.DataDir))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start server", zap.Error(err))
	}
	zapLogger.Info("launcher API stopped")
}
