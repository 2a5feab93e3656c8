// Command controller-svc runs the SAGSIN controller: it owns the
// simulated Space-Air-Ground-Sea Integrated Network graph, ticks its
// mobility/link-flip epoch, solves routes over it via ant-colony
// optimization, and serves the REST+SSE control surface node agents and
// operators talk to.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"sagsin/internal/eventbus"
	"sagsin/internal/routecache"
	"sagsin/pkg/cache"
	"sagsin/pkg/config"
	"sagsin/pkg/logger"
	"sagsin/pkg/metrics"
	"sagsin/services/controller-svc/internal/httpapi"
	"sagsin/services/controller-svc/internal/state"
	"sagsin/services/controller-svc/internal/tcprelay"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code per §6.4: 0 on clean shutdown, 1
// on a configuration error, 2 on an unrecoverable listener failure.
func run() int {
	cfg, err := config.LoadWithServiceDefaults("sagsin-controller", 8080)
	if err != nil {
		logger.Init("error")
		logger.Error("failed to load configuration", "error", err)
		return 1
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
	logger.Info("starting sagsin-controller", "version", cfg.App.Version, "environment", cfg.App.Environment)

	m := metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
	m.SetServiceInfo(cfg.App.Version, cfg.App.Environment)

	backend, err := cache.New(cache.FromConfig(&cfg.Cache))
	if err != nil {
		logger.Error("failed to initialize route cache backend", "error", err)
		return 1
	}
	defer backend.Close()
	routeCache := routecache.New(backend, cfg.Cache.DefaultTTL)

	bus := eventbus.New(m.RecordDroppedFrame)

	var cfgMu sync.Mutex
	ctrl, err := state.New(cfg, bus, routeCache, m)
	if err != nil {
		logger.Error("failed to initialize controller state", "error", err)
		return 1
	}

	reload := func() error {
		cfgMu.Lock()
		defer cfgMu.Unlock()
		newCfg, err := config.LoadWithServiceDefaults("sagsin-controller", 8080)
		if err != nil {
			return fmt.Errorf("reload: %w", err)
		}
		ctrl.ReloadConfig(newCfg)
		return nil
	}

	relay := tcprelay.New(tcprelay.DefaultHostResolver, cfg.TCP.Port, cfg.TCP.DialTimeout)
	handlers := httpapi.New(ctrl, bus, relay, m, reload)

	epochCtx, cancelEpoch := context.WithCancel(context.Background())
	go ctrl.RunEpochLoop(epochCtx)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handlers.Mux(httpapi.CORS(cfg.HTTP.CORS)),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("controller listening", "port", cfg.HTTP.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			logger.Error("listener failed", "error", err)
			cancelEpoch()
			return 2
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	cancelEpoch()
	ctrl.Stop()

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer drainCancel()
	if err := ctrl.DrainSessions(drainCtx); err != nil {
		logger.Warn("in-flight sessions did not drain before deadline", "error", err)
	}

	logger.Info("controller stopped")
	return 0
}
