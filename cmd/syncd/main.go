package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"secondbrain-backend/application/enrichment"
	"secondbrain-backend/application/repository"
	"secondbrain-backend/infrastructure/config"
	"secondbrain-backend/infrastructure/persistence/localcache"
	"secondbrain-backend/infrastructure/remote"
	"secondbrain-backend/interfaces/http/local"
	"secondbrain-backend/pkg/observability"
	syncengine "secondbrain-backend/sync"
)

// syncd is the device-side sync agent: it owns the local cache and the
// in-memory working set, reconciles them with the remote backend, and
// serves the loopback API the UI talks to.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var logger *zap.Logger
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	cache, err := localcache.NewSQLiteCache(cfg.CachePath, logger)
	if err != nil {
		logger.Fatal("Failed to open local cache", zap.Error(err))
	}
	defer cache.Close()

	metrics := observability.NewCollector("secondbrain_agent")
	repo := repository.New(logger)
	store := remote.NewStoreClient(cfg.RemoteBaseURL, logger)
	inbox := remote.NewInboxClient(cfg.RemoteBaseURL, logger)

	engine := syncengine.NewEngine(repo, cache, store, inbox, metrics, logger, syncengine.Options{
		DebounceWindow: cfg.DebounceWindow,
		PollInterval:   cfg.PollInterval,
	})

	// The device file carries the syncId; load it before Start so the
	// bootstrap pull sees it. A missing file means local-only mode.
	device, err := config.LoadDeviceConfig(cfg.DeviceConfigPath)
	if err != nil {
		logger.Warn("Device config unreadable, starting local-only", zap.Error(err))
	}

	if err := engine.Start(ctx); err != nil {
		logger.Fatal("Failed to start sync engine", zap.Error(err))
	}
	defer engine.Close()

	engine.SetSyncID(ctx, device.SyncID)

	watcher, err := config.NewDeviceWatcher(cfg.DeviceConfigPath, device, logger)
	if err != nil {
		logger.Warn("Device config watching disabled", zap.Error(err))
	} else {
		defer watcher.Close()
		watcher.OnChange(func(dc config.DeviceConfig) {
			engine.SetSyncID(ctx, dc.SyncID)
		})
	}

	if cfg.EnricherBaseURL != "" {
		worker := enrichment.NewWorker(repo,
			remote.NewEnricherClient(cfg.EnricherBaseURL, logger), logger)
		go func() {
			ticker := time.NewTicker(cfg.SweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if n := worker.Sweep(ctx); n > 0 {
						logger.Info("enrichment sweep completed", zap.Int("patched", n))
					}
				}
			}
		}()
	}

	router := local.NewRouter(repo, engine, metrics, logger, func(id string) error {
		return config.SaveDeviceConfig(cfg.DeviceConfigPath, config.DeviceConfig{SyncID: id})
	})

	srv := &http.Server{
		Addr:         cfg.LocalAddress,
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting sync agent",
			zap.String("address", cfg.LocalAddress),
			zap.String("remote", cfg.RemoteBaseURL),
			zap.String("syncId", device.SyncID),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Agent failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down agent...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Agent shutdown error", zap.Error(err))
	}

	if err := logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Agent stopped")
}
