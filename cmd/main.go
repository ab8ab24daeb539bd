package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "rtb-engine/internal/adapter/http"
	"rtb-engine/internal/adapter/redisstore"
	"rtb-engine/internal/adapter/usecase"
	"rtb-engine/internal/config"
	"rtb-engine/internal/db"
)

// main is the entry point of the bidder. It loads configuration,
// connects to the campaign store, optionally seeds demo campaigns,
// warms the snapshot cache and starts the HTTP server together with the
// background depletion worker and the daily budget reset loop. On
// receiving a termination signal it gracefully shuts down the server.
func main() {
	exitCode := 1
	defer func() {
		if r := recover(); r != nil {
			panic(r)
		} else {
			os.Exit(exitCode)
		}
	}()

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(cfg.Log.Handler(os.Stdout))
	logger.Info("starting bidder", slog.String("env", cfg.Env))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := db.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Error("campaign store connection error", slog.Any("error", err))
		os.Exit(1)
	}
	defer client.Close()

	store := redisstore.NewCampaignStore(client)

	if cfg.Redis.SeedDemo {
		if err = db.Seed(ctx, store); err != nil {
			logger.Error("seed error", slog.Any("error", err))
		} else {
			logger.Info("demo campaigns seeded")
		}
	}

	cache := usecase.NewSnapshotCache(store, logger, cfg.Engine.CacheTTL)
	ledger := usecase.NewBudgetLedger(store, logger, cfg.Engine.PauseThreshold)
	engine := usecase.NewBidEngine(cache, ledger, logger, cfg.Engine.PauseQueueSize)
	manager := usecase.NewCampaignManager(store, cache, ledger, logger)

	// Warm the cache so the first requests don't see an empty snapshot.
	if err = cache.RefreshNow(ctx); err != nil {
		logger.Error("initial cache load failed", slog.Any("error", err))
	} else {
		logger.Info("campaign cache loaded", slog.Int("campaigns", cache.Len()))
	}

	go engine.Run(ctx)
	go ledger.RunDailyReset(ctx)

	handler := httpadapter.NewHandler(engine, manager, engine, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("server listening", slog.Int("port", int(cfg.HTTP.Port)))
		if err = srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	value := <-quit
	exitCode = 128 + int(value.(syscall.Signal))

	// The signal context is already cancelled here; the drain window
	// needs a fresh parent or Shutdown returns immediately.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	} else {
		logger.Info("server gracefully stopped")
	}
}
