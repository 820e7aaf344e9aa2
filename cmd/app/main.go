package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto_wallet/internal/app"
	"crypto_wallet/internal/infra/coinapi"
	"crypto_wallet/internal/infra/storage"
	"crypto_wallet/internal/server"
	"crypto_wallet/internal/service"
)

const persistQueueSize = 128

func main() {
	// 1. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize("configs/config.yaml"); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	// 2. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := bootstrap.Config

	// 3. Background Price Refresh (the only goroutine besides the dispatcher
	// that touches market data; publishes through an atomic snapshot swap)
	client := coinapi.NewClient(cfg)
	cache := service.NewPriceCache(client,
		time.Duration(cfg.API.CoinAPI.RefreshIntervalMin)*time.Minute,
		cfg.API.CoinAPI.RetryCount)
	cache.Start(ctx)
	defer cache.Stop()
	slog.InfoContext(ctx, "✅ Price refresh task started")

	// 4. Background Account Persister
	persister := storage.NewPersister(bootstrap.Storage, persistQueueSize)
	persister.Start(ctx)
	slog.InfoContext(ctx, "✅ Account persister started")

	// 5. Dispatcher
	exec := server.NewExecutor(bootstrap.Directory)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := server.New(addr, exec, cache, persister)

	slog.InfoContext(ctx, "✨ Wallet server operational. Press Ctrl+C to exit.")

	if err := srv.Run(ctx); err != nil {
		slog.Error("❌ Server failed", slog.Any("error", err))
		os.Exit(1)
	}

	// 6. Final flush. A persistence failure here is fatal: surface it
	// loudly rather than retry indefinitely.
	persister.Stop()
	if err := bootstrap.Storage.SaveAll(bootstrap.Directory.All()); err != nil {
		slog.Error("❌ Final account flush failed, data may be lost", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("👋 Shut down gracefully")
}
