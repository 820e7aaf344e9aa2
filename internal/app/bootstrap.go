package app

import (
	"log/slog"

	"crypto_wallet/internal/accounts"
	"crypto_wallet/internal/infra"
	"crypto_wallet/internal/infra/storage"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config    *infra.Config
	Storage   *storage.Storage
	Directory *accounts.Directory
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, DB,
// account directory).
func (b *Bootstrap) Initialize(configPath string) error {
	slog.Info("🚀 Bootstrapping crypto wallet server...")

	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage(cfg.Storage.Path)
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("✅ Database initialized", slog.String("path", cfg.Storage.Path))

	// 4. Load persisted accounts into the directory
	directory := accounts.NewDirectory()
	persisted, err := store.LoadAccounts()
	if err != nil {
		return err
	}
	for _, account := range persisted {
		directory.Put(account)
	}
	b.Directory = directory
	slog.Info("✅ Accounts loaded", slog.Int("count", directory.Len()))

	return nil
}
