// Package service holds the asset price cache: one immutable snapshot of the
// market, replaced wholesale by a background refresh task and read lock-free
// by the dispatcher.
package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"crypto_wallet/internal/domain"
	"crypto_wallet/internal/infra"
)

// Snapshot maps symbol to asset. A published snapshot is never mutated;
// every refresh builds a brand-new one.
type Snapshot map[string]domain.Asset

// AssetFetcher is the market-data collaborator boundary.
type AssetFetcher interface {
	FetchAssets(ctx context.Context) ([]domain.Asset, error)
}

// PriceCache publishes the latest market snapshot through a single atomic
// reference: single writer (the refresh goroutine), many lock-free readers.
type PriceCache struct {
	fetcher  AssetFetcher
	interval time.Duration
	retries  int

	snapshot atomic.Pointer[Snapshot]

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPriceCache creates a cache refreshed from fetcher every interval.
// retries is the per-cycle fetch attempt budget.
func NewPriceCache(fetcher AssetFetcher, interval time.Duration, retries int) *PriceCache {
	return &PriceCache{
		fetcher:  fetcher,
		interval: interval,
		retries:  retries,
	}
}

// Snapshot returns the current snapshot, or nil if no refresh has succeeded
// yet. Never blocks.
func (c *PriceCache) Snapshot() Snapshot {
	p := c.snapshot.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Start refreshes once immediately, then begins the periodic refresh
// goroutine. A failed cycle leaves the previous snapshot in place, so
// readers keep serving stale-but-consistent prices.
func (c *PriceCache) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)

	if err := c.Refresh(ctx); err != nil {
		slog.Warn("Initial market snapshot fetch failed", slog.Any("error", err))
		// Continue anyway, the next tick will retry
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Price refresh panic recovered", slog.Any("panic", r))
			}
		}()

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("Price refresh stopped")
				return
			case <-ticker.C:
				if err := c.Refresh(ctx); err != nil {
					slog.Warn("Market snapshot refresh failed, keeping previous snapshot",
						slog.Any("error", err))
				}
			}
		}
	}()
}

// Stop cancels the refresh goroutine and waits for it to exit.
func (c *PriceCache) Stop() {
	if c.cancel != nil {
		c.cancel()
		c.wg.Wait()
	}
}

// Refresh fetches the asset list with bounded retries, filters it to crypto
// assets and atomically publishes a new snapshot. On exhausted retries the
// previous snapshot stays published.
func (c *PriceCache) Refresh(ctx context.Context) error {
	var lastErr error
	for i := 0; i < c.retries; i++ {
		if i > 0 {
			// Exponential backoff: 1s, 2s, 4s, ...
			delay := time.Duration(1<<uint(i-1)) * time.Second
			slog.Info("Retrying market snapshot fetch",
				slog.Int("attempt", i), slog.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := c.doRefresh(ctx)
		if err == nil {
			infra.GlobalMetrics.RecordRefresh(true)
			return nil
		}
		lastErr = err
		slog.Warn("Market snapshot fetch attempt failed",
			slog.Int("attempt", i+1), slog.Any("error", err))
	}

	infra.GlobalMetrics.RecordRefresh(false)
	return lastErr
}

func (c *PriceCache) doRefresh(ctx context.Context) error {
	assets, err := c.fetcher.FetchAssets(ctx)
	if err != nil {
		return err
	}

	next := make(Snapshot, len(assets))
	for _, asset := range assets {
		if asset.IsCrypto() {
			next[asset.ID] = asset
		}
	}

	c.snapshot.Store(&next)
	slog.Info("Market snapshot published", slog.Int("assets", len(next)))

	return nil
}
