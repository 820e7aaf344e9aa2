package storage

import (
	"context"
	"log/slog"
	"sync"

	"crypto_wallet/internal/infra"
)

// Persister writes account records in the background so command handlers
// never do file I/O on the dispatcher goroutine. Enqueue is fire-and-forget
// from the dispatcher's perspective but every enqueued record is written:
// the queue drains fully before Stop returns.
type Persister struct {
	store *Storage
	queue chan AccountRecord
	wg    sync.WaitGroup
}

// NewPersister creates a persister with the given queue capacity.
func NewPersister(store *Storage, queueSize int) *Persister {
	return &Persister{
		store: store,
		queue: make(chan AccountRecord, queueSize),
	}
}

// Start launches the write goroutine. On context cancellation it drains the
// remaining queue before exiting.
func (p *Persister) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case rec, ok := <-p.queue:
				if !ok {
					return
				}
				p.write(rec)
			}
		}
	}()
}

// Enqueue schedules one record for writing. Blocks if the queue is full
// rather than dropping; a persisted write must not be skipped.
func (p *Persister) Enqueue(rec AccountRecord) {
	p.queue <- rec
}

// Stop waits for the write goroutine to finish draining.
func (p *Persister) Stop() {
	p.wg.Wait()
}

func (p *Persister) drain() {
	for {
		select {
		case rec := <-p.queue:
			p.write(rec)
		default:
			return
		}
	}
}

func (p *Persister) write(rec AccountRecord) {
	if err := p.store.SaveRecord(rec); err != nil {
		// Swallowed at runtime; the shutdown flush is the loud path.
		infra.GlobalMetrics.RecordPersistError()
		slog.Error("Failed to persist account",
			slog.String("username", rec.Username), slog.Any("error", err))
	}
}
