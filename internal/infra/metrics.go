package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	commandsProcessed atomic.Uint64
	protocolErrors    atomic.Uint64
	refreshSuccesses  atomic.Uint64
	refreshFailures   atomic.Uint64
	persistErrors     atomic.Uint64

	// Gauges
	activeConnections atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordCommand records one processed client command.
func (m *Metrics) RecordCommand() {
	m.commandsProcessed.Add(1)
}

// RecordProtocolError records a rejected client request.
func (m *Metrics) RecordProtocolError() {
	m.protocolErrors.Add(1)
}

// RecordRefresh records the outcome of one price-cache refresh cycle.
func (m *Metrics) RecordRefresh(ok bool) {
	if ok {
		m.refreshSuccesses.Add(1)
	} else {
		m.refreshFailures.Add(1)
	}
}

// RecordPersistError records a failed background persistence write.
func (m *Metrics) RecordPersistError() {
	m.persistErrors.Add(1)
}

// IncrementConnections increments active connections by 1.
func (m *Metrics) IncrementConnections() {
	m.activeConnections.Add(1)
}

// DecrementConnections decrements active connections by 1.
func (m *Metrics) DecrementConnections() {
	m.activeConnections.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	CommandsProcessed uint64
	ProtocolErrors    uint64
	RefreshSuccesses  uint64
	RefreshFailures   uint64
	PersistErrors     uint64
	ActiveConnections int32
	Timestamp         time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		CommandsProcessed: m.commandsProcessed.Load(),
		ProtocolErrors:    m.protocolErrors.Load(),
		RefreshSuccesses:  m.refreshSuccesses.Load(),
		RefreshFailures:   m.refreshFailures.Load(),
		PersistErrors:     m.persistErrors.Load(),
		ActiveConnections: m.activeConnections.Load(),
		Timestamp:         time.Now(),
	}
}
