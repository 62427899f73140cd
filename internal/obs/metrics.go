package obs

import (
	"sync/atomic"
	"time"

	"exstats/internal/model/enum"
)

// Metrics collects lightweight pipeline counters and write latency.
type Metrics struct {
	received    uint64
	accepted    uint64
	rejected    [enum.RejectReasonCount + 1]uint64
	queueDrops  uint64
	queueClosed uint64

	applied        uint64
	schemaMissing  uint64
	backendFailed  uint64
	schemaRecovers uint64

	applyLatency LatencyStats
}

// LatencyStats aggregates write durations in nanoseconds. The zero value
// is ready to use; min is stored plus one so that 0 means no sample yet.
type LatencyStats struct {
	count   atomic.Uint64
	total   atomic.Uint64
	minPlus atomic.Uint64
	max     atomic.Uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	Received       uint64
	Accepted       uint64
	Rejected       map[enum.RejectReason]uint64
	QueueDrops     uint64
	QueueClosed    uint64
	Applied        uint64
	SchemaMissing  uint64
	BackendFailed  uint64
	SchemaRecovers uint64
	ApplyLatency   LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncReceived counts an inbound event.
func (m *Metrics) IncReceived() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.received, 1)
}

// IncAccepted counts an event that passed validation.
func (m *Metrics) IncAccepted() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.accepted, 1)
}

// IncRejected counts a dropped event by reason.
func (m *Metrics) IncRejected(reason enum.RejectReason) {
	if m == nil || !reason.IsAvailable() {
		return
	}
	atomic.AddUint64(&m.rejected[reason], 1)
}

// IncQueueDrop records a hit dropped on a full queue.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// IncQueueClosed records a publish attempt after shutdown began.
func (m *Metrics) IncQueueClosed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueClosed, 1)
}

// ObserveApplied records a successful write and its latency.
func (m *Metrics) ObserveApplied(d time.Duration) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.applied, 1)
	m.applyLatency.Observe(d)
}

// IncSchemaMissing records a write lost to a missing table.
func (m *Metrics) IncSchemaMissing() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.schemaMissing, 1)
}

// IncBackendFailed records a write lost to the backend.
func (m *Metrics) IncBackendFailed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.backendFailed, 1)
}

// IncSchemaRecover records a schema bootstrap triggered from a worker.
func (m *Metrics) IncSchemaRecover() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.schemaRecovers, 1)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	rejected := make(map[enum.RejectReason]uint64)
	for i := range m.rejected {
		if v := atomic.LoadUint64(&m.rejected[i]); v > 0 {
			rejected[enum.RejectReason(i)] = v
		}
	}
	return Snapshot{
		Received:       atomic.LoadUint64(&m.received),
		Accepted:       atomic.LoadUint64(&m.accepted),
		Rejected:       rejected,
		QueueDrops:     atomic.LoadUint64(&m.queueDrops),
		QueueClosed:    atomic.LoadUint64(&m.queueClosed),
		Applied:        atomic.LoadUint64(&m.applied),
		SchemaMissing:  atomic.LoadUint64(&m.schemaMissing),
		BackendFailed:  atomic.LoadUint64(&m.backendFailed),
		SchemaRecovers: atomic.LoadUint64(&m.schemaRecovers),
		ApplyLatency:   m.applyLatency.Snapshot(),
	}
}

// Observe records a duration sample; negative durations are ignored.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	ns := uint64(d)
	l.count.Add(1)
	l.total.Add(ns)
	lowerTo(&l.minPlus, ns+1)
	raiseTo(&l.max, ns)
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	n := l.count.Load()
	if n == 0 {
		return LatencySnapshot{}
	}
	snap := LatencySnapshot{
		Count: n,
		Max:   time.Duration(l.max.Load()),
		Avg:   time.Duration(l.total.Load() / n),
	}
	if m := l.minPlus.Load(); m > 0 {
		snap.Min = time.Duration(m - 1)
	}
	return snap
}

func lowerTo(v *atomic.Uint64, x uint64) {
	for cur := v.Load(); cur == 0 || x < cur; cur = v.Load() {
		if v.CompareAndSwap(cur, x) {
			return
		}
	}
}

func raiseTo(v *atomic.Uint64, x uint64) {
	for cur := v.Load(); x > cur; cur = v.Load() {
		if v.CompareAndSwap(cur, x) {
			return
		}
	}
}
