package obs

import (
	"strings"
	"sync"
	"testing"
	"time"

	"exstats/internal/model/enum"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.IncReceived()
	m.IncReceived()
	m.IncAccepted()
	m.IncRejected(enum.RejectBot)
	m.IncRejected(enum.RejectBot)
	m.IncRejected(enum.RejectReason(200))
	m.IncQueueDrop()
	m.IncSchemaMissing()
	m.IncBackendFailed()
	m.IncSchemaRecover()
	m.ObserveApplied(2 * time.Millisecond)
	m.ObserveApplied(4 * time.Millisecond)

	s := m.Snapshot()
	assert.Equal(t, uint64(2), s.Received)
	assert.Equal(t, uint64(1), s.Accepted)
	assert.Equal(t, map[enum.RejectReason]uint64{enum.RejectBot: 2}, s.Rejected)
	assert.Equal(t, uint64(1), s.QueueDrops)
	assert.Equal(t, uint64(2), s.Applied)
	assert.Equal(t, uint64(1), s.SchemaMissing)
	assert.Equal(t, uint64(1), s.BackendFailed)
	assert.Equal(t, uint64(1), s.SchemaRecovers)
	assert.Equal(t, uint64(2), s.ApplyLatency.Count)
	assert.Equal(t, 2*time.Millisecond, s.ApplyLatency.Min)
	assert.Equal(t, 4*time.Millisecond, s.ApplyLatency.Max)
	assert.Equal(t, 3*time.Millisecond, s.ApplyLatency.Avg)
}

func TestLatencyStats(t *testing.T) {
	var l LatencyStats
	assert.Equal(t, LatencySnapshot{}, l.Snapshot())

	l.Observe(-time.Second)
	assert.Equal(t, LatencySnapshot{}, l.Snapshot())

	l.Observe(0)
	l.Observe(6 * time.Millisecond)
	assert.Equal(t, LatencySnapshot{Count: 2, Min: 0, Max: 6 * time.Millisecond, Avg: 3 * time.Millisecond}, l.Snapshot())
}

func TestLatencyStatsConcurrent(t *testing.T) {
	var l LatencyStats
	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(d time.Duration) {
			defer wg.Done()
			l.Observe(d)
		}(time.Duration(i) * time.Microsecond)
	}
	wg.Wait()

	s := l.Snapshot()
	assert.Equal(t, uint64(50), s.Count)
	assert.Equal(t, time.Microsecond, s.Min)
	assert.Equal(t, 50*time.Microsecond, s.Max)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.IncReceived()
	m.IncRejected(enum.RejectBot)
	m.ObserveApplied(time.Second)
	assert.Equal(t, Snapshot{}, m.Snapshot())
}

func TestCollector(t *testing.T) {
	m := NewMetrics()
	m.IncReceived()
	m.IncRejected(enum.RejectNoDamage)
	m.ObserveApplied(time.Millisecond)

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewCollector(m)))

	expected := `
# HELP exstats_events_rejected_total Damage events dropped by validation.
# TYPE exstats_events_rejected_total counter
exstats_events_rejected_total{reason="no_damage"} 1
# HELP exstats_hits_applied_total Hits written to the store.
# TYPE exstats_hits_applied_total counter
exstats_hits_applied_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"exstats_events_rejected_total", "exstats_hits_applied_total"))
}
