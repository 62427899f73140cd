package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "exstats"

var (
	descReceived = prometheus.NewDesc(namespace+"_events_received_total", "Damage events delivered by the source.", nil, nil)
	descAccepted = prometheus.NewDesc(namespace+"_events_accepted_total", "Damage events that passed validation.", nil, nil)
	descRejected = prometheus.NewDesc(namespace+"_events_rejected_total", "Damage events dropped by validation.", []string{"reason"}, nil)
	descDropped  = prometheus.NewDesc(namespace+"_queue_dropped_total", "Hits dropped before reaching the store.", []string{"cause"}, nil)
	descApplied  = prometheus.NewDesc(namespace+"_hits_applied_total", "Hits written to the store.", nil, nil)
	descFailed   = prometheus.NewDesc(namespace+"_hits_failed_total", "Hits lost to store failures.", []string{"kind"}, nil)
	descRecover  = prometheus.NewDesc(namespace+"_schema_recoveries_total", "Schema bootstraps triggered by a missing table.", nil, nil)
	descLatency  = prometheus.NewDesc(namespace+"_apply_seconds", "Store write latency.", []string{"stat"}, nil)
)

// Collector exports a Metrics snapshot to Prometheus on every scrape.
type Collector struct {
	m *Metrics
}

// NewCollector wraps m for registration with a prometheus.Registerer.
func NewCollector(m *Metrics) *Collector {
	return &Collector{m: m}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descReceived
	ch <- descAccepted
	ch <- descRejected
	ch <- descDropped
	ch <- descApplied
	ch <- descFailed
	ch <- descRecover
	ch <- descLatency
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.m.Snapshot()

	ch <- prometheus.MustNewConstMetric(descReceived, prometheus.CounterValue, float64(s.Received))
	ch <- prometheus.MustNewConstMetric(descAccepted, prometheus.CounterValue, float64(s.Accepted))
	for reason, n := range s.Rejected {
		ch <- prometheus.MustNewConstMetric(descRejected, prometheus.CounterValue, float64(n), reason.String())
	}
	ch <- prometheus.MustNewConstMetric(descDropped, prometheus.CounterValue, float64(s.QueueDrops), "full")
	ch <- prometheus.MustNewConstMetric(descDropped, prometheus.CounterValue, float64(s.QueueClosed), "closed")
	ch <- prometheus.MustNewConstMetric(descApplied, prometheus.CounterValue, float64(s.Applied))
	ch <- prometheus.MustNewConstMetric(descFailed, prometheus.CounterValue, float64(s.SchemaMissing), "schema_missing")
	ch <- prometheus.MustNewConstMetric(descFailed, prometheus.CounterValue, float64(s.BackendFailed), "backend_unavailable")
	ch <- prometheus.MustNewConstMetric(descRecover, prometheus.CounterValue, float64(s.SchemaRecovers))

	lat := s.ApplyLatency
	ch <- prometheus.MustNewConstMetric(descLatency, prometheus.GaugeValue, lat.Min.Seconds(), "min")
	ch <- prometheus.MustNewConstMetric(descLatency, prometheus.GaugeValue, lat.Max.Seconds(), "max")
	ch <- prometheus.MustNewConstMetric(descLatency, prometheus.GaugeValue, lat.Avg.Seconds(), "avg")
}
