package ingest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"exstats/internal/bus"
	"exstats/internal/model"
	"exstats/internal/obs"
	"exstats/pkg/exception"

	"github.com/yanun0323/logs"
	"golang.org/x/time/rate"
)

const (
	defaultQueueSize    = 1024
	defaultWorkers      = 4
	defaultWriteTimeout = 5 * time.Second
)

// Aggregator persists hits.
type Aggregator interface {
	ApplyHit(ctx context.Context, hit model.Hit) error
	EnsureSchema(ctx context.Context) error
}

// Source delivers damage events to a handler until unsubscribed or ctx ends.
type Source interface {
	Observe(ctx context.Context, handler func(model.DamageEvent)) (unsubscribe func(), err error)
}

// Config tunes the dispatch side of the pipeline.
type Config struct {
	QueueSize    int
	Workers      int
	WriteTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.QueueSize <= 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	return c
}

// Pipeline validates damage events and hands accepted hits to the
// aggregator on worker goroutines. Event delivery never waits on storage and
// never sees a storage error.
type Pipeline struct {
	agg     Aggregator
	cfg     Config
	queue   *bus.Queue[model.Hit]
	metrics *obs.Metrics
	dropLog *rate.Sometimes

	started atomic.Bool
	base    context.Context
	done    <-chan struct{}

	mu     sync.Mutex
	unsubs []func()
}

// NewPipeline creates a pipeline; call Start before attaching sources.
func NewPipeline(agg Aggregator, cfg Config, metrics *obs.Metrics) (*Pipeline, error) {
	if agg == nil {
		return nil, exception.ErrBackendUnavailable
	}
	if metrics == nil {
		metrics = obs.NewMetrics()
	}
	cfg = cfg.withDefaults()
	return &Pipeline{
		agg:     agg,
		cfg:     cfg,
		queue:   bus.NewQueue[model.Hit](cfg.QueueSize),
		metrics: metrics,
		dropLog: &rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}, nil
}

// Metrics returns the pipeline counters.
func (p *Pipeline) Metrics() *obs.Metrics {
	return p.metrics
}

// Start launches the workers. Writes inherit ctx values but not its
// cancellation: a dispatched hit runs to completion.
func (p *Pipeline) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	p.base = context.WithoutCancel(ctx)
	p.done = p.queue.RunWorkers(context.Background(), p.cfg.Workers, p.apply)
	logs.Infof("pipeline started, workers: %d, queue: %d", p.cfg.Workers, p.cfg.QueueSize)
}

// Attach subscribes the pipeline to src.
func (p *Pipeline) Attach(ctx context.Context, src Source) error {
	unsubscribe, err := src.Observe(ctx, p.Handle)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.unsubs = append(p.unsubs, unsubscribe)
	p.mu.Unlock()
	return nil
}

// Handle is the event-source callback.
func (p *Pipeline) Handle(ev model.DamageEvent) {
	p.metrics.IncReceived()

	hit, err := Validate(ev)
	if err != nil {
		var rej *Rejection
		if errors.As(err, &rej) {
			p.metrics.IncRejected(rej.Reason)
		}
		return
	}
	p.metrics.IncAccepted()

	switch err := p.queue.TryPublish(hit); {
	case err == nil:
	case errors.Is(err, bus.ErrQueueFull):
		p.metrics.IncQueueDrop()
		p.dropLog.Do(func() {
			logs.Errorf("hit queue full, dropping hit for %s (total dropped: %d)", hit.Identity, p.metrics.Snapshot().QueueDrops)
		})
	default:
		p.metrics.IncQueueClosed()
	}
}

// Close detaches every source, stops intake and waits for queued hits to be
// written. Work still queued when ctx ends is abandoned.
func (p *Pipeline) Close(ctx context.Context) error {
	p.mu.Lock()
	unsubs := p.unsubs
	p.unsubs = nil
	p.mu.Unlock()
	for _, unsubscribe := range unsubs {
		unsubscribe()
	}

	p.queue.Close()
	if !p.started.Load() {
		return nil
	}

	select {
	case <-p.done:
	case <-ctx.Done():
		logs.Errorf("pipeline close: abandoning %d queued hits, err: %+v", p.queue.Len(), ctx.Err())
		return ctx.Err()
	}

	s := p.metrics.Snapshot()
	logs.Infof("pipeline stopped, received: %d, accepted: %d, applied: %d, dropped: %d",
		s.Received, s.Accepted, s.Applied, s.QueueDrops)
	return nil
}

func (p *Pipeline) apply(hit model.Hit) {
	start := time.Now()
	err := p.write(hit)
	if errors.Is(err, exception.ErrSchemaMissing) {
		p.metrics.IncSchemaRecover()
		if serr := p.ensureSchema(); serr != nil {
			logs.Errorf("recover schema, err: %+v", serr)
		} else {
			err = p.write(hit)
		}
	}

	switch {
	case err == nil:
		p.metrics.ObserveApplied(time.Since(start))
	case errors.Is(err, exception.ErrSchemaMissing):
		p.metrics.IncSchemaMissing()
		logs.Errorf("apply hit, err: %+v", err)
	default:
		p.metrics.IncBackendFailed()
		logs.Errorf("apply hit, err: %+v", err)
	}
}

func (p *Pipeline) write(hit model.Hit) error {
	ctx, cancel := context.WithTimeout(p.base, p.cfg.WriteTimeout)
	defer cancel()
	return p.agg.ApplyHit(ctx, hit)
}

func (p *Pipeline) ensureSchema() error {
	ctx, cancel := context.WithTimeout(p.base, p.cfg.WriteTimeout)
	defer cancel()
	return p.agg.EnsureSchema(ctx)
}
