package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
	"github.com/atvirokodosprendimai/switchcore/internal/core/ports"
	"github.com/rs/zerolog/log"
)

type EventDispatcherConfig struct {
	Topic          string
	QueueSize      int
	Workers        int
	PublishTimeout time.Duration
	DrainTimeout   time.Duration
}

// EventDispatcher hands api events to the event log sink off the request
// path. Delivery is at-most-once: a full queue drops the event and sink
// failures are counted and logged, never retried.
type EventDispatcher struct {
	sink    ports.EventSink
	topic   string
	queue   chan domain.ApiEvent
	workers int
	timeout time.Duration
	drain   time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// sendMu orders queue sends against Close: once closed is set under the
	// write lock no Publish can enqueue.
	sendMu sync.RWMutex
	closed bool

	enqueuedTotal  atomic.Int64
	publishedTotal atomic.Int64
	failedTotal    atomic.Int64
	droppedTotal   atomic.Int64
	degradedTotal  atomic.Int64
}

type EventDispatcherMetrics struct {
	EnqueuedTotal  int64
	PublishedTotal int64
	FailedTotal    int64
	DroppedTotal   int64
	DegradedTotal  int64
	QueueDepth     int
}

func NewEventDispatcher(sink ports.EventSink, cfg EventDispatcherConfig) *EventDispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 10 * time.Second
	}
	if cfg.Topic == "" {
		cfg.Topic = "api_events"
	}
	return &EventDispatcher{
		sink:    sink,
		topic:   cfg.Topic,
		queue:   make(chan domain.ApiEvent, cfg.QueueSize),
		workers: cfg.Workers,
		timeout: cfg.PublishTimeout,
		drain:   cfg.DrainTimeout,
	}
}

// Publish enqueues event without blocking. It never reports failure to the
// caller.
func (d *EventDispatcher) Publish(event domain.ApiEvent) {
	if event.Degraded() {
		d.degradedTotal.Add(1)
	}
	d.sendMu.RLock()
	defer d.sendMu.RUnlock()
	if d.closed {
		d.droppedTotal.Add(1)
		return
	}
	select {
	case d.queue <- event:
		d.enqueuedTotal.Add(1)
	default:
		d.droppedTotal.Add(1)
		log.Warn().
			Str("request_id", event.RequestID()).
			Str("api_flow", event.APIFlow()).
			Msg("api event queue full, dropping event")
	}
}

func (d *EventDispatcher) Start(parent context.Context) {
	d.sendMu.RLock()
	closed := d.closed
	d.sendMu.RUnlock()
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil || closed {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	d.cancel = cancel
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.loop(ctx)
	}
}

// Close stops accepting events and waits for queued events to drain. Events
// still queued after the drain deadline are counted as dropped.
func (d *EventDispatcher) Close() error {
	d.sendMu.Lock()
	d.closed = true
	d.sendMu.Unlock()

	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	d.wg.Wait()

	for {
		select {
		case event := <-d.queue:
			d.droppedTotal.Add(1)
			log.Warn().
				Str("request_id", event.RequestID()).
				Str("api_flow", event.APIFlow()).
				Msg("api event left undelivered at shutdown")
		default:
			return nil
		}
	}
}

func (d *EventDispatcher) loop(ctx context.Context) {
	defer d.wg.Done()
	deliverCtx := context.WithoutCancel(ctx)
	for {
		select {
		case event := <-d.queue:
			d.deliver(deliverCtx, event)
		case <-ctx.Done():
			d.drainQueue(deliverCtx)
			return
		}
	}
}

func (d *EventDispatcher) drainQueue(ctx context.Context) {
	deadline := time.Now().Add(d.drain)
	for time.Now().Before(deadline) {
		select {
		case event := <-d.queue:
			d.deliver(ctx, event)
		default:
			return
		}
	}
}

func (d *EventDispatcher) deliver(ctx context.Context, event domain.ApiEvent) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.publish(ctx, event); err != nil {
		d.failedTotal.Add(1)
		log.Error().Err(err).
			Str("request_id", event.RequestID()).
			Str("api_flow", event.APIFlow()).
			Msg("publish api event")
		return
	}
	d.publishedTotal.Add(1)
}

// publish calls the sink, turning a sink panic into an error.
func (d *EventDispatcher) publish(ctx context.Context, event domain.ApiEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event sink panicked: %v", r)
		}
	}()
	return d.sink.Publish(ctx, d.topic, event)
}

func (d *EventDispatcher) Metrics() EventDispatcherMetrics {
	return EventDispatcherMetrics{
		EnqueuedTotal:  d.enqueuedTotal.Load(),
		PublishedTotal: d.publishedTotal.Load(),
		FailedTotal:    d.failedTotal.Load(),
		DroppedTotal:   d.droppedTotal.Load(),
		DegradedTotal:  d.degradedTotal.Load(),
		QueueDepth:     len(d.queue),
	}
}

func (m EventDispatcherMetrics) String() string {
	var sb strings.Builder
	sb.Grow(192)
	fmt.Fprintf(&sb, "api_events_enqueued_total=%d\n", m.EnqueuedTotal)
	fmt.Fprintf(&sb, "api_events_published_total=%d\n", m.PublishedTotal)
	fmt.Fprintf(&sb, "api_events_failed_total=%d\n", m.FailedTotal)
	fmt.Fprintf(&sb, "api_events_dropped_total=%d\n", m.DroppedTotal)
	fmt.Fprintf(&sb, "api_events_degraded_total=%d\n", m.DegradedTotal)
	fmt.Fprintf(&sb, "api_events_queue_depth=%d\n", m.QueueDepth)
	return sb.String()
}
