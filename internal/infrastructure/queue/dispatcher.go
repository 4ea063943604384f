package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
	"github.com/ssavin/vetsystem-sub004/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// ErrQueueFull is returned by TryEnqueue when the call's shard is saturated.
var ErrQueueFull = errors.New("call queue is full")

// Observer receives queue depth and outcome notifications. It may be nil.
type Observer interface {
	Enqueued(shard int)
	Processed(shard int, err error)
}

// Dispatcher routes call events to a fixed set of workers hashed on the
// external call id, so events of one call are processed in arrival order.
type Dispatcher struct {
	workers  []chan domain.CallEvent
	service  ports.CallService
	observer Observer
	log      zerolog.Logger
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers shards. If
// numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.CallService, observer Observer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan domain.CallEvent, numWorkers),
		service:  service,
		observer: observer,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.CallEvent, channelBuffer)
	}
	return d
}

// Start launches the workers. They stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go func(id int, ch <-chan domain.CallEvent) {
			defer d.wg.Done()
			d.runWorker(ctx, id, ch)
		}(i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// Enqueue hands the event to the worker owning its call id. It blocks while
// that worker's buffer is full.
func (d *Dispatcher) Enqueue(event domain.CallEvent) {
	shard := d.shardIndex(event.ExternalCallID)
	d.workers[shard] <- event
	d.enqueued(shard)
}

// TryEnqueue is Enqueue without blocking.
func (d *Dispatcher) TryEnqueue(event domain.CallEvent) error {
	shard := d.shardIndex(event.ExternalCallID)
	select {
	case d.workers[shard] <- event:
		d.enqueued(shard)
		return nil
	default:
		return ErrQueueFull
	}
}

// EnqueueBatch enqueues events preserving per-call ordering.
func (d *Dispatcher) EnqueueBatch(events []domain.CallEvent) {
	for _, e := range events {
		d.Enqueue(e)
	}
}

// shardIndex maps a call id deterministically to a worker index.
func (d *Dispatcher) shardIndex(callID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(callID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) enqueued(shard int) {
	if d.observer != nil {
		d.observer.Enqueued(shard)
	}
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.CallEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			err := d.service.Process(ctx, event)
			if err != nil {
				d.log.Error().Err(err).
					Str("call_id", event.ExternalCallID).
					Str("tenant_id", event.TenantID).
					Int("worker_id", id).
					Msg("call event processing failed")
			}
			if d.observer != nil {
				d.observer.Processed(id, err)
			}
		}
	}
}
