package notifications

import (
	"context"
	"errors"
	"sync"

	"bakehub/pkg/logger"
)

// ErrQueueFull is returned when the in-process buffer cannot take an event.
var ErrQueueFull = errors.New("notification queue is full")

// ErrQueueClosed is returned for events published after Close.
var ErrQueueClosed = errors.New("notification queue is closed")

// WorkerQueue is an in-process Publisher backed by a buffered channel and a
// fixed pool of workers.
type WorkerQueue struct {
	handler Handler
	log     *logger.Logger
	events  chan Event
	workers int

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewWorkerQueue creates a queue. Call Start before publishing.
func NewWorkerQueue(handler Handler, workers, buffer int, log *logger.Logger) *WorkerQueue {
	if workers <= 0 {
		workers = 2
	}
	if buffer <= 0 {
		buffer = 100
	}
	if log == nil {
		log = logger.Nop()
	}
	return &WorkerQueue{
		handler: handler,
		log:     log,
		events:  make(chan Event, buffer),
		workers: workers,
	}
}

// Start launches the workers. They run on ctx, which should not be tied to
// any request.
func (q *WorkerQueue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(ctx)
	}
}

func (q *WorkerQueue) work(ctx context.Context) {
	defer q.wg.Done()
	for event := range q.events {
		evCtx := q.log.WithOrderID(ctx, event.OrderID)
		if err := q.handler.Handle(evCtx, event); err != nil {
			q.log.Error(evCtx, "notification handler failed for "+string(event.Type), err)
		}
	}
}

// Publish enqueues event without waiting. A full buffer drops the event.
func (q *WorkerQueue) Publish(_ context.Context, event Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.events <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for queued ones to drain.
func (q *WorkerQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.events)
	q.mu.Unlock()
	q.wg.Wait()
}
