// Package worker drains shard queues into the session engine.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/dojo/internal/adapters/mq/queue"
	"github.com/okian/dojo/pkg/logger"
	"github.com/okian/dojo/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Handler applies one message to the session it addresses.
type Handler interface {
	Handle(ctx context.Context, m queue.Message) error
}

// Queue defines how workers receive messages.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Message
}

// Worker processes messages from a single queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue is drained.
	Run(ctx context.Context)

	// Shutdown stops the worker without draining.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker is the single consumer of one shard queue.
type InMemoryWorker struct {
	queue   Queue
	handler Handler
	name    string

	processed atomic.Int64
	failed    atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, handler Handler, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		handler:  handler,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	messages := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case m, ok := <-messages:
			if !ok {
				return
			}
			w.process(ctx, m)
		}
	}
}

// Shutdown signals the worker to stop and waits for the loop to exit.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	if !w.stop() {
		return ErrStopped
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// stop closes the shutdown signal; it reports false if it was already closed.
func (w *InMemoryWorker) stop() bool {
	first := false
	w.shutdownOnce.Do(func() {
		close(w.shutdown)
		first = true
	})
	return first
}

// Processed returns how many messages the worker has handled.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

// Failed returns how many messages the handler rejected.
func (w *InMemoryWorker) Failed() int64 { return w.failed.Load() }

func (w *InMemoryWorker) process(ctx context.Context, m queue.Message) { //nolint:gocritic // hugeParam: Message is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	err := w.handler.Handle(ctx, m)
	w.processed.Add(1)
	if err != nil {
		w.failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", m.Op.String())
		w.logger.Warn(ctx, "message rejected",
			logger.String("session_id", m.SessionID),
			logger.String("op", m.Op.String()),
			logger.Error(err),
		)
	}
	if m.Reply != nil {
		m.Reply <- err
	}
}

// Pool runs one worker per shard queue.
type Pool struct {
	workers []*InMemoryWorker
	queues  []queue.Queue
	logger  logger.Logger
}

// NewPool creates a pool with a dedicated worker for every queue.
func NewPool(queues []queue.Queue, handler Handler) *Pool {
	p := &Pool{
		workers: make([]*InMemoryWorker, len(queues)),
		queues:  queues,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i, q := range queues {
		p.workers[i] = NewInMemoryWorker(q, handler, WithName("worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerCount(len(queues))
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Processed returns the total messages handled across workers.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Shutdown closes every queue and lets the workers drain what was already
// accepted. Workers still busy when ctx expires are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	for _, q := range p.queues {
		if err := q.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			w.stop()
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("worker pool drain: %w", shutdownCtx.Err())
	}
	return nil
}
