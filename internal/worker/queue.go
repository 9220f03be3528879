// Package worker runs chat messages through the dispatcher after the Events
// API request that carried them has been acknowledged.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/celerix-dev/alphabot/internal/bot"
)

var (
	ErrQueueFull      = errors.New("message queue is full")
	ErrQueueStopped   = errors.New("message queue is stopped")
	ErrDuplicateEvent = errors.New("event already accepted")
)

// DefaultSeenEvents bounds how many event IDs are remembered for dedupe.
const DefaultSeenEvents = 1024

// Handler processes a single message to completion.
type Handler interface {
	Handle(ctx context.Context, msg bot.Message) error
}

// Job is one accepted chat message.
type Job struct {
	EventID       string
	CorrelationID string
	Message       bot.Message
}

// Queue hands jobs to a single worker goroutine, so messages are handled one
// at a time in arrival order.
type Queue struct {
	handler Handler
	timeout time.Duration
	jobs    chan Job

	mu      sync.Mutex
	stopped bool
	seen    *recentIDs

	wg sync.WaitGroup
}

// NewQueue creates a queue holding up to size pending jobs. Each job gets
// timeout to finish; zero means no deadline.
func NewQueue(handler Handler, size int, timeout time.Duration) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{
		handler: handler,
		timeout: timeout,
		jobs:    make(chan Job, size),
		seen:    newRecentIDs(DefaultSeenEvents),
	}
}

// Start launches the worker.
func (q *Queue) Start() {
	slog.Info("Starting message worker", "queue_size", cap(q.jobs))
	q.wg.Add(1)
	go q.worker()
}

// Submit enqueues job without blocking. A job whose EventID was already
// accepted is refused with ErrDuplicateEvent.
func (q *Queue) Submit(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return ErrQueueStopped
	}
	if job.EventID != "" && q.seen.contains(job.EventID) {
		return ErrDuplicateEvent
	}

	select {
	case q.jobs <- job:
	default:
		return ErrQueueFull
	}
	// Only remember IDs that made it in; a refused event may be redelivered
	if job.EventID != "" {
		q.seen.add(job.EventID)
	}

	slog.Debug("Message queued",
		"event_id", job.EventID,
		"correlation_id", job.CorrelationID,
	)
	return nil
}

// Stop refuses new jobs and waits for queued ones to drain, or for ctx.
func (q *Queue) Stop(ctx context.Context) error {
	slog.Info("Stopping message worker")

	q.mu.Lock()
	if !q.stopped {
		q.stopped = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Message worker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of jobs waiting.
func (q *Queue) Len() int {
	return len(q.jobs)
}

func (q *Queue) worker() {
	defer q.wg.Done()

	for job := range q.jobs {
		q.run(job)
	}
}

func (q *Queue) run(job Job) {
	ctx := context.Background()
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := q.handler.Handle(ctx, job.Message); err != nil {
		slog.Error("Failed to handle message",
			"error", err,
			"event_id", job.EventID,
			"channel", job.Message.Channel,
			"correlation_id", job.CorrelationID,
		)
		return
	}
	slog.Debug("Message handled",
		"event_id", job.EventID,
		"correlation_id", job.CorrelationID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// recentIDs is a fixed-size set that forgets the oldest ID first.
type recentIDs struct {
	ids   map[string]struct{}
	order []string
	next  int
}

func newRecentIDs(size int) *recentIDs {
	return &recentIDs{
		ids:   make(map[string]struct{}, size),
		order: make([]string, size),
	}
}

func (r *recentIDs) contains(id string) bool {
	_, ok := r.ids[id]
	return ok
}

func (r *recentIDs) add(id string) {
	if old := r.order[r.next]; old != "" {
		delete(r.ids, old)
	}
	r.order[r.next] = id
	r.ids[id] = struct{}{}
	r.next = (r.next + 1) % len(r.order)
}
