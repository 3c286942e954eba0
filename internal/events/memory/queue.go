// Package memory provides an in-memory implementation of the events
// queue interfaces, for development mode and tests.
package memory

import (
	"context"
	"errors"
	"sync"

	"telemetry-go/internal/events"
)

// ErrQueueClosed is returned when publishing to a closed queue.
var ErrQueueClosed = errors.New("queue is closed")

// Queue implements both events.Producer and events.Consumer over a
// channel, giving simple pub/sub within a process. Safe for concurrent
// use.
type Queue struct {
	messages chan *events.Message
	closed   bool
	mu       sync.RWMutex
	wg       sync.WaitGroup
}

// NewQueue creates an in-memory queue with the given buffer size.
// Publish blocks when the buffer is full.
func NewQueue(bufferSize int) *Queue {
	return &Queue{
		messages: make(chan *events.Message, bufferSize),
	}
}

// Publish sends a message to the queue. The read lock is held across
// the send so Close cannot close the channel under a blocked sender;
// Close waits for in-flight publishes instead.
func (q *Queue) Publish(ctx context.Context, msg *events.Message) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start consumes messages until the context is canceled or the queue
// is closed.
func (q *Queue) Start(ctx context.Context, handler events.Handler) error {
	q.wg.Add(1)
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-q.messages:
			if !ok {
				return nil
			}
			if err := handler(ctx, msg); err != nil {
				// Handler failures don't stop the stream.
				continue
			}
		}
	}
}

// Close shuts down the queue, stopping all consumers.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true
	close(q.messages)
	q.wg.Wait()
	return nil
}

// Len returns the number of buffered messages. Test hook.
func (q *Queue) Len() int {
	return len(q.messages)
}
