package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"telemetry-go/internal/events"
)

func TestQueuePublishAndConsume(t *testing.T) {
	queue := NewQueue(10)
	defer queue.Close()

	ctx := context.Background()
	if err := queue.Publish(ctx, &events.Message{Key: []byte("r1"), Value: []byte("a")}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := queue.Publish(ctx, &events.Message{Key: []byte("r1"), Value: []byte("b")}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if queue.Len() != 2 {
		t.Errorf("Len = %d, want 2", queue.Len())
	}

	consumeCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()

	var received []string
	_ = queue.Start(consumeCtx, func(ctx context.Context, msg *events.Message) error {
		received = append(received, string(msg.Value))
		return nil
	})

	if len(received) != 2 || received[0] != "a" || received[1] != "b" {
		t.Errorf("Received = %v, want [a b] in publish order", received)
	}
}

func TestQueueHandlerErrorDoesNotStopStream(t *testing.T) {
	queue := NewQueue(10)
	defer queue.Close()

	ctx := context.Background()
	_ = queue.Publish(ctx, &events.Message{Value: []byte("bad")})
	_ = queue.Publish(ctx, &events.Message{Value: []byte("good")})

	consumeCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()

	var seen []string
	_ = queue.Start(consumeCtx, func(ctx context.Context, msg *events.Message) error {
		seen = append(seen, string(msg.Value))
		if string(msg.Value) == "bad" {
			return context.DeadlineExceeded
		}
		return nil
	})

	if len(seen) != 2 {
		t.Errorf("Handler failure should not stop the stream, saw %v", seen)
	}
}

func TestQueuePublishAfterClose(t *testing.T) {
	queue := NewQueue(10)
	_ = queue.Close()

	err := queue.Publish(context.Background(), &events.Message{Value: []byte("x")})
	if err != ErrQueueClosed {
		t.Errorf("Expected ErrQueueClosed, got %v", err)
	}

	// Closing twice is fine
	if err := queue.Close(); err != nil {
		t.Errorf("Second Close() error = %v", err)
	}
}

func TestQueueCloseWithBlockedPublisher(t *testing.T) {
	queue := NewQueue(1)
	ctx := context.Background()

	if err := queue.Publish(ctx, &events.Message{Value: []byte("first")}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	publishDone := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				publishDone <- fmt.Errorf("publish panicked: %v", r)
			}
		}()
		publishDone <- queue.Publish(ctx, &events.Message{Value: []byte("second")})
	}()

	// Let the publisher block on the full buffer before closing.
	time.Sleep(50 * time.Millisecond)

	closeDone := make(chan struct{})
	go func() {
		_ = queue.Close()
		close(closeDone)
	}()

	// A consumer drains the buffer so the blocked publisher, and then
	// Close, can finish.
	consumeCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	var seen int
	_ = queue.Start(consumeCtx, func(ctx context.Context, msg *events.Message) error {
		seen++
		return nil
	})

	select {
	case err := <-publishDone:
		if err != nil {
			t.Fatalf("Blocked Publish() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Blocked publish never finished")
	}
	select {
	case <-closeDone:
	case <-time.After(time.Second):
		t.Fatal("Close never finished")
	}
	if seen != 2 {
		t.Errorf("Consumed %d messages, want 2", seen)
	}
}
