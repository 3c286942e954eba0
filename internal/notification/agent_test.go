package notification

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"telemetry-go/internal/events"
	"telemetry-go/internal/events/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// recordingNotifier captures delivered events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []*events.RuleEvent
}

func (n *recordingNotifier) NotifyRuleChanged(ctx context.Context, event *events.RuleEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) delivered() []*events.RuleEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*events.RuleEvent(nil), n.events...)
}

func TestAgentDeliversEvents(t *testing.T) {
	queue := memory.NewQueue(10)
	defer queue.Close()

	notifier := &recordingNotifier{}
	agent := NewAgent(queue, notifier, testLogger())

	event := events.RuleEvent{Type: events.RuleUpdated, RuleID: "rule-1", Timestamp: time.Now().UTC()}
	value, _ := json.Marshal(&event)
	_ = queue.Publish(context.Background(), &events.Message{Key: []byte("rule-1"), Value: value})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = agent.Start(ctx)

	delivered := notifier.delivered()
	if len(delivered) != 1 {
		t.Fatalf("Delivered %d events, want 1", len(delivered))
	}
	if delivered[0].Type != events.RuleUpdated || delivered[0].RuleID != "rule-1" {
		t.Errorf("Delivered = %+v", delivered[0])
	}
}

func TestAgentSkipsMalformedEvents(t *testing.T) {
	queue := memory.NewQueue(10)
	defer queue.Close()

	notifier := &recordingNotifier{}
	agent := NewAgent(queue, notifier, testLogger())

	_ = queue.Publish(context.Background(), &events.Message{Value: []byte("not json")})
	good, _ := json.Marshal(&events.RuleEvent{Type: events.RuleDeleted, RuleID: "rule-2"})
	_ = queue.Publish(context.Background(), &events.Message{Value: good})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = agent.Start(ctx)

	delivered := notifier.delivered()
	if len(delivered) != 1 || delivered[0].RuleID != "rule-2" {
		t.Errorf("Malformed event should be skipped, delivered = %+v", delivered)
	}
}
