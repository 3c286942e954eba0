package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"telemetry-go/internal/metrics"
)

// publishTimeout bounds each publish attempt, detached from the
// triggering request's context.
const publishTimeout = 5 * time.Second

// Publisher serializes rule events onto a Producer. Publishing is
// best-effort: failures are logged and counted, never surfaced to the
// mutation that triggered them.
type Publisher struct {
	producer Producer
	logger   *slog.Logger
}

// NewPublisher creates a publisher over the given producer.
func NewPublisher(producer Producer, logger *slog.Logger) *Publisher {
	return &Publisher{producer: producer, logger: logger}
}

// RuleChanged publishes one rule event keyed by rule id.
func (p *Publisher) RuleChanged(eventType RuleEventType, ruleID, groupID string) {
	event := RuleEvent{
		Type:      eventType,
		RuleID:    ruleID,
		GroupID:   groupID,
		Timestamp: time.Now().UTC(),
	}

	value, err := json.Marshal(&event)
	if err != nil {
		p.logger.Error("failed to encode rule event", "error", err, "ruleID", ruleID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	msg := &Message{Key: []byte(ruleID), Value: value}
	if err := p.producer.Publish(ctx, msg); err != nil {
		metrics.RuleEventsTotal.WithLabelValues(string(eventType), "failure").Inc()
		p.logger.Error("failed to publish rule event",
			"error", err, "type", eventType, "ruleID", ruleID)
		return
	}
	metrics.RuleEventsTotal.WithLabelValues(string(eventType), "success").Inc()
}
