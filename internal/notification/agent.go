// Package notification consumes rule change events and dispatches them
// to subscribers. The agent is an independent long-lived task fed only
// through the queue; it shares no state with the rule core.
package notification

import (
	"context"
	"encoding/json"
	"log/slog"

	"telemetry-go/internal/events"
)

// Notifier delivers one rule change notification.
type Notifier interface {
	// NotifyRuleChanged delivers a notification for one rule event.
	NotifyRuleChanged(ctx context.Context, event *events.RuleEvent)
}

// Agent reads rule events from the queue and hands them to a Notifier.
type Agent struct {
	consumer events.Consumer
	notifier Notifier
	logger   *slog.Logger
}

// NewAgent creates a notification agent.
func NewAgent(consumer events.Consumer, notifier Notifier, logger *slog.Logger) *Agent {
	return &Agent{
		consumer: consumer,
		notifier: notifier,
		logger:   logger,
	}
}

// Start consumes events until the context is canceled.
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("starting notification agent")
	return a.consumer.Start(ctx, a.handle)
}

// Stop closes the underlying consumer.
func (a *Agent) Stop() error {
	return a.consumer.Close()
}

// handle decodes one rule event and dispatches it. A malformed payload
// is logged and skipped; it must not stall the stream.
func (a *Agent) handle(ctx context.Context, msg *events.Message) error {
	var event events.RuleEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		a.logger.Error("failed to decode rule event", "error", err)
		return nil
	}

	a.notifier.NotifyRuleChanged(ctx, &event)
	return nil
}

// StubNotifier logs notifications instead of delivering them. Used
// until webhook delivery is configured.
type StubNotifier struct {
	logger *slog.Logger
}

// NewStubNotifier creates a new stub notifier.
func NewStubNotifier(logger *slog.Logger) *StubNotifier {
	return &StubNotifier{logger: logger}
}

// NotifyRuleChanged logs the rule change.
func (n *StubNotifier) NotifyRuleChanged(ctx context.Context, event *events.RuleEvent) {
	n.logger.Info("rule changed",
		"type", event.Type,
		"ruleID", event.RuleID,
		"groupID", event.GroupID,
		"timestamp", event.Timestamp,
	)
}
