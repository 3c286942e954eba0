// Package events defines the rule change event stream and the queue
// interfaces it travels over. The abstraction allows swapping transports
// (Kafka, in-memory) without touching publishers or consumers.
package events

import (
	"context"
	"time"
)

// RuleEventType identifies what happened to a rule.
type RuleEventType string

const (
	RuleCreated RuleEventType = "created"
	RuleUpdated RuleEventType = "updated"
	RuleDeleted RuleEventType = "deleted"
)

// RuleEvent is published after every successful rule mutation.
type RuleEvent struct {
	// Type is the kind of mutation.
	Type RuleEventType `json:"type"`

	// RuleID identifies the mutated rule.
	RuleID string `json:"ruleId"`

	// GroupID is the rule's device group, when known.
	GroupID string `json:"groupId,omitempty"`

	// Timestamp is when the mutation completed.
	Timestamp time.Time `json:"timestamp"`
}

// Message is a raw message on the queue.
type Message struct {
	// Key is the partition key. Events for the same rule share a key
	// so they are consumed in order.
	Key []byte

	// Value is the serialized event payload.
	Value []byte

	// Headers carries optional metadata.
	Headers map[string]string
}

// Producer publishes messages to the queue.
// Implementations must be safe for concurrent use.
type Producer interface {
	// Publish sends a message. Messages with the same key are
	// delivered in publish order.
	Publish(ctx context.Context, msg *Message) error

	// Close releases any resources held by the producer.
	Close() error
}

// Handler processes one consumed message. Returning an error marks the
// message as failed; the transport decides whether to redeliver.
type Handler func(ctx context.Context, msg *Message) error

// Consumer reads messages from the queue.
type Consumer interface {
	// Start consumes messages and calls the handler for each one,
	// blocking until the context is canceled or the transport fails
	// unrecoverably.
	Start(ctx context.Context, handler Handler) error

	// Close stops consuming and releases any resources.
	Close() error
}
