// Package alarms defines the alarms collaborator consumed by the rule
// aggregator and the alarm maintenance API, with PostgreSQL and
// in-memory implementations.
package alarms

import (
	"context"
	"time"

	"telemetry-go/internal/domain"
)

// MaxDeleteBatch bounds the number of ids accepted by DeleteMany.
const MaxDeleteBatch = 1000

// Service is the alarms storage contract. Implementations must be safe
// for concurrent use.
type Service interface {
	// Get retrieves a single alarm by id.
	Get(ctx context.Context, id string) (*domain.Alarm, error)

	// List retrieves alarms in [from, to], optionally filtered by
	// device ids, ordered by fire time (asc, or desc for any other
	// order value), paginated by skip/limit.
	List(ctx context.Context, from, to time.Time, order string, skip, limit int, devices []string) ([]*domain.Alarm, error)

	// ListByRule is List restricted to alarms raised by one rule.
	ListByRule(ctx context.Context, ruleID string, from, to time.Time, order string, skip, limit int, devices []string) ([]*domain.Alarm, error)

	// CountByRule counts the alarms raised by one rule in [from, to]
	// across the device filter.
	CountByRule(ctx context.Context, ruleID string, from, to time.Time, devices []string) (int, error)

	// UpdateStatus changes an alarm's triage state.
	UpdateStatus(ctx context.Context, id string, status domain.AlarmStatus) (*domain.Alarm, error)

	// Delete removes an alarm by id. Deleting an absent alarm succeeds.
	Delete(ctx context.Context, id string) error

	// DeleteMany removes up to MaxDeleteBatch alarms by id.
	DeleteMany(ctx context.Context, ids []string) error
}
