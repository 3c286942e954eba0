// Package rules implements the rule lifecycle: storage-adapter-backed
// CRUD with optimistic concurrency and soft deletes, client-side
// querying over the full collection, and the alarm-count aggregation
// that joins rules with the alarms service.
package rules

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"telemetry-go/internal/diagnostics"
	"telemetry-go/internal/domain"
	"telemetry-go/internal/metrics"
	"telemetry-go/internal/storage"
)

// Collection is the storage adapter collection holding rule documents.
const Collection = "rules"

// Diagnostics event names emitted on repository mutations.
const (
	eventRuleCreated = "rule_created"
	eventRuleDeleted = "rule_deleted"
	eventRuleCount   = "rule_count"
)

// Repository persists rules in the storage adapter. The adapter has no
// versioned-update or logical-delete primitive, so the repository builds
// both on top of the envelope ETag and a deleted flag in the payload.
// Stateless and safe for concurrent use.
type Repository struct {
	store  storage.Store
	diag   *diagnostics.Emitter
	logger *slog.Logger
}

// NewRepository creates a rule repository over the given store.
func NewRepository(store storage.Store, diag *diagnostics.Emitter, logger *slog.Logger) *Repository {
	return &Repository{
		store:  store,
		diag:   diag,
		logger: logger,
	}
}

// Get retrieves a single rule by id, deleted or not.
func (r *Repository) Get(ctx context.Context, id string) (*domain.Rule, error) {
	value, err := r.store.Get(ctx, Collection, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewNotFound("rule %q not found", id)
		}
		return nil, err
	}
	return decodeRule(value)
}

// List fetches the entire rule collection in one round trip. It applies
// no filtering or sorting; that is the query engine's job.
func (r *Repository) List(ctx context.Context) ([]*domain.Rule, error) {
	list, err := r.store.GetAll(ctx, Collection)
	if err != nil {
		return nil, err
	}

	rules := make([]*domain.Rule, 0, len(list.Items))
	for i := range list.Items {
		rule, err := decodeRule(&list.Items[i])
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Create inserts a new rule, letting the store assign its id. Both
// timestamps are stamped server-side; caller-supplied values are
// ignored. Emits a rule_created diagnostics event on success.
func (r *Repository) Create(ctx context.Context, rule *domain.Rule) (*domain.Rule, error) {
	now := domain.FormatTime(time.Now())
	rule.DateCreated = now
	rule.DateModified = now

	data, err := encodeRule(rule)
	if err != nil {
		return nil, err
	}

	value, err := r.store.Create(ctx, Collection, data)
	if err != nil {
		metrics.RuleOperationsTotal.WithLabelValues("create", "failure").Inc()
		return nil, err
	}

	created, err := decodeRule(value)
	if err != nil {
		return nil, err
	}

	metrics.RuleOperationsTotal.WithLabelValues("create", "success").Inc()
	r.emitLifecycleEvent(eventRuleCreated)
	r.logger.Info("created rule", "id", created.ID, "name", created.Name)
	return created, nil
}

// UpsertIfNotDeleted writes a rule under its caller-supplied id. A rule
// whose stored version is soft-deleted cannot be revived this way and
// fails with NotFoundError. If no stored version exists the call behaves
// as create-with-id; otherwise the stored DateCreated is preserved and
// the write carries the stored ETag, so a concurrent modification since
// the read surfaces as ConflictError.
//
// The read-then-write sequence is not atomic: a writer that sneaks in
// between is only caught by the store's ETag check. That window is an
// accepted property of the backing store's contract, not compensated
// with retries.
func (r *Repository) UpsertIfNotDeleted(ctx context.Context, rule *domain.Rule) (*domain.Rule, error) {
	if rule.ID == "" {
		return nil, domain.NewInvalidInput("rule id is required for upsert")
	}

	existing, err := r.Get(ctx, rule.ID)
	if err != nil && !domain.IsNotFound(err) {
		return nil, err
	}

	if existing != nil && existing.Deleted {
		return nil, domain.NewNotFound("rule %q not found", rule.ID)
	}

	now := domain.FormatTime(time.Now())
	if existing == nil {
		rule.DateCreated = now
		rule.DateModified = now
		rule.ETag = ""
	} else {
		rule.DateCreated = existing.DateCreated
		rule.DateModified = now
		rule.ETag = existing.ETag
	}

	updated, err := r.write(ctx, rule)
	if err != nil {
		metrics.RuleOperationsTotal.WithLabelValues("upsert", "failure").Inc()
		return nil, err
	}

	metrics.RuleOperationsTotal.WithLabelValues("upsert", "success").Inc()
	r.logger.Info("upserted rule", "id", updated.ID)
	return updated, nil
}

// Delete soft-deletes a rule. Deleting an absent or already-deleted
// rule is a no-op success, which makes the operation idempotent; the
// returned bool reports whether a tombstone was actually written, so
// callers can tell a real deletion from a no-op. The write carries the
// current ETag, so a concurrent conflicting write surfaces as
// ConflictError. Emits rule_deleted only when it wrote.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	existing, err := r.Get(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if existing.Deleted {
		return false, nil
	}

	existing.Deleted = true
	if _, err := r.write(ctx, existing); err != nil {
		metrics.RuleOperationsTotal.WithLabelValues("delete", "failure").Inc()
		return false, err
	}

	metrics.RuleOperationsTotal.WithLabelValues("delete", "success").Inc()
	r.emitLifecycleEvent(eventRuleDeleted)
	r.logger.Info("deleted rule", "id", id)
	return true, nil
}

// DeleteMany soft-deletes the given rules one by one, aborting on the
// first failure. Rules earlier in the list stay deleted when a later
// one fails; callers that need stronger semantics retry the batch,
// which is safe because Delete is idempotent. Returns the ids that
// were actually written, no-ops excluded, even when aborting.
func (r *Repository) DeleteMany(ctx context.Context, ids []string) ([]string, error) {
	var deleted []string
	for _, id := range ids {
		wrote, err := r.Delete(ctx, id)
		if wrote {
			deleted = append(deleted, id)
		}
		if err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

// CountActive counts the non-deleted rules in the collection.
func (r *Repository) CountActive(ctx context.Context) (int, error) {
	rules, err := r.List(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, rule := range rules {
		if !rule.Deleted {
			count++
		}
	}
	return count, nil
}

// write PUTs a rule under its id with its current ETag and decodes the
// store's response, which carries the freshly assigned ETag.
func (r *Repository) write(ctx context.Context, rule *domain.Rule) (*domain.Rule, error) {
	data, err := encodeRule(rule)
	if err != nil {
		return nil, err
	}

	value, err := r.store.Update(ctx, Collection, rule.ID, data, rule.ETag)
	if err != nil {
		return nil, err
	}
	return decodeRule(value)
}

// emitLifecycleEvent sends a mutation event and, independently, a fresh
// non-deleted rule count. Both run off the critical path; the triggering
// operation's outcome and latency are unaffected.
func (r *Repository) emitLifecycleEvent(name string) {
	if !r.diag.Enabled() {
		return
	}
	r.diag.Event(name, nil)
	r.diag.Do(func(ctx context.Context) {
		count, err := r.CountActive(ctx)
		if err != nil {
			r.logger.Debug("rule count for diagnostics failed", "error", err)
			return
		}
		r.diag.Send(ctx, eventRuleCount, map[string]any{"Count": count})
	})
}

// encodeRule serializes a rule for the envelope's Data field. The ETag
// travels in the envelope, never inside the payload.
func encodeRule(rule *domain.Rule) (string, error) {
	body := *rule
	body.ETag = ""
	data, err := json.Marshal(&body)
	if err != nil {
		return "", domain.NewDependency(err, "failed to encode rule %q", rule.ID)
	}
	return string(data), nil
}

// decodeRule rebuilds a rule from a storage envelope. A malformed
// envelope means the store broke its own contract, which is a
// dependency failure rather than a caller error.
func decodeRule(value *storage.Value) (*domain.Rule, error) {
	var rule domain.Rule
	if err := json.Unmarshal([]byte(value.Data), &rule); err != nil {
		return nil, domain.NewDependencyStatus(0, value.Data,
			"could not parse rule payload from storage adapter")
	}
	rule.ETag = value.ETag
	if rule.ID == "" {
		rule.ID = value.Key
	}
	return &rule, nil
}
