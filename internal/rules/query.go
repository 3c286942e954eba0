package rules

import (
	"context"
	"sort"
	"strings"
	"time"

	"telemetry-go/internal/domain"
	"telemetry-go/internal/metrics"
)

// QueryOptions control filtering, ordering and pagination of rule
// listings.
type QueryOptions struct {
	// Order sorts ascending for "asc" (case-insensitive); any other
	// value, including "desc", sorts descending.
	Order string

	// Skip is the number of matching rules to skip. Must be >= 0.
	Skip int

	// Limit caps the page size. Must be > 0.
	Limit int

	// GroupID, when non-empty, keeps only rules whose group matches
	// case-insensitively.
	GroupID string

	// IncludeDeleted also returns soft-deleted rules.
	IncludeDeleted bool
}

// Query fetches the full rule collection and reconstructs filter, sort
// and pagination client-side; the backing store can only return whole
// collections. This is an O(collection size) scan per call, a known
// ceiling that holds until the store grows server-side querying.
//
// Rules are ordered by (DateCreated, ID). Parameter violations fail
// before any network call.
func (r *Repository) Query(ctx context.Context, opts QueryOptions) ([]*domain.Rule, error) {
	if opts.Skip < 0 || opts.Limit <= 0 {
		return nil, domain.NewInvalidInput(
			"invalid page bounds: skip %d, limit %d", opts.Skip, opts.Limit)
	}

	start := time.Now()
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*domain.Rule, 0, len(all))
	for _, rule := range all {
		if rule.MatchesGroup(opts.GroupID) && (opts.IncludeDeleted || !rule.Deleted) {
			filtered = append(filtered, rule)
		}
	}

	ascending := strings.EqualFold(opts.Order, "asc")
	sort.SliceStable(filtered, func(i, j int) bool {
		if ascending {
			return filtered[i].Less(filtered[j])
		}
		return filtered[j].Less(filtered[i])
	})

	metrics.RuleQueryLatency.Observe(time.Since(start).Seconds())

	if opts.Skip >= len(filtered) {
		return []*domain.Rule{}, nil
	}
	end := opts.Skip + opts.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[opts.Skip:end], nil
}
