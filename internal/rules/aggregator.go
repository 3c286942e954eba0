package rules

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"telemetry-go/internal/alarms"
	"telemetry-go/internal/domain"
	"telemetry-go/internal/metrics"
)

// maxAlarmLookups bounds how many per-rule alarm lookups run at once.
const maxAlarmLookups = 8

// Aggregator joins rule pages with alarm counts and most-recent-alarm
// data from the alarms service.
type Aggregator struct {
	repo   *Repository
	alarms alarms.Service
	logger *slog.Logger
}

// NewAggregator creates an aggregator over the given repository and
// alarms service.
func NewAggregator(repo *Repository, svc alarms.Service, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		repo:   repo,
		alarms: svc,
		logger: logger,
	}
}

// AlarmCounts returns one AlarmCountByRule per rule that raised at
// least one alarm in [from, to] across the device filter. The rule page
// is taken with deleted rules included and no group filter, so alarms
// fired by since-deleted rules still show up.
//
// Lookups for different rules run concurrently, but the result order
// always matches the rule page order. Rules with a zero count are
// omitted. A nonzero count with no retrievable alarm means the count
// and detail sources have diverged; that is a ConsistencyError which
// aborts the whole call. Any alarms service failure likewise aborts:
// there is no partial-success mode.
func (a *Aggregator) AlarmCounts(
	ctx context.Context,
	from, to time.Time,
	order string,
	skip, limit int,
	devices []string,
) ([]*domain.AlarmCountByRule, error) {

	page, err := a.repo.Query(ctx, QueryOptions{
		Order:          order,
		Skip:           skip,
		Limit:          limit,
		IncludeDeleted: true,
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results := make([]*domain.AlarmCountByRule, len(page))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxAlarmLookups)

	for i, rule := range page {
		g.Go(func() error {
			entry, err := a.countForRule(gctx, rule, from, to, devices)
			if err != nil {
				return err
			}
			results[i] = entry
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		metrics.AggregationsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	// Compact in page order, dropping rules without alarms.
	out := make([]*domain.AlarmCountByRule, 0, len(results))
	for _, entry := range results {
		if entry != nil {
			out = append(out, entry)
		}
	}

	metrics.AggregationsTotal.WithLabelValues("success").Inc()
	metrics.AggregationLatency.Observe(time.Since(start).Seconds())
	return out, nil
}

// countForRule fetches the alarm count and, when nonzero, the single
// most recent alarm for one rule. Returns nil for rules with no alarms
// in the window.
func (a *Aggregator) countForRule(
	ctx context.Context,
	rule *domain.Rule,
	from, to time.Time,
	devices []string,
) (*domain.AlarmCountByRule, error) {

	count, err := a.alarms.CountByRule(ctx, rule.ID, from, to, devices)
	if err != nil {
		return nil, domain.NewDependency(err,
			"could not retrieve alarm count for rule %q", rule.ID)
	}
	if count == 0 {
		return nil, nil
	}

	recent, err := a.alarms.ListByRule(ctx, rule.ID, from, to, "desc", 0, 1, devices)
	if err != nil {
		return nil, domain.NewDependency(err,
			"could not retrieve most recent alarm for rule %q", rule.ID)
	}
	if len(recent) == 0 {
		a.logger.Error("alarm count mismatch",
			"ruleID", rule.ID, "count", count)
		return nil, domain.NewConsistency(
			"alarm count for rule %q is %d but no alarm record was found", rule.ID, count)
	}

	return &domain.AlarmCountByRule{
		Count:       count,
		Status:      recent[0].Status,
		DateCreated: recent[0].DateCreated,
		Rule:        *rule,
	}, nil
}
