// Package memory provides an in-memory implementation of alarms.Service
// for development mode and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"telemetry-go/internal/alarms"
	"telemetry-go/internal/domain"
)

// Service is an in-memory alarms store. Safe for concurrent use.
type Service struct {
	mu     sync.RWMutex
	alarms map[string]*domain.Alarm
}

// NewService creates an empty in-memory alarms store.
func NewService() *Service {
	return &Service{
		alarms: make(map[string]*domain.Alarm),
	}
}

// Create stores a new alarm, assigning an id if none is given.
// Used by dev-mode seeding and tests.
func (s *Service) Create(ctx context.Context, alarm *domain.Alarm) (*domain.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *alarm
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.Status == "" {
		stored.Status = domain.AlarmStatusOpen
	}
	s.alarms[stored.ID] = &stored

	result := stored
	return &result, nil
}

// Get retrieves a single alarm by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Alarm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alarm, ok := s.alarms[id]
	if !ok {
		return nil, domain.NewNotFound("alarm %q not found", id)
	}
	result := *alarm
	return &result, nil
}

// List retrieves alarms in the window, filtered, ordered and paginated.
func (s *Service) List(ctx context.Context, from, to time.Time, order string, skip, limit int, devices []string) ([]*domain.Alarm, error) {
	return s.list(ctx, "", from, to, order, skip, limit, devices)
}

// ListByRule is List restricted to one rule.
func (s *Service) ListByRule(ctx context.Context, ruleID string, from, to time.Time, order string, skip, limit int, devices []string) ([]*domain.Alarm, error) {
	return s.list(ctx, ruleID, from, to, order, skip, limit, devices)
}

// CountByRule counts alarms for one rule in the window.
func (s *Service) CountByRule(ctx context.Context, ruleID string, from, to time.Time, devices []string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, alarm := range s.alarms {
		if matches(alarm, ruleID, from, to, devices) {
			count++
		}
	}
	return count, nil
}

// UpdateStatus changes an alarm's triage state.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.AlarmStatus) (*domain.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alarm, ok := s.alarms[id]
	if !ok {
		return nil, domain.NewNotFound("alarm %q not found", id)
	}

	alarm.Status = status
	alarm.DateModified = time.Now().UTC()
	result := *alarm
	return &result, nil
}

// Delete removes an alarm. Deleting an absent alarm succeeds.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.alarms, id)
	return nil
}

// DeleteMany removes up to MaxDeleteBatch alarms by id.
func (s *Service) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) > alarms.MaxDeleteBatch {
		return domain.NewInvalidInput("cannot delete more than %d alarms at once", alarms.MaxDeleteBatch)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.alarms, id)
	}
	return nil
}

// Clear removes all alarms. Test cleanup hook.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alarms = make(map[string]*domain.Alarm)
}

func (s *Service) list(ctx context.Context, ruleID string, from, to time.Time, order string, skip, limit int, devices []string) ([]*domain.Alarm, error) {
	if skip < 0 || limit <= 0 {
		return nil, domain.NewInvalidInput("invalid page bounds: skip %d, limit %d", skip, limit)
	}

	s.mu.RLock()
	matched := make([]*domain.Alarm, 0, len(s.alarms))
	for _, alarm := range s.alarms {
		if matches(alarm, ruleID, from, to, devices) {
			copied := *alarm
			matched = append(matched, &copied)
		}
	}
	s.mu.RUnlock()

	ascending := order == "asc"
	sort.Slice(matched, func(i, j int) bool {
		if ascending {
			return matched[i].DateCreated.Before(matched[j].DateCreated)
		}
		return matched[j].DateCreated.Before(matched[i].DateCreated)
	})

	if skip >= len(matched) {
		return []*domain.Alarm{}, nil
	}
	end := skip + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], nil
}

// matches applies the rule, window and device filters. A zero ruleID
// matches every rule; an empty device list matches every device.
func matches(alarm *domain.Alarm, ruleID string, from, to time.Time, devices []string) bool {
	if ruleID != "" && alarm.RuleID != ruleID {
		return false
	}
	if alarm.DateCreated.Before(from) || alarm.DateCreated.After(to) {
		return false
	}
	if len(devices) == 0 {
		return true
	}
	for _, d := range devices {
		if alarm.DeviceID == d {
			return true
		}
	}
	return false
}
