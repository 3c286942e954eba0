package memory

import (
	"context"
	"testing"
	"time"

	"telemetry-go/internal/alarms"
	"telemetry-go/internal/domain"
)

func seed(t *testing.T, svc *Service, ruleID, deviceID string, at time.Time) *domain.Alarm {
	t.Helper()
	alarm, err := svc.Create(context.Background(), &domain.Alarm{
		RuleID:      ruleID,
		DeviceID:    deviceID,
		DateCreated: at,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return alarm
}

func TestServiceCreateAndGet(t *testing.T) {
	svc := NewService()
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	created := seed(t, svc, "rule-1", "device-1", at)
	if created.ID == "" {
		t.Error("Create should assign an id")
	}
	if created.Status != domain.AlarmStatusOpen {
		t.Errorf("Default status = %q, want open", created.Status)
	}

	got, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.RuleID != "rule-1" {
		t.Errorf("RuleID = %q", got.RuleID)
	}

	if _, err := svc.Get(context.Background(), "missing"); !domain.IsNotFound(err) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}
}

func TestServiceListWindowAndOrder(t *testing.T) {
	svc := NewService()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	seed(t, svc, "rule-1", "device-1", base)
	seed(t, svc, "rule-1", "device-1", base.Add(time.Hour))
	seed(t, svc, "rule-1", "device-1", base.Add(48*time.Hour)) // outside window

	list, err := svc.List(ctx, base, base.Add(2*time.Hour), "asc", 0, 10, nil)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List = %d alarms, want 2", len(list))
	}
	if !list[0].DateCreated.Before(list[1].DateCreated) {
		t.Error("Ascending list should be in fire-time order")
	}

	desc, err := svc.List(ctx, base, base.Add(2*time.Hour), "desc", 0, 10, nil)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if !desc[0].DateCreated.After(desc[1].DateCreated) {
		t.Error("Descending list should be in reverse fire-time order")
	}
}

func TestServiceListDeviceFilter(t *testing.T) {
	svc := NewService()
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	seed(t, svc, "rule-1", "device-1", at)
	seed(t, svc, "rule-1", "device-2", at)

	list, err := svc.List(context.Background(),
		at.Add(-time.Hour), at.Add(time.Hour), "asc", 0, 10, []string{"device-2"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].DeviceID != "device-2" {
		t.Errorf("Filtered list = %+v", list)
	}
}

func TestServiceListByRuleAndCount(t *testing.T) {
	svc := NewService()
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	seed(t, svc, "rule-1", "device-1", at)
	seed(t, svc, "rule-1", "device-1", at.Add(time.Minute))
	seed(t, svc, "rule-2", "device-1", at)

	list, err := svc.ListByRule(ctx, "rule-1", at.Add(-time.Hour), at.Add(time.Hour), "desc", 0, 10, nil)
	if err != nil {
		t.Fatalf("ListByRule() error = %v", err)
	}
	if len(list) != 2 {
		t.Errorf("ListByRule = %d alarms, want 2", len(list))
	}

	count, err := svc.CountByRule(ctx, "rule-1", at.Add(-time.Hour), at.Add(time.Hour), nil)
	if err != nil {
		t.Fatalf("CountByRule() error = %v", err)
	}
	if count != 2 {
		t.Errorf("CountByRule = %d, want 2", count)
	}
}

func TestServiceListRejectsInvalidBounds(t *testing.T) {
	svc := NewService()

	_, err := svc.List(context.Background(), time.Time{}, time.Now(), "asc", -1, 10, nil)
	if !domain.IsInvalidInput(err) {
		t.Errorf("Expected InvalidInputError for negative skip, got %v", err)
	}

	_, err = svc.List(context.Background(), time.Time{}, time.Now(), "asc", 0, 0, nil)
	if !domain.IsInvalidInput(err) {
		t.Errorf("Expected InvalidInputError for zero limit, got %v", err)
	}
}

func TestServiceUpdateStatus(t *testing.T) {
	svc := NewService()
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	created := seed(t, svc, "rule-1", "device-1", at)

	updated, err := svc.UpdateStatus(context.Background(), created.ID, domain.AlarmStatusAcknowledged)
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if updated.Status != domain.AlarmStatusAcknowledged {
		t.Errorf("Status = %q, want acknowledged", updated.Status)
	}
	if updated.DateModified.IsZero() {
		t.Error("UpdateStatus should stamp DateModified")
	}

	if _, err := svc.UpdateStatus(context.Background(), "missing", domain.AlarmStatusClosed); !domain.IsNotFound(err) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}
}

func TestServiceDeleteMany(t *testing.T) {
	svc := NewService()
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	a := seed(t, svc, "rule-1", "device-1", at)
	b := seed(t, svc, "rule-1", "device-1", at)

	if err := svc.DeleteMany(ctx, []string{a.ID, b.ID, "missing"}); err != nil {
		t.Fatalf("DeleteMany() error = %v", err)
	}
	if _, err := svc.Get(ctx, a.ID); !domain.IsNotFound(err) {
		t.Errorf("Alarm %q should be gone", a.ID)
	}

	// Batch limit
	tooMany := make([]string, alarms.MaxDeleteBatch+1)
	for i := range tooMany {
		tooMany[i] = "id"
	}
	if err := svc.DeleteMany(ctx, tooMany); !domain.IsInvalidInput(err) {
		t.Errorf("Expected InvalidInputError for oversized batch, got %v", err)
	}
}
