package domain

import (
	"testing"
	"time"
)

func TestRuleValidate(t *testing.T) {
	rule := &Rule{Name: "High Temperature", Enabled: true}
	if err := rule.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	rule = &Rule{}
	if err := rule.Validate(); err != ErrEmptyRuleName {
		t.Errorf("Expected ErrEmptyRuleName, got %v", err)
	}
}

func TestRuleLess(t *testing.T) {
	earlier := &Rule{ID: "b", DateCreated: "2025-01-01T00:00:00+00:00"}
	later := &Rule{ID: "a", DateCreated: "2025-06-01T00:00:00+00:00"}

	if !earlier.Less(later) {
		t.Error("Earlier rule should sort before later rule")
	}
	if later.Less(earlier) {
		t.Error("Later rule should not sort before earlier rule")
	}

	// Same timestamp falls back to id order
	tieA := &Rule{ID: "a", DateCreated: "2025-01-01T00:00:00+00:00"}
	tieB := &Rule{ID: "b", DateCreated: "2025-01-01T00:00:00+00:00"}
	if !tieA.Less(tieB) {
		t.Error("Ties should break by id")
	}
	if tieB.Less(tieA) {
		t.Error("Tie break should be stable in one direction")
	}
}

func TestRuleMatchesGroup(t *testing.T) {
	rule := &Rule{GroupID: "Chillers"}

	if !rule.MatchesGroup("") {
		t.Error("Empty group filter should match every rule")
	}
	if !rule.MatchesGroup("chillers") {
		t.Error("Group match should be case-insensitive")
	}
	if rule.MatchesGroup("elevators") {
		t.Error("Different group should not match")
	}

	ungrouped := &Rule{}
	if ungrouped.MatchesGroup("chillers") {
		t.Error("Ungrouped rule should not match a group filter")
	}
}

func TestTimeFormatRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	formatted := FormatTime(now)
	if formatted != "2025-03-14T09:26:53+00:00" {
		t.Errorf("FormatTime() = %v", formatted)
	}

	parsed, err := ParseTime(formatted)
	if err != nil {
		t.Fatalf("ParseTime() error = %v", err)
	}
	if !parsed.Equal(now) {
		t.Errorf("Round trip changed the instant: %v != %v", parsed, now)
	}
}

func TestFormatTimeNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("plus5", 5*3600)
	local := time.Date(2025, 3, 14, 9, 0, 0, 0, loc)
	utc := local.UTC()

	// UTC normalization keeps the textual order chronological.
	if FormatTime(local) != FormatTime(utc) {
		t.Errorf("FormatTime should normalize offsets: %v != %v",
			FormatTime(local), FormatTime(utc))
	}
}
