// Package domain contains the core model types for the telemetry rule
// service: rules, alarms, derived aggregates and the shared error taxonomy.
package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// TimeFormat is the wire format for rule timestamps: ISO-8601 with an
// explicit UTC offset. All timestamps written by this service are UTC,
// which makes the textual form sort chronologically.
const TimeFormat = "2006-01-02T15:04:05-07:00"

// FormatTime renders t in the wire format, normalized to UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// ParseTime parses a wire-format timestamp.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeFormat, s)
}

// Rule is a versioned, soft-deletable alert rule. The conditions and
// actions are opaque to this service; they are stored and returned
// verbatim for the evaluation pipeline to interpret.
type Rule struct {
	// ID is assigned by the store on first insert if empty,
	// otherwise caller-supplied.
	ID string `json:"id"`

	// Name is a human-readable rule name.
	Name string `json:"name"`

	// Description explains what the rule watches for.
	Description string `json:"description,omitempty"`

	// GroupID references the device group the rule applies to.
	GroupID string `json:"groupId,omitempty"`

	// Severity is the severity of alarms raised by this rule.
	Severity string `json:"severity,omitempty"`

	// Enabled controls whether the evaluation pipeline runs this rule.
	Enabled bool `json:"enabled"`

	// Conditions is the opaque condition expression for the rule.
	Conditions json.RawMessage `json:"conditions,omitempty"`

	// Actions is the opaque list of actions taken when the rule fires.
	Actions json.RawMessage `json:"actions,omitempty"`

	// ETag is the opaque version token assigned by the store. A write
	// must present the ETag it last read; a mismatch means another
	// writer won the race.
	ETag string `json:"eTag,omitempty"`

	// DateCreated is immutable after the first write.
	DateCreated string `json:"dateCreated,omitempty"`

	// DateModified is updated on every successful write.
	DateModified string `json:"dateModified,omitempty"`

	// Deleted marks the rule as logically gone. Deleted rules are
	// excluded from normal listings but retrievable on demand.
	Deleted bool `json:"deleted"`
}

// Validation errors for Rule.
var (
	ErrEmptyRuleName = NewInvalidInput("rule name is required")
)

// Validate checks that a caller-supplied rule is well formed.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return ErrEmptyRuleName
	}
	return nil
}

// Less defines the total order used for rule listings: by DateCreated,
// with ID as the tie-break. Timestamps are always written in UTC wire
// format, so the string comparison is chronological.
func (r *Rule) Less(other *Rule) bool {
	if r.DateCreated != other.DateCreated {
		return r.DateCreated < other.DateCreated
	}
	return r.ID < other.ID
}

// MatchesGroup reports whether the rule belongs to groupID,
// case-insensitively. An empty groupID matches every rule.
func (r *Rule) MatchesGroup(groupID string) bool {
	return groupID == "" || strings.EqualFold(r.GroupID, groupID)
}
