package domain

import "time"

// AlarmStatus is the triage state of an alarm.
type AlarmStatus string

const (
	AlarmStatusOpen         AlarmStatus = "open"
	AlarmStatusAcknowledged AlarmStatus = "acknowledged"
	AlarmStatusClosed       AlarmStatus = "closed"
)

// IsValid returns true if the status is one of the known triage states.
func (s AlarmStatus) IsValid() bool {
	switch s {
	case AlarmStatusOpen, AlarmStatusAcknowledged, AlarmStatusClosed:
		return true
	}
	return false
}

// Alarm is a single alarm raised by a rule against a device.
type Alarm struct {
	// ID is the unique identifier for this alarm.
	ID string `json:"id"`

	// RuleID references the rule that raised the alarm.
	RuleID string `json:"ruleId"`

	// DeviceID is the device the alarm fired for.
	DeviceID string `json:"deviceId"`

	// Description is a human-readable summary of the alarm.
	Description string `json:"description,omitempty"`

	// Severity is copied from the rule at the time the alarm fired.
	Severity string `json:"severity,omitempty"`

	// Status is the current triage state.
	Status AlarmStatus `json:"status"`

	// DateCreated is when the alarm fired.
	DateCreated time.Time `json:"dateCreated"`

	// DateModified is when the alarm status last changed.
	DateModified time.Time `json:"dateModified"`
}

// AlarmCountByRule joins a rule with its alarm count and most recent
// alarm over an aggregation window. It is derived per request and never
// persisted. Count is always nonzero: rules without alarms in the window
// are omitted from aggregation results entirely.
type AlarmCountByRule struct {
	// Count is the number of alarms for the rule within the window.
	Count int `json:"count"`

	// Status is the triage state of the most recent alarm.
	Status AlarmStatus `json:"status"`

	// DateCreated is when the most recent alarm fired.
	DateCreated time.Time `json:"dateCreated"`

	// Rule is the rule the alarms belong to.
	Rule Rule `json:"rule"`
}
