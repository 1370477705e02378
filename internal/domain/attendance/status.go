package attendance

import "fmt"

// EventType is the declared direction of a check event.
type EventType string

const (
	EventTypeIn  EventType = "IN"
	EventTypeOut EventType = "OUT"
)

var EventTypeValues = []string{
	string(EventTypeIn),
	string(EventTypeOut),
}

// ParseEventType converts the wire value into an EventType.
func ParseEventType(s string) (EventType, error) {
	switch EventType(s) {
	case EventTypeIn, EventTypeOut:
		return EventType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidEventType, s)
	}
}

// Outcome is the validation result recorded on every check event.
type Outcome string

const (
	OutcomeOnTime          Outcome = "ON_TIME"
	OutcomeLate            Outcome = "LATE"
	OutcomeEarly           Outcome = "EARLY"
	OutcomeInvalidLocation Outcome = "INVALID_LOCATION"
	OutcomeInvalidTime     Outcome = "INVALID_TIME"
)

var OutcomeValues = []string{
	string(OutcomeOnTime),
	string(OutcomeLate),
	string(OutcomeEarly),
	string(OutcomeInvalidLocation),
	string(OutcomeInvalidTime),
}

// ParseOutcome converts a stored value into an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	switch Outcome(s) {
	case OutcomeOnTime, OutcomeLate, OutcomeEarly, OutcomeInvalidLocation, OutcomeInvalidTime:
		return Outcome(s), nil
	default:
		return "", fmt.Errorf("unknown check event outcome %q", s)
	}
}

// IsValid is false for outcomes that reject the event.
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeOnTime, OutcomeLate, OutcomeEarly:
		return true
	case OutcomeInvalidLocation, OutcomeInvalidTime:
		return false
	default:
		return false
	}
}

// Reason is the message shown to the employee for the outcome.
func (o Outcome) Reason() string {
	switch o {
	case OutcomeOnTime:
		return "on time"
	case OutcomeLate:
		return "later than the allowed grace period"
	case OutcomeEarly:
		return "earlier than the scheduled time"
	case OutcomeInvalidLocation:
		return "you are not within the valid check-in area"
	case OutcomeInvalidTime:
		return "no shift is open for check-in at this time"
	default:
		return "unknown outcome"
	}
}
