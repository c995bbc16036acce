package booking

import "fmt"

type ValidationKind string

const (
	KindInvalidEmail      ValidationKind = "INVALID_EMAIL"
	KindInvalidPhone      ValidationKind = "INVALID_PHONE"
	KindMalformedPayload  ValidationKind = "MALFORMED_PAYLOAD"
	KindBadDateFormat     ValidationKind = "BAD_DATE_FORMAT"
	KindBadTimeRange      ValidationKind = "BAD_TIME_RANGE"
	KindDaySlotOutOfRange ValidationKind = "DAYSLOT_OUT_OF_RANGE"
	KindBadDaySlotDate    ValidationKind = "BAD_DAYSLOT_DATE"
	KindInvalidCreatedBy  ValidationKind = "INVALID_CREATED_BY"
	KindInvalidStatus     ValidationKind = "INVALID_STATUS"
	KindInvalidTransition ValidationKind = "INVALID_TRANSITION"
)

// ValidationError describes a payload the caller has to correct before retrying.
type ValidationError struct {
	Kind    ValidationKind `json:"kind"`
	Field   string         `json:"field,omitempty"`
	Message string         `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Field, e.Message)
}

func invalid(kind ValidationKind, field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports the existing booking that already holds the requested time.
type ConflictError struct {
	Hall      string `json:"hall"`
	Date      string `json:"date"`
	Interval  string `json:"conflictingInterval"`
	BookingID string `json:"conflictingBookingId"`
}

func (e *ConflictError) Error() string {
	if e.Interval == fullDayLabel {
		return fmt.Sprintf("hall %s already has a full-day booking on %s", e.Hall, e.Date)
	}
	return fmt.Sprintf("hall %s is already booked on %s from %s", e.Hall, e.Date, e.Interval)
}
