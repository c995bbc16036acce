package booking

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending         Status = "PENDING"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
	StatusCancelRequested Status = "CANCEL_REQUESTED"
	StatusCancelled       Status = "CANCELLED"
)

// CreatedByAdmin is the only value createdBy may carry.
const CreatedByAdmin = "ADMIN"

// ParseStatus upper-cases s when it names one of the known statuses.
// Anything else is returned trimmed but otherwise untouched.
func ParseStatus(s string) (Status, bool) {
	trimmed := strings.TrimSpace(s)
	switch st := Status(strings.ToUpper(trimmed)); st {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelRequested, StatusCancelled:
		return st, true
	}
	return Status(trimmed), false
}

// Terminal reports whether the status no longer claims hall time.
func (s Status) Terminal() bool {
	st, _ := ParseStatus(string(s))
	return st == StatusCancelled || st == StatusRejected
}

// TimeRange is a clock interval inside one day, "HH:MM" or "HH:MM:SS".
type TimeRange struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// DaySlots maps a YYYY-MM-DD date to the part of that day a day-range booking
// blocks. A nil value blocks the whole day; dates not present are free.
type DaySlots map[string]*TimeRange

func (d DaySlots) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (d *DaySlots) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*d = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("day_slots: unsupported type %T", src)
	}
	if len(data) == 0 {
		*d = nil
		return nil
	}
	return json.Unmarshal(data, d)
}

// Booking is a reservation of one hall. Exactly one temporal shape applies:
// Date+StartTime+EndTime, StartDate+EndDate (optionally refined by DaySlots),
// or a free-form Slot tag with no dates at all.
type Booking struct {
	ID       string `db:"id" json:"id"`
	HallName string `db:"hall_name" json:"hallName"`

	Date      string `db:"date" json:"date,omitempty"`
	StartTime string `db:"start_time" json:"startTime,omitempty"`
	EndTime   string `db:"end_time" json:"endTime,omitempty"`

	StartDate string   `db:"start_date" json:"startDate,omitempty"`
	EndDate   string   `db:"end_date" json:"endDate,omitempty"`
	DaySlots  DaySlots `db:"day_slots" json:"daySlots,omitempty"`

	Slot      string `db:"slot" json:"slot,omitempty"`
	SlotTitle string `db:"slot_title" json:"slotTitle,omitempty"`

	BookingName string `db:"booking_name" json:"bookingName"`
	Email       string `db:"email" json:"email"`
	Department  string `db:"department" json:"department"`
	Phone       string `db:"phone" json:"phone"`

	Status             Status    `db:"status" json:"status"`
	CreatedBy          string    `db:"created_by" json:"createdBy,omitempty"`
	Remarks            string    `db:"remarks" json:"remarks,omitempty"`
	CancellationReason string    `db:"cancellation_reason" json:"cancellationReason,omitempty"`
	AppliedAt          time.Time `db:"applied_at" json:"appliedAt"`
}

func (b *Booking) hasTimeSlot() bool {
	return b.Date != "" && b.StartTime != "" && b.EndTime != ""
}

func (b *Booking) hasDayRange() bool {
	return b.StartDate != "" && b.EndDate != ""
}

// IsTag reports whether the booking carries no date information and is only
// identified by its slot label. Tag bookings never take part in conflict checks.
func (b *Booking) IsTag() bool {
	return b.Date == "" && b.StartDate == "" && b.EndDate == "" && len(b.DaySlots) == 0
}

func (b *Booking) clone() Booking {
	c := *b
	if b.DaySlots != nil {
		c.DaySlots = make(DaySlots, len(b.DaySlots))
		for k, v := range b.DaySlots {
			if v != nil {
				r := *v
				c.DaySlots[k] = &r
			} else {
				c.DaySlots[k] = nil
			}
		}
	}
	return c
}

// Patch carries a partial update: only non-nil fields replace the stored ones.
type Patch struct {
	HallName           *string    `json:"hallName"`
	Date               *string    `json:"date"`
	StartTime          *string    `json:"startTime"`
	EndTime            *string    `json:"endTime"`
	StartDate          *string    `json:"startDate"`
	EndDate            *string    `json:"endDate"`
	DaySlots           DaySlots   `json:"daySlots"`
	Slot               *string    `json:"slot"`
	SlotTitle          *string    `json:"slotTitle"`
	BookingName        *string    `json:"bookingName"`
	Email              *string    `json:"email"`
	Department         *string    `json:"department"`
	Phone              *string    `json:"phone"`
	Status             *string    `json:"status"`
	CreatedBy          *string    `json:"createdBy"`
	Remarks            *string    `json:"remarks"`
	CancellationReason *string    `json:"cancellationReason"`
	AppliedAt          *time.Time `json:"appliedAt"`
}

func (p *Patch) touchesTimeSlot() bool {
	return p.Date != nil || p.StartTime != nil || p.EndTime != nil
}

func (p *Patch) touchesDayRange() bool {
	return p.StartDate != nil || p.EndDate != nil || p.DaySlots != nil
}

// Principal identifies who is asking for a booking operation.
type Principal struct {
	Email string
	Admin bool
}

type CreateParams struct {
	Principal Principal
	Booking   Booking
}

type UpdateParams struct {
	Principal Principal
	ID        string
	Patch     Patch
}

type CancelRequestParams struct {
	ID                 string
	CancellationReason string
	Remarks            string
}

// SearchFilter narrows a booking listing. Empty fields match everything.
type SearchFilter struct {
	Department string
	Hall       string
	Date       string
	Slot       string
}

// CalendarDay summarises how busy one date is.
type CalendarDay struct {
	Date  string `json:"date"`
	Free  bool   `json:"free"`
	Count int    `json:"count"`
}

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrForbidden       = errors.New("operation not permitted for this requester")
)
