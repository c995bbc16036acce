package booking

import (
	"strings"
	"time"
)

const remarksSeparator = " | "

// transitions lists the status changes the generic update path may apply.
var transitions = map[Status][]Status{
	StatusPending:         {StatusApproved, StatusRejected, StatusCancelled, StatusCancelRequested},
	StatusApproved:        {StatusCancelRequested, StatusCancelled},
	StatusCancelRequested: {StatusCancelled, StatusPending, StatusApproved},
}

func checkCreatedBy(value string, p Principal) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", nil
	}
	if !strings.EqualFold(v, CreatedByAdmin) || !p.Admin {
		return "", invalid(KindInvalidCreatedBy, "createdBy", "createdBy may only be set to 'ADMIN' by admin endpoints")
	}
	return CreatedByAdmin, nil
}

// prepareCreate applies creation defaults: PENDING unless an admin asks for
// APPROVED, in which case the booking is marked as created by ADMIN.
func prepareCreate(b *Booking, p Principal, now time.Time) error {
	createdBy, err := checkCreatedBy(b.CreatedBy, p)
	if err != nil {
		return err
	}
	b.CreatedBy = createdBy

	status, _ := ParseStatus(string(b.Status))
	switch {
	case status == "" || !p.Admin || status == StatusPending:
		b.Status = StatusPending
	case status == StatusApproved:
		b.Status = StatusApproved
		b.CreatedBy = CreatedByAdmin
	default:
		return invalid(KindInvalidStatus, "status", "a new booking can only start as PENDING or APPROVED, got %q", status)
	}

	if b.AppliedAt.IsZero() {
		b.AppliedAt = now.UTC()
	}
	return nil
}

// CanTransition reports whether the generic update path may move a booking
// from one status to another. Statuses outside the known five are tolerated.
func CanTransition(from, to Status) bool {
	fromNorm, fromKnown := ParseStatus(string(from))
	toNorm, toKnown := ParseStatus(string(to))
	if fromNorm == toNorm {
		return true
	}
	if fromNorm.Terminal() {
		return false
	}
	if !fromKnown || !toKnown {
		return true
	}
	for _, allowed := range transitions[fromNorm] {
		if allowed == toNorm {
			return true
		}
	}
	return false
}

func checkTransition(from, to Status, p Principal) (Status, error) {
	fromNorm, _ := ParseStatus(string(from))
	toNorm, _ := ParseStatus(string(to))
	if toNorm == fromNorm {
		return fromNorm, nil
	}
	if !p.Admin {
		return "", ErrForbidden
	}
	if !CanTransition(fromNorm, toNorm) {
		return "", invalid(KindInvalidTransition, "status", "cannot change status from %s to %s", fromNorm, toNorm)
	}
	return toNorm, nil
}

func setIf(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// applyPatch overwrites the fields the patch supplies. A patch that only
// touches one temporal shape clears the other, so a booking can switch shape.
func applyPatch(b *Booking, p *Patch, principal Principal) error {
	if p.CreatedBy != nil {
		createdBy, err := checkCreatedBy(*p.CreatedBy, principal)
		if err != nil {
			return err
		}
		if createdBy != "" {
			b.CreatedBy = createdBy
		}
	}
	if p.Status != nil {
		status, err := checkTransition(b.Status, Status(*p.Status), principal)
		if err != nil {
			return err
		}
		b.Status = status
	}

	switch {
	case p.touchesDayRange() && !p.touchesTimeSlot():
		b.Date, b.StartTime, b.EndTime = "", "", ""
	case p.touchesTimeSlot() && !p.touchesDayRange():
		b.StartDate, b.EndDate, b.DaySlots = "", "", nil
	}

	setIf(&b.HallName, p.HallName)
	setIf(&b.Date, p.Date)
	setIf(&b.StartTime, p.StartTime)
	setIf(&b.EndTime, p.EndTime)
	setIf(&b.StartDate, p.StartDate)
	setIf(&b.EndDate, p.EndDate)
	if p.DaySlots != nil {
		b.DaySlots = p.DaySlots
	}
	setIf(&b.Slot, p.Slot)
	setIf(&b.SlotTitle, p.SlotTitle)
	setIf(&b.BookingName, p.BookingName)
	setIf(&b.Email, p.Email)
	setIf(&b.Department, p.Department)
	setIf(&b.Phone, p.Phone)
	setIf(&b.Remarks, p.Remarks)
	setIf(&b.CancellationReason, p.CancellationReason)
	if p.AppliedAt != nil {
		b.AppliedAt = *p.AppliedAt
	}
	return nil
}

// applyCancelRequest moves b to CANCEL_REQUESTED. Remarks are appended to the
// existing history rather than replacing it.
func applyCancelRequest(b *Booking, reason, remarks string) error {
	if b.Status.Terminal() {
		st, _ := ParseStatus(string(b.Status))
		return invalid(KindInvalidTransition, "status", "cannot request cancellation of a %s booking", st)
	}

	b.Status = StatusCancelRequested

	if strings.TrimSpace(reason) != "" {
		b.CancellationReason = reason
	}
	if strings.TrimSpace(remarks) != "" {
		if strings.TrimSpace(b.Remarks) != "" {
			b.Remarks += remarksSeparator + remarks
		} else {
			b.Remarks = remarks
		}
	}
	return nil
}
