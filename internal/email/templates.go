package email

import (
	"context"
	"fmt"
	"strings"
)

// BookingDetails is the part of a booking that ends up in a mail body.
type BookingDetails struct {
	ID                 string
	Hall               string
	Department         string
	Event              string
	RequesterName      string
	RequesterEmail     string
	When               string
	Status             string
	PreviousStatus     string
	CancellationReason string
}

const signature = "\n\n- HallSlot Booking Desk"

func (d BookingDetails) block() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Booking: %s\n", d.ID)
	fmt.Fprintf(&b, "Hall: %s\n", d.Hall)
	if d.Department != "" {
		fmt.Fprintf(&b, "Department: %s\n", d.Department)
	}
	if d.Event != "" {
		fmt.Fprintf(&b, "Event: %s\n", d.Event)
	}
	fmt.Fprintf(&b, "When: %s\n", d.When)
	fmt.Fprintf(&b, "Status: %s", d.Status)
	return b.String()
}

func greeting(name string) string {
	if name == "" {
		return "Hello,"
	}
	return "Hi " + name + ","
}

func bookingReceivedJob(d BookingDetails) EmailJob {
	body := fmt.Sprintf("%s\n\nYour request for %s has been received.\n\n%s%s",
		greeting(d.RequesterName), d.Hall, d.block(), signature)

	return EmailJob{
		Type:    "booking_created",
		To:      d.RequesterEmail,
		Name:    d.RequesterName,
		Subject: "Hall booking received - " + d.Hall,
		Body:    body,
	}
}

func statusChangedJob(d BookingDetails) EmailJob {
	body := fmt.Sprintf("%s\n\nYour booking for %s changed from %s to %s.\n\n%s%s",
		greeting(d.RequesterName), d.Hall, d.PreviousStatus, d.Status, d.block(), signature)

	return EmailJob{
		Type:    "status_changed",
		To:      d.RequesterEmail,
		Name:    d.RequesterName,
		Subject: fmt.Sprintf("Hall booking %s - %s", strings.ToLower(d.Status), d.Hall),
		Body:    body,
	}
}

func cancelRequestedJob(d BookingDetails) EmailJob {
	reason := d.CancellationReason
	if reason == "" {
		reason = "not given"
	}
	body := fmt.Sprintf("%s\n\nWe received your cancellation request for %s.\nReason: %s\n\n%s%s",
		greeting(d.RequesterName), d.Hall, reason, d.block(), signature)

	return EmailJob{
		Type:    "cancel_requested",
		To:      d.RequesterEmail,
		Name:    d.RequesterName,
		Subject: "Cancellation requested - " + d.Hall,
		Body:    body,
	}
}

func bookingRemovedJob(d BookingDetails) EmailJob {
	body := fmt.Sprintf("%s\n\nYour booking for %s was removed by an administrator.\n\n%s%s",
		greeting(d.RequesterName), d.Hall, d.block(), signature)

	return EmailJob{
		Type:    "booking_removed",
		To:      d.RequesterEmail,
		Name:    d.RequesterName,
		Subject: "Hall booking removed - " + d.Hall,
		Body:    body,
	}
}

// operatorNoticeJob tells a hall operator what happened to a booking of their hall.
func operatorNoticeJob(to, name, action string, d BookingDetails) EmailJob {
	body := fmt.Sprintf("%s\n\nA booking for %s was %s.\nRequested by: %s\n\n%s%s",
		greeting(name), d.Hall, action, d.RequesterEmail, d.block(), signature)

	return EmailJob{
		Type:    "operator_notice",
		To:      to,
		Name:    name,
		Subject: fmt.Sprintf("[%s] booking %s", d.Hall, action),
		Body:    body,
	}
}

func (s *Service) SendBookingReceived(ctx context.Context, d BookingDetails) error {
	return s.enqueue(ctx, bookingReceivedJob(d))
}

func (s *Service) SendStatusChanged(ctx context.Context, d BookingDetails) error {
	return s.enqueue(ctx, statusChangedJob(d))
}

func (s *Service) SendCancelRequested(ctx context.Context, d BookingDetails) error {
	return s.enqueue(ctx, cancelRequestedJob(d))
}

func (s *Service) SendBookingRemoved(ctx context.Context, d BookingDetails) error {
	return s.enqueue(ctx, bookingRemovedJob(d))
}

// SendOperatorNotice tells a hall operator what happened to a booking of their hall.
func (s *Service) SendOperatorNotice(ctx context.Context, to, name, action string, d BookingDetails) error {
	return s.enqueue(ctx, operatorNoticeJob(to, name, action, d))
}
