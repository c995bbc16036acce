package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"hallslot/internal/booking"
	"hallslot/internal/email"
	"hallslot/internal/events"
	"hallslot/internal/hall"
	"hallslot/internal/logger"
)

type Mailer interface {
	SendBookingReceived(ctx context.Context, d email.BookingDetails) error
	SendStatusChanged(ctx context.Context, d email.BookingDetails) error
	SendCancelRequested(ctx context.Context, d email.BookingDetails) error
	SendBookingRemoved(ctx context.Context, d email.BookingDetails) error
	SendOperatorNotice(ctx context.Context, to, name, action string, d email.BookingDetails) error
}

type OperatorDirectory interface {
	OperatorsForHall(ctx context.Context, hallName string) ([]hall.Operator, error)
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// BookingEvent is the message body published for every accepted change.
type BookingEvent struct {
	Type           string           `json:"type"`
	Booking        *booking.Booking `json:"booking"`
	PreviousStatus string           `json:"previousStatus,omitempty"`
	OccurredAt     time.Time        `json:"occurredAt"`
}

// Dispatcher implements booking.Notifier. Every notification runs in its own
// goroutine detached from the request; failures are logged only. Any of the
// collaborators may be nil.
type Dispatcher struct {
	mailer    Mailer
	operators OperatorDirectory
	publisher EventPublisher
	timeout   time.Duration
	wg        sync.WaitGroup
}

var _ booking.Notifier = (*Dispatcher)(nil)

func NewDispatcher(mailer Mailer, operators OperatorDirectory, publisher EventPublisher) *Dispatcher {
	return &Dispatcher{
		mailer:    mailer,
		operators: operators,
		publisher: publisher,
		timeout:   10 * time.Second,
	}
}

// Wait blocks until in-flight notifications finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) BookingCreated(ctx context.Context, b *booking.Booking) {
	d.dispatch(ctx, b, "created", events.KeyBookingCreated, "", func(ctx context.Context, m Mailer, det email.BookingDetails) error {
		return m.SendBookingReceived(ctx, det)
	})
}

func (d *Dispatcher) StatusChanged(ctx context.Context, b *booking.Booking, previous booking.Status) {
	action := "changed to " + strings.ToLower(string(b.Status))
	d.dispatch(ctx, b, action, events.StatusKey(string(b.Status)), string(previous), func(ctx context.Context, m Mailer, det email.BookingDetails) error {
		det.PreviousStatus = string(previous)
		return m.SendStatusChanged(ctx, det)
	})
}

func (d *Dispatcher) CancelRequested(ctx context.Context, b *booking.Booking) {
	d.dispatch(ctx, b, "asked to be cancelled", events.KeyCancelRequest, "", func(ctx context.Context, m Mailer, det email.BookingDetails) error {
		return m.SendCancelRequested(ctx, det)
	})
}

func (d *Dispatcher) BookingRemoved(ctx context.Context, b *booking.Booking) {
	d.dispatch(ctx, b, "removed", events.KeyBookingRemoved, "", func(ctx context.Context, m Mailer, det email.BookingDetails) error {
		return m.SendBookingRemoved(ctx, det)
	})
}

type requesterMail func(ctx context.Context, m Mailer, det email.BookingDetails) error

func (d *Dispatcher) dispatch(ctx context.Context, b *booking.Booking, action, key, previous string, mail requesterMail) {
	snapshot := *b
	ctx = context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		log := logger.WithFields(map[string]interface{}{"booking_id": snapshot.ID, "hall": snapshot.HallName, "action": action})
		det := Details(&snapshot)

		if d.mailer != nil {
			if snapshot.Email != "" {
				if err := mail(ctx, d.mailer, det); err != nil {
					log.Error("requester notification failed", "error", err)
				}
			}
			d.notifyOperators(ctx, log, action, det)
		}

		if d.publisher != nil {
			evt := BookingEvent{Type: key, Booking: &snapshot, PreviousStatus: previous, OccurredAt: time.Now().UTC()}
			if err := d.publisher.PublishJSON(ctx, key, evt); err != nil {
				log.Error("event publish failed", "error", err, "routing_key", key)
			}
		}
	}()
}

func (d *Dispatcher) notifyOperators(ctx context.Context, log *slog.Logger, action string, det email.BookingDetails) {
	if d.operators == nil {
		return
	}
	ops, err := d.operators.OperatorsForHall(ctx, det.Hall)
	if err != nil {
		log.Error("hall operator lookup failed", "error", err)
		return
	}
	for _, op := range ops {
		if op.HeadEmail == "" {
			continue
		}
		if err := d.mailer.SendOperatorNotice(ctx, op.HeadEmail, op.HeadName, action, det); err != nil {
			log.Error("hall operator notification failed", "error", err, "operator", op.HeadEmail)
		}
	}
}

// Details flattens a booking into the fields used by mail templates.
func Details(b *booking.Booking) email.BookingDetails {
	return email.BookingDetails{
		ID:                 b.ID,
		Hall:               strings.TrimSpace(b.HallName),
		Department:         b.Department,
		Event:              b.SlotTitle,
		RequesterName:      b.BookingName,
		RequesterEmail:     b.Email,
		When:               When(b),
		Status:             string(b.Status),
		CancellationReason: b.CancellationReason,
	}
}

// When renders the booking's time in a human readable form.
func When(b *booking.Booking) string {
	switch {
	case b.Date != "":
		return fmt.Sprintf("%s %s-%s", b.Date, b.StartTime, b.EndTime)
	case b.StartDate != "" || b.EndDate != "":
		when := fmt.Sprintf("%s to %s", b.StartDate, b.EndDate)
		if len(b.DaySlots) == 0 {
			return when
		}
		dates := make([]string, 0, len(b.DaySlots))
		for date := range b.DaySlots {
			dates = append(dates, date)
		}
		sort.Strings(dates)
		parts := make([]string, 0, len(dates))
		for _, date := range dates {
			if r := b.DaySlots[date]; r != nil {
				parts = append(parts, fmt.Sprintf("%s %s-%s", date, r.StartTime, r.EndTime))
			} else {
				parts = append(parts, date+" full day")
			}
		}
		return when + " (" + strings.Join(parts, ", ") + ")"
	default:
		return b.Slot
	}
}
