package booking

import "context"

// Notifier is told about accepted booking changes. Implementations must not
// block the caller for long and report their own failures.
type Notifier interface {
	BookingCreated(ctx context.Context, b *Booking)
	StatusChanged(ctx context.Context, b *Booking, previous Status)
	CancelRequested(ctx context.Context, b *Booking)
	BookingRemoved(ctx context.Context, b *Booking)
}

type NopNotifier struct{}

func (NopNotifier) BookingCreated(context.Context, *Booking)        {}
func (NopNotifier) StatusChanged(context.Context, *Booking, Status) {}
func (NopNotifier) CancelRequested(context.Context, *Booking)       {}
func (NopNotifier) BookingRemoved(context.Context, *Booking)        {}
