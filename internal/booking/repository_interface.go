package booking

import "context"

// Repository is the booking store. FindByID returns ErrBookingNotFound when
// no row matches; list methods return an empty slice rather than an error.
type Repository interface {
	Save(ctx context.Context, b *Booking) (*Booking, error)
	FindByID(ctx context.Context, id string) (*Booking, error)
	DeleteByID(ctx context.Context, id string) error
	FindAll(ctx context.Context) ([]Booking, error)
	FindByHallAndDate(ctx context.Context, hall, date string) ([]Booking, error)
	FindByDate(ctx context.Context, date string) ([]Booking, error)
	FindByDepartmentAndEmail(ctx context.Context, department, email string) ([]Booking, error)
	FindByStatus(ctx context.Context, status Status) ([]Booking, error)
}

// RangeRepository is implemented by stores that can pre-filter candidates for
// a conflict check by date window instead of returning every booking.
type RangeRepository interface {
	// FindByHallAndDateBetween returns time-slot bookings of hall dated within [from, to].
	FindByHallAndDateBetween(ctx context.Context, hall, from, to string) ([]Booking, error)
	// FindByHallAndRangeOverlap returns day-range bookings of hall whose range intersects [from, to].
	FindByHallAndRangeOverlap(ctx context.Context, hall, from, to string) ([]Booking, error)
}
