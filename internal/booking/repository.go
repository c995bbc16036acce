package booking

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const bookingColumns = `id, hall_name, date, start_time, end_time, start_date, end_date, day_slots,
	slot, slot_title, booking_name, email, department, phone,
	status, created_by, remarks, cancellation_reason, applied_at`

type repository struct {
	db *sqlx.DB
}

// NewRepository returns the postgres-backed booking store. It also satisfies
// RangeRepository.
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Save(ctx context.Context, b *Booking) (*Booking, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO UPDATE SET
			hall_name = EXCLUDED.hall_name,
			date = EXCLUDED.date,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			day_slots = EXCLUDED.day_slots,
			slot = EXCLUDED.slot,
			slot_title = EXCLUDED.slot_title,
			booking_name = EXCLUDED.booking_name,
			email = EXCLUDED.email,
			department = EXCLUDED.department,
			phone = EXCLUDED.phone,
			status = EXCLUDED.status,
			created_by = EXCLUDED.created_by,
			remarks = EXCLUDED.remarks,
			cancellation_reason = EXCLUDED.cancellation_reason,
			applied_at = EXCLUDED.applied_at
	`

	_, err := r.db.ExecContext(ctx, query,
		b.ID, b.HallName, b.Date, b.StartTime, b.EndTime, b.StartDate, b.EndDate, b.DaySlots,
		b.Slot, b.SlotTitle, b.BookingName, b.Email, b.Department, b.Phone,
		string(b.Status), b.CreatedBy, b.Remarks, b.CancellationReason, b.AppliedAt,
	)
	if err != nil {
		return nil, err
	}

	saved := b.clone()
	return &saved, nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var b Booking
	err := r.db.GetContext(ctx, &b, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}

	return &b, nil
}

func (r *repository) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

func (r *repository) selectBookings(ctx context.Context, query string, args ...interface{}) ([]Booking, error) {
	bookings := []Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) FindAll(ctx context.Context) ([]Booking, error) {
	return r.selectBookings(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY applied_at DESC`)
}

func (r *repository) FindByHallAndDate(ctx context.Context, hall, date string) ([]Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE LOWER(TRIM(hall_name)) = $1 AND date = $2
		ORDER BY start_time
	`
	return r.selectBookings(ctx, query, NormalizeHall(hall), date)
}

func (r *repository) FindByDate(ctx context.Context, date string) ([]Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE date = $1
		ORDER BY start_time
	`
	return r.selectBookings(ctx, query, date)
}

func (r *repository) FindByDepartmentAndEmail(ctx context.Context, department, email string) ([]Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE department = $1 AND email = $2
		ORDER BY applied_at DESC
	`
	return r.selectBookings(ctx, query, department, email)
}

func (r *repository) FindByStatus(ctx context.Context, status Status) ([]Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE UPPER(TRIM(status)) = $1
		ORDER BY applied_at DESC
	`
	return r.selectBookings(ctx, query, strings.ToUpper(strings.TrimSpace(string(status))))
}

func (r *repository) FindByHallAndDateBetween(ctx context.Context, hall, from, to string) ([]Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE LOWER(TRIM(hall_name)) = $1 AND date <> '' AND date BETWEEN $2 AND $3
	`
	return r.selectBookings(ctx, query, NormalizeHall(hall), from, to)
}

// FindByHallAndRangeOverlap keeps rows missing one end of the range, since
// those still block the end they do carry.
func (r *repository) FindByHallAndRangeOverlap(ctx context.Context, hall, from, to string) ([]Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE LOWER(TRIM(hall_name)) = $1
		  AND (start_date <> '' OR end_date <> '')
		  AND (start_date = '' OR start_date <= $3)
		  AND (end_date = '' OR end_date >= $2)
	`
	return r.selectBookings(ctx, query, NormalizeHall(hall), from, to)
}

func (r *repository) StatsByHall(ctx context.Context, from, to time.Time) ([]HallStats, error) {
	query := `
		SELECT
			MIN(TRIM(hall_name)) AS hall,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE UPPER(TRIM(status)) = 'PENDING') AS pending,
			COUNT(*) FILTER (WHERE UPPER(TRIM(status)) = 'APPROVED') AS approved,
			COUNT(*) FILTER (WHERE UPPER(TRIM(status)) = 'REJECTED') AS rejected,
			COUNT(*) FILTER (WHERE UPPER(TRIM(status)) = 'CANCEL_REQUESTED') AS cancel_requested,
			COUNT(*) FILTER (WHERE UPPER(TRIM(status)) = 'CANCELLED') AS cancelled
		FROM bookings
		WHERE applied_at >= $1 AND applied_at < $2
		GROUP BY LOWER(TRIM(hall_name))
		ORDER BY LOWER(TRIM(hall_name))
	`

	stats := []HallStats{}
	if err := r.db.SelectContext(ctx, &stats, query, from, to); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *repository) StatsByDay(ctx context.Context, from, to time.Time) ([]DailyStats, error) {
	query := `
		SELECT
			TO_CHAR(applied_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
			COUNT(*) AS created,
			COUNT(*) FILTER (WHERE UPPER(TRIM(status)) = 'CANCELLED') AS cancelled
		FROM bookings
		WHERE applied_at >= $1 AND applied_at < $2
		GROUP BY day
		ORDER BY day
	`

	stats := []DailyStats{}
	if err := r.db.SelectContext(ctx, &stats, query, from, to); err != nil {
		return nil, err
	}
	return stats, nil
}
