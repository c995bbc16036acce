package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"hallslot/internal/logger"
	"hallslot/internal/metrics"
)

// maxRelockAttempts bounds how often an update chases a booking that another
// writer keeps moving between halls.
const maxRelockAttempts = 3

var ErrHallChanged = errors.New("booking moved to another hall while waiting for the lock")

type Service interface {
	CreateBooking(ctx context.Context, p CreateParams) (*Booking, error)
	UpdateBooking(ctx context.Context, p UpdateParams) (*UpdateResult, error)
	RequestCancel(ctx context.Context, p CancelRequestParams) (*Booking, error)
	DeleteBooking(ctx context.Context, id string) (*Booking, error)

	GetByID(ctx context.Context, id string) (*Booking, error)
	ListAll(ctx context.Context) ([]Booking, error)
	ListByDate(ctx context.Context, date string) ([]Booking, error)
	ListByHallAndDate(ctx context.Context, hall, date string) ([]Booking, error)
	History(ctx context.Context, department, email string) ([]Booking, error)
	ListByStatus(ctx context.Context, status string) ([]Booking, error)
	Search(ctx context.Context, f SearchFilter) ([]Booking, error)
	DaySchedule(ctx context.Context, date, hall string) ([]Booking, error)
	MonthCalendar(ctx context.Context, hall string, year, month int) ([]CalendarDay, error)
	Stats(ctx context.Context, from, to string) (*Stats, error)
}

// UpdateResult carries the stored booking and the status it had before the update.
type UpdateResult struct {
	Booking        *Booking
	PreviousStatus Status
}

func (r *UpdateResult) StatusChanged() bool {
	return r.Booking != nil && r.Booking.Status != r.PreviousStatus
}

type service struct {
	repo      Repository
	validator *Validator
	locker    HallLocker
	now       func() time.Time
}

func NewService(repo Repository, validator *Validator, locker HallLocker) Service {
	if locker == nil {
		locker = NewKeyedLocker()
	}
	return &service{
		repo:      repo,
		validator: validator,
		locker:    locker,
		now:       time.Now,
	}
}

func (s *service) validate(op string, b *Booking) error {
	err := s.validator.Validate(b)
	if err == nil {
		return nil
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		metrics.RecordValidationFailure(string(verr.Kind))
	}
	metrics.RecordBooking(op, "invalid")
	return err
}

func (s *service) storeErr(op string, err error) error {
	if errors.Is(err, ErrBookingNotFound) {
		return err
	}
	logger.WithError(err).Error("booking store failure", "op", op)
	return fmt.Errorf("%s: %w", op, err)
}

// candidates returns the bookings a conflict check for b has to look at.
// Stores with range queries are asked only for b's hall and date window.
func (s *service) candidates(ctx context.Context, b *Booking) ([]Booking, error) {
	if b.Status.Terminal() {
		return nil, nil
	}
	from, to, ok := window(Cells(b))
	if !ok {
		return nil, nil
	}

	rr, ok := s.repo.(RangeRepository)
	if !ok {
		return s.repo.FindAll(ctx)
	}

	dated, err := rr.FindByHallAndDateBetween(ctx, b.HallName, from, to)
	if err != nil {
		return nil, err
	}
	ranged, err := rr.FindByHallAndRangeOverlap(ctx, b.HallName, from, to)
	if err != nil {
		return nil, err
	}
	return append(dated, ranged...), nil
}

// checkAndSave runs the conflict check and persists b. The caller holds the
// hall lock and passes the context the lock handed out.
func (s *service) checkAndSave(ctx context.Context, op string, b *Booking) (*Booking, error) {
	existing, err := s.candidates(ctx, b)
	if err := heldErr(ctx); err != nil {
		metrics.RecordBooking(op, "error")
		return nil, err
	}
	if err != nil {
		return nil, s.storeErr("load bookings for conflict check", err)
	}

	if conflict := FindConflict(b, existing); conflict != nil {
		metrics.RecordConflict(NormalizeHall(b.HallName))
		metrics.RecordBooking(op, "conflict")
		logger.Info("booking rejected by conflict",
			"hall", conflict.Hall,
			"date", conflict.Date,
			"interval", conflict.Interval,
			"conflicting_id", conflict.BookingID,
		)
		return nil, conflict
	}

	saved, err := s.repo.Save(ctx, b)
	if err != nil {
		metrics.RecordBooking(op, "error")
		return nil, s.storeErr("save booking", err)
	}
	metrics.RecordBooking(op, "accepted")
	return saved, nil
}

func (s *service) CreateBooking(ctx context.Context, p CreateParams) (*Booking, error) {
	b := p.Booking.clone()
	b.ID = ""

	if err := s.validate("create", &b); err != nil {
		return nil, err
	}
	if err := prepareCreate(&b, p.Principal, s.now()); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			metrics.RecordValidationFailure(string(verr.Kind))
		}
		metrics.RecordBooking("create", "invalid")
		return nil, err
	}

	held, unlock, err := s.locker.Lock(ctx, b.HallName)
	if err != nil {
		return nil, err
	}
	defer unlock()

	saved, err := s.checkAndSave(held, "create", &b)
	if err != nil {
		return nil, err
	}

	logger.Info("booking created", "id", saved.ID, "hall", saved.HallName, "status", saved.Status)
	return saved, nil
}

// lockBooking loads booking id and locks the hall hallOf resolves it to. When
// a concurrent writer moved the booking before the lock was taken, the lock
// is released and the sequence starts over.
func (s *service) lockBooking(ctx context.Context, id string, hallOf func(*Booking) string) (*Booking, context.Context, func(), error) {
	for attempt := 0; attempt < maxRelockAttempts; attempt++ {
		current, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, nil, nil, s.storeErr("load booking", err)
		}

		hall := hallOf(current)
		held, unlock, err := s.locker.Lock(ctx, hall)
		if err != nil {
			return nil, nil, nil, err
		}

		fresh, err := s.repo.FindByID(held, id)
		if err != nil {
			unlock()
			return nil, nil, nil, s.storeErr("reload booking", err)
		}
		if SameHall(hallOf(fresh), hall) {
			return fresh, held, unlock, nil
		}
		unlock()
	}
	return nil, nil, nil, ErrHallChanged
}

// heldErr reports why work under a hall lock has to stop: the caller gave up
// or the lock's lease ran out.
func heldErr(ctx context.Context) error {
	cause := context.Cause(ctx)
	if cause == nil {
		return nil
	}
	if errors.Is(cause, ErrLockExpired) {
		logger.Warn("hall lock lease ran out before the write finished")
	}
	return cause
}

func (s *service) UpdateBooking(ctx context.Context, p UpdateParams) (*UpdateResult, error) {
	hallOf := func(b *Booking) string {
		if p.Patch.HallName != nil {
			return *p.Patch.HallName
		}
		return b.HallName
	}

	current, held, unlock, err := s.lockBooking(ctx, p.ID, hallOf)
	if err != nil {
		return nil, err
	}
	defer unlock()

	previous := current.Status
	updated := current.clone()
	if err := applyPatch(&updated, &p.Patch, p.Principal); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			metrics.RecordValidationFailure(string(verr.Kind))
		}
		metrics.RecordBooking("update", "invalid")
		return nil, err
	}
	if err := s.validate("update", &updated); err != nil {
		return nil, err
	}

	saved, err := s.checkAndSave(held, "update", &updated)
	if err != nil {
		return nil, err
	}

	result := &UpdateResult{Booking: saved, PreviousStatus: previous}
	if result.StatusChanged() {
		metrics.RecordStatusTransition(string(previous), string(saved.Status))
		logger.Info("booking status changed", "id", saved.ID, "from", previous, "to", saved.Status)
	}
	return result, nil
}

func (s *service) RequestCancel(ctx context.Context, p CancelRequestParams) (*Booking, error) {
	current, held, unlock, err := s.lockBooking(ctx, p.ID, func(b *Booking) string { return b.HallName })
	if err != nil {
		return nil, err
	}
	defer unlock()

	previous := current.Status
	if err := applyCancelRequest(current, p.CancellationReason, p.Remarks); err != nil {
		metrics.RecordValidationFailure(string(KindInvalidTransition))
		return nil, err
	}

	if err := heldErr(held); err != nil {
		return nil, err
	}
	saved, err := s.repo.Save(held, current)
	if err != nil {
		return nil, s.storeErr("save booking", err)
	}

	metrics.RecordCancelRequest()
	if previous != saved.Status {
		metrics.RecordStatusTransition(string(previous), string(saved.Status))
	}
	logger.Info("booking cancellation requested", "id", saved.ID, "hall", saved.HallName)
	return saved, nil
}

func (s *service) DeleteBooking(ctx context.Context, id string) (*Booking, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("load booking", err)
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return nil, s.storeErr("delete booking", err)
	}

	metrics.RecordBooking("delete", "accepted")
	logger.Info("booking deleted", "id", id, "hall", existing.HallName)
	return existing, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("load booking", err)
	}
	return b, nil
}

func (s *service) list(op string, bookings []Booking, err error) ([]Booking, error) {
	if err != nil {
		return nil, s.storeErr(op, err)
	}
	return bookings, nil
}

func (s *service) ListAll(ctx context.Context) ([]Booking, error) {
	bookings, err := s.repo.FindAll(ctx)
	return s.list("list bookings", bookings, err)
}

func (s *service) ListByDate(ctx context.Context, date string) ([]Booking, error) {
	bookings, err := s.repo.FindByDate(ctx, date)
	return s.list("list bookings by date", bookings, err)
}

func (s *service) ListByHallAndDate(ctx context.Context, hall, date string) ([]Booking, error) {
	bookings, err := s.repo.FindByHallAndDate(ctx, hall, date)
	return s.list("list bookings by hall and date", bookings, err)
}

func (s *service) History(ctx context.Context, department, email string) ([]Booking, error) {
	bookings, err := s.repo.FindByDepartmentAndEmail(ctx, department, email)
	return s.list("list booking history", bookings, err)
}

func (s *service) ListByStatus(ctx context.Context, status string) ([]Booking, error) {
	st, _ := ParseStatus(status)
	bookings, err := s.repo.FindByStatus(ctx, st)
	return s.list("list bookings by status", bookings, err)
}

func (s *service) Search(ctx context.Context, f SearchFilter) ([]Booking, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, s.storeErr("search bookings", err)
	}

	department := strings.TrimSpace(f.Department)
	hall := strings.TrimSpace(f.Hall)
	date := strings.TrimSpace(f.Date)
	slot := strings.ToLower(strings.TrimSpace(f.Slot))

	out := []Booking{}
	for _, b := range all {
		if department != "" && !strings.EqualFold(strings.TrimSpace(b.Department), department) {
			continue
		}
		if hall != "" && !SameHall(b.HallName, hall) {
			continue
		}
		if date != "" && b.Date != date {
			continue
		}
		if slot != "" && !strings.Contains(strings.ToLower(b.Slot), slot) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// DaySchedule returns every booking touching date, whatever its status.
func (s *service) DaySchedule(ctx context.Context, date, hall string) ([]Booking, error) {
	if _, err := parseDate(date); err != nil {
		return nil, invalid(KindBadDateFormat, "date", "date must be YYYY-MM-DD, got %q", date)
	}

	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, s.storeErr("load day schedule", err)
	}

	hall = strings.TrimSpace(hall)
	seen := make(map[string]struct{})
	out := []Booking{}
	for i := range all {
		b := &all[i]
		if hall != "" && !SameHall(b.HallName, hall) {
			continue
		}
		if !Touches(b, date) {
			continue
		}
		if _, dup := seen[b.ID]; dup {
			continue
		}
		seen[b.ID] = struct{}{}
		out = append(out, *b)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

// MonthCalendar counts, per day of the month, the live bookings touching it.
func (s *service) MonthCalendar(ctx context.Context, hall string, year, month int) ([]CalendarDay, error) {
	if month < 1 || month > 12 {
		return nil, invalid(KindBadDateFormat, "month", "month must be between 1 and 12, got %d", month)
	}
	if year < 1 || year > 9999 {
		return nil, invalid(KindBadDateFormat, "year", "year out of range: %d", year)
	}

	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, s.storeErr("load month calendar", err)
	}

	hall = strings.TrimSpace(hall)
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)

	var days []CalendarDay
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		date := d.Format(dateLayout)
		count := 0
		for i := range all {
			b := &all[i]
			if b.Status.Terminal() {
				continue
			}
			if hall != "" && !SameHall(b.HallName, hall) {
				continue
			}
			if Touches(b, date) {
				count++
			}
		}
		days = append(days, CalendarDay{Date: date, Free: count == 0, Count: count})
	}
	return days, nil
}
