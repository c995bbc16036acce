package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct{ mock.Mock }

func (m *MockRepository) Save(ctx context.Context, b *Booking) (*Booking, error) {
	args := m.Called(ctx, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id string) (*Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) DeleteByID(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) list(args mock.Arguments) ([]Booking, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *MockRepository) FindAll(ctx context.Context) ([]Booking, error) {
	return m.list(m.Called(ctx))
}

func (m *MockRepository) FindByHallAndDate(ctx context.Context, hall, date string) ([]Booking, error) {
	return m.list(m.Called(ctx, hall, date))
}

func (m *MockRepository) FindByDate(ctx context.Context, date string) ([]Booking, error) {
	return m.list(m.Called(ctx, date))
}

func (m *MockRepository) FindByDepartmentAndEmail(ctx context.Context, department, email string) ([]Booking, error) {
	return m.list(m.Called(ctx, department, email))
}

func (m *MockRepository) FindByStatus(ctx context.Context, status Status) ([]Booking, error) {
	return m.list(m.Called(ctx, status))
}

// MockRangeRepository adds the range capability on top of MockRepository.
type MockRangeRepository struct{ MockRepository }

func (m *MockRangeRepository) FindByHallAndDateBetween(ctx context.Context, hall, from, to string) ([]Booking, error) {
	return m.list(m.Called(ctx, hall, from, to))
}

func (m *MockRangeRepository) FindByHallAndRangeOverlap(ctx context.Context, hall, from, to string) ([]Booking, error) {
	return m.list(m.Called(ctx, hall, from, to))
}

func newTestService(repo Repository) *service {
	s := NewService(repo, NewValidator(testDomain), NewKeyedLocker()).(*service)
	s.now = func() time.Time { return fixedNow }
	return s
}

func create(t *testing.T, s Service, b Booking) *Booking {
	t.Helper()
	created, err := s.CreateBooking(context.Background(), CreateParams{Principal: requester, Booking: b})
	require.NoError(t, err)
	return created
}

func withSlot(hall, date, start, end string) Booking {
	b := timeBooking()
	b.HallName, b.Date, b.StartTime, b.EndTime = hall, date, start, end
	return b
}

func withRange(hall, from, to string, slots DaySlots) Booking {
	b := rangeBooking()
	b.HallName, b.StartDate, b.EndDate, b.DaySlots = hall, from, to, slots
	return b
}

func requireConflict(t *testing.T, err error) *ConflictError {
	t.Helper()
	var cerr *ConflictError
	require.True(t, errors.As(err, &cerr), "expected *ConflictError, got %v", err)
	return cerr
}

func TestCreateBooking_OverlapRejected(t *testing.T) {
	s := newTestService(NewMemoryRepository())
	ctx := context.Background()

	first := create(t, s, withSlot("H1", "2025-03-10", "10:00", "11:00"))
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, StatusPending, first.Status)
	assert.Equal(t, fixedNow, first.AppliedAt)

	_, err := s.CreateBooking(ctx, CreateParams{Principal: requester, Booking: withSlot("H1", "2025-03-10", "10:30", "12:00")})
	cerr := requireConflict(t, err)
	assert.Equal(t, "10:00-11:00", cerr.Interval)
	assert.Equal(t, first.ID, cerr.BookingID)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateBooking_FullDayBlock(t *testing.T) {
	s := newTestService(NewMemoryRepository())

	create(t, s, withRange("H1", "2025-04-01", "2025-04-03", nil))

	_, err := s.CreateBooking(context.Background(), CreateParams{Principal: requester, Booking: withSlot("H1", "2025-04-02", "09:00", "10:00")})
	cerr := requireConflict(t, err)
	assert.Equal(t, fullDayLabel, cerr.Interval)
}

func TestCreateBooking_UnmentionedDayAccepted(t *testing.T) {
	s := newTestService(NewMemoryRepository())

	create(t, s, withRange("H1", "2025-04-01", "2025-04-05", DaySlots{"2025-04-01": {StartTime: "09:00", EndTime: "10:00"}}))
	create(t, s, withSlot("H1", "2025-04-03", "09:00", "10:00"))
}

func TestCreateBooking_MixedShapesRejected(t *testing.T) {
	s := newTestService(NewMemoryRepository())
	ctx := context.Background()

	stray := withSlot("H1", "2025-03-10", "10:00", "11:00")
	stray.StartDate = "2025-03-20"
	_, err := s.CreateBooking(ctx, CreateParams{Principal: requester, Booking: stray})
	requireKind(t, err, KindMalformedPayload)

	straySlot := withRange("H1", "2025-04-01", "2025-04-03", nil)
	straySlot.Date = "2025-05-20"
	_, err = s.CreateBooking(ctx, CreateParams{Principal: requester, Booking: straySlot})
	requireKind(t, err, KindMalformedPayload)

	create(t, s, withSlot("H1", "2025-03-20", "15:00", "16:00"))
	create(t, s, withSlot("H1", "2025-05-20", "08:00", "09:00"))
}

func TestCreateBooking_LockLeaseRunsOut(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	locker := NewRedisLocker(db, 50*time.Millisecond)
	locker.token = func() string { return "tok-1" }
	rmock.ExpectSetNX("hall-lock:h1", "tok-1", 50*time.Millisecond).SetVal(true)
	rmock.ExpectEval(releaseScript, []string{"hall-lock:h1"}, "tok-1").SetVal(int64(1))

	repo := new(MockRepository)
	repo.On("FindAll", mock.Anything).
		Run(func(mock.Arguments) { time.Sleep(100 * time.Millisecond) }).
		Return([]Booking{}, nil)

	s := NewService(repo, NewValidator(testDomain), locker)
	_, err := s.CreateBooking(context.Background(), CreateParams{
		Principal: requester,
		Booking:   withSlot("H1", "2025-03-10", "10:00", "11:00"),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLockExpired))
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestCreateBooking_ValidationFirst(t *testing.T) {
	repo := new(MockRepository)
	s := newTestService(repo)

	b := withSlot("H1", "2025-03-10", "11:00", "10:00")
	_, err := s.CreateBooking(context.Background(), CreateParams{Principal: requester, Booking: b})

	requireKind(t, err, KindBadTimeRange)
	repo.AssertNotCalled(t, "FindAll", mock.Anything)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateBooking_IgnoresClientID(t *testing.T) {
	s := newTestService(NewMemoryRepository())

	b := withSlot("H1", "2025-03-10", "10:00", "11:00")
	b.ID = "chosen-by-client"
	created := create(t, s, b)

	assert.NotEqual(t, "chosen-by-client", created.ID)
}

func TestCreateBooking_TagNeverConflicts(t *testing.T) {
	s := newTestService(NewMemoryRepository())

	tag := timeBooking()
	tag.Date, tag.StartTime, tag.EndTime = "", "", ""
	tag.Slot = "Morning"

	create(t, s, tag)
	create(t, s, tag)
}

func TestCreateBooking_CancelledReleasesSlot(t *testing.T) {
	s := newTestService(NewMemoryRepository())
	ctx := context.Background()

	first := create(t, s, withSlot("H1", "2025-03-10", "10:00", "11:00"))

	_, err := s.UpdateBooking(ctx, UpdateParams{Principal: admin, ID: first.ID, Patch: Patch{Status: strPtr("CANCELLED")}})
	require.NoError(t, err)

	create(t, s, withSlot("H1", "2025-03-10", "10:00", "11:00"))
}

func TestCreateBooking_StoreFailure(t *testing.T) {
	repo := new(MockRepository)
	s := newTestService(repo)

	repo.On("FindAll", mock.Anything).Return(nil, errors.New("db down"))

	_, err := s.CreateBooking(context.Background(), CreateParams{Principal: requester, Booking: withSlot("H1", "2025-03-10", "10:00", "11:00")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateBooking_SaveFailure(t *testing.T) {
	repo := new(MockRepository)
	s := newTestService(repo)

	repo.On("FindAll", mock.Anything).Return([]Booking{}, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil, errors.New("disk full"))

	_, err := s.CreateBooking(context.Background(), CreateParams{Principal: requester, Booking: withSlot("H1", "2025-03-10", "10:00", "11:00")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestCreateBooking_UsesRangeQueries(t *testing.T) {
	repo := new(MockRangeRepository)
	s := newTestService(repo)

	held := withSlot("H1", "2025-03-11", "10:00", "11:00")
	held.ID = "held"
	held.Status = StatusApproved

	repo.On("FindByHallAndDateBetween", mock.Anything, "H1", "2025-03-10", "2025-03-12").Return([]Booking{held}, nil)
	repo.On("FindByHallAndRangeOverlap", mock.Anything, "H1", "2025-03-10", "2025-03-12").Return([]Booking{}, nil)

	_, err := s.CreateBooking(context.Background(), CreateParams{Principal: requester, Booking: withRange("H1", "2025-03-10", "2025-03-12", nil)})
	cerr := requireConflict(t, err)
	assert.Equal(t, "held", cerr.BookingID)

	repo.AssertNotCalled(t, "FindAll", mock.Anything)
	repo.AssertExpectations(t)
}

func TestCreateBooking_ConcurrentSameSlot(t *testing.T) {
	s := newTestService(NewMemoryRepository())

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted, conflicts := 0, 0

	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateBooking(context.Background(), CreateParams{Principal: requester, Booking: withSlot("H1", "2025-03-10", "10:00", "11:00")})
			mu.Lock()
			defer mu.Unlock()
			var cerr *ConflictError
			switch {
			case err == nil:
				accepted++
			case errors.As(err, &cerr):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Equal(t, 29, conflicts)
}

func TestUpdateBooking_SelfExclusionAndConflict(t *testing.T) {
	s := newTestService(NewMemoryRepository())
	ctx := context.Background()

	x := create(t, s, withSlot("H1", "2025-03-10", "10:00", "11:00"))
	create(t, s, withSlot("H1", "2025-03-10", "11:30", "12:30"))

	res, err := s.UpdateBooking(ctx, UpdateParams{Principal: requester, ID: x.ID, Patch: Patch{StartTime: strPtr("10:00"), EndTime: strPtr("11:00")}})
	require.NoError(t, err)
	assert.False(t, res.StatusChanged())

	_, err = s.UpdateBooking(ctx, UpdateParams{Principal: requester, ID: x.ID, Patch: Patch{StartTime: strPtr("11:00"), EndTime: strPtr("12:00")}})
	requireConflict(t, err)

	stored, err := s.GetByID(ctx, x.ID)
	require.NoError(t, err)
	assert.Equal(t, "10:00", stored.StartTime)

	res, err = s.UpdateBooking(ctx, UpdateParams{Principal: requester, ID: x.ID, Patch: Patch{StartTime: strPtr("08:00"), EndTime: strPtr("09:00")}})
	require.NoError(t, err)
	assert.Equal(t, "08:00", res.Booking.StartTime)
}

func TestUpdateBooking_StatusTransitions(t *testing.T) {
	s := newTestService(NewMemoryRepository())
	ctx := context.Background()

	b := create(t, s, withSlot("H1", "2025-03-10", "10:00", "11:00"))

	_, err := s.UpdateBooking(ctx, UpdateParams{Principal: requester, ID: b.ID, Patch: Patch{Status: strPtr("APPROVED")}})
	assert.True(t, errors.Is(err, ErrForbidden))

	res, err := s.UpdateBooking(ctx, UpdateParams{Principal: admin, ID: b.ID, Patch: Patch{Status: strPtr("approved")}})
	require.NoError(t, err)
	assert.True(t, res.StatusChanged())
	assert.Equal(t, StatusPending, res.PreviousStatus)
	assert.Equal(t, StatusApproved, res.Booking.Status)

	_, err = s.UpdateBooking(ctx, UpdateParams{Principal: admin, ID: b.ID, Patch: Patch{Status: strPtr("REJECTED")}})
	requireKind(t, err, KindInvalidTransition)
}

func TestUpdateBooking_RevalidatesMergedRecord(t *testing.T) {
	s := newTestService(NewMemoryRepository())

	b := create(t, s, withSlot("H1", "2025-03-10", "10:00", "11:00"))

	_, err := s.UpdateBooking(context.Background(), UpdateParams{Principal: requester, ID: b.ID, Patch: Patch{EndTime: strPtr("09:00")}})
	requireKind(t, err, KindBadTimeRange)
}

func TestUpdateBooking_MoveToAnotherHall(t *testing.T) {
	s := newTestService(NewMemoryRepository())
	ctx := context.Background()

	create(t, s, withSlot("H2", "2025-03-10", "10:00", "11:00"))
	b := create(t, s, withSlot("H1", "2025-03-10", "10:00", "11:00"))

	_, err := s.UpdateBooking(ctx, UpdateParams{Principal: requester, ID: b.ID, Patch: Patch{HallName: strPtr("h2")}})
	requireConflict(t, err)

	res, err := s.UpdateBooking(ctx, UpdateParams{Principal: requester, ID: b.ID, Patch: Patch{HallName: strPtr("H3")}})
	require.NoError(t, err)
	assert.Equal(t, "H3", res.Booking.HallName)
}

func TestUpdateBooking_ShapeSwitchChecked(t *testing.T) {
	s := newTestService(NewMemoryRepository())

	create(t, s, withSlot("H1", "2025-04-02", "09:00", "10:00"))
	b := create(t, s, withSlot("H1", "2025-04-10", "09:00", "10:00"))

	_, err := s.UpdateBooking(context.Background(), UpdateParams{Principal: requester, ID: b.ID, Patch: Patch{
		StartDate: strPtr("2025-04-01"), EndDate: strPtr("2025-04-03"),
	}})
	requireConflict(t, err)
}

func TestUpdateBooking_NotFound(t *testing.T) {
	s := newTestService(NewMemoryRepository())

	_, err := s.UpdateBooking(context.Background(), UpdateParams{Principal: admin, ID: "missing"})
	assert.True(t, errors.Is(err, ErrBookingNotFound))
}

func TestUpdateBooking_HallMovedWhileWaiting(t *testing.T) {
	repo := new(MockRepository)
	s := newTestService(repo)

	repo.On("FindByID", mock.Anything, "x").Return(&Booking{ID: "x", HallName: "H1"}, nil).Once()
	repo.On("FindByID", mock.Anything, "x").Return(&Booking{ID: "x", HallName: "H2"}, nil).Once()
	repo.On("FindByID", mock.Anything, "x").Return(&Booking{ID: "x", HallName: "H3"}, nil).Once()
	repo.On("FindByID", mock.Anything, "x").Return(&Booking{ID: "x", HallName: "H4"}, nil).Once()
	repo.On("FindByID", mock.Anything, "x").Return(&Booking{ID: "x", HallName: "H5"}, nil).Once()
	repo.On("FindByID", mock.Anything, "x").Return(&Booking{ID: "x", HallName: "H6"}, nil).Once()

	_, err := s.UpdateBooking(context.Background(), UpdateParams{Principal: admin, ID: "x", Patch: Patch{Remarks: strPtr("r")}})
	assert.True(t, errors.Is(err, ErrHallChanged))
}

func TestRequestCancel(t *testing.T) {
	s := newTestService(NewMemoryRepository())
	ctx := context.Background()

	b := withSlot("H1", "2025-03-10", "10:00", "11:00")
	b.Remarks = "initial"
	created := create(t, s, b)

	updated, err := s.RequestCancel(ctx, CancelRequestParams{ID: created.ID, CancellationReason: "postponed", Remarks: "sorry"})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelRequested, updated.Status)
	assert.Equal(t, "initial | sorry", updated.Remarks)
	assert.Equal(t, "postponed", updated.CancellationReason)

	_, err = s.CreateBooking(ctx, CreateParams{Principal: requester, Booking: withSlot("H1", "2025-03-10", "10:30", "11:30")})
	requireConflict(t, err)

	_, err = s.RequestCancel(ctx, CancelRequestParams{ID: "missing"})
	assert.True(t, errors.Is(err, ErrBookingNotFound))
}

func TestDeleteBooking(t *testing.T) {
	s := newTestService(NewMemoryRepository())
	ctx := context.Background()

	b := create(t, s, withSlot("H1", "2025-03-10", "10:00", "11:00"))

	removed, err := s.DeleteBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, removed.ID)

	_, err = s.GetByID(ctx, b.ID)
	assert.True(t, errors.Is(err, ErrBookingNotFound))

	_, err = s.DeleteBooking(ctx, b.ID)
	assert.True(t, errors.Is(err, ErrBookingNotFound))
}

func TestReadPaths(t *testing.T) {
	s := newTestService(NewMemoryRepository())
	ctx := context.Background()

	a := withSlot("Hall A", "2025-03-10", "10:00", "11:00")
	a.Slot = "Morning session"
	create(t, s, a)

	b := withSlot("Hall B", "2025-03-10", "10:00", "11:00")
	b.Department = "ECE"
	b.Email = "ece@newhorizonindia.edu"
	create(t, s, b)

	create(t, s, withRange("Hall A", "2025-03-09", "2025-03-11", DaySlots{"2025-03-09": nil}))

	byDate, err := s.ListByDate(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Len(t, byDate, 2)

	byHall, err := s.ListByHallAndDate(ctx, "hall a", "2025-03-10")
	require.NoError(t, err)
	assert.Len(t, byHall, 1)

	history, err := s.History(ctx, "ECE", "ece@newhorizonindia.edu")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	pending, err := s.ListByStatus(ctx, "pending")
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	found, err := s.Search(ctx, SearchFilter{Hall: "HALL A", Slot: "morning"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Hall A", found[0].HallName)

	found, err = s.Search(ctx, SearchFilter{Department: "cse"})
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestDaySchedule(t *testing.T) {
	s := newTestService(NewMemoryRepository())
	ctx := context.Background()

	create(t, s, withSlot("Hall A", "2025-03-10", "14:00", "15:00"))
	create(t, s, withRange("Hall A", "2025-03-09", "2025-03-11", DaySlots{"2025-03-09": nil}))
	create(t, s, withSlot("Hall B", "2025-03-10", "09:00", "10:00"))

	day, err := s.DaySchedule(ctx, "2025-03-10", "")
	require.NoError(t, err)
	assert.Len(t, day, 3)

	day, err = s.DaySchedule(ctx, "2025-03-10", "hall a")
	require.NoError(t, err)
	assert.Len(t, day, 2)

	_, err = s.DaySchedule(ctx, "10-03-2025", "")
	requireKind(t, err, KindBadDateFormat)
}

func TestMonthCalendar(t *testing.T) {
	s := newTestService(NewMemoryRepository())
	ctx := context.Background()

	create(t, s, withSlot("Hall A", "2024-02-10", "14:00", "15:00"))
	create(t, s, withRange("Hall A", "2024-02-28", "2024-03-02", nil))
	cancelled := create(t, s, withSlot("Hall A", "2024-02-11", "14:00", "15:00"))
	_, err := s.UpdateBooking(ctx, UpdateParams{Principal: admin, ID: cancelled.ID, Patch: Patch{Status: strPtr("CANCELLED")}})
	require.NoError(t, err)

	days, err := s.MonthCalendar(ctx, "Hall A", 2024, 2)
	require.NoError(t, err)
	require.Len(t, days, 29)

	byDate := make(map[string]CalendarDay, len(days))
	for _, d := range days {
		byDate[d.Date] = d
	}
	assert.Equal(t, 1, byDate["2024-02-10"].Count)
	assert.False(t, byDate["2024-02-10"].Free)
	assert.True(t, byDate["2024-02-11"].Free)
	assert.Equal(t, 1, byDate["2024-02-29"].Count)
	assert.True(t, byDate["2024-02-01"].Free)

	other, err := s.MonthCalendar(ctx, "Hall B", 2024, 2)
	require.NoError(t, err)
	for _, d := range other {
		assert.True(t, d.Free, d.Date)
	}

	_, err = s.MonthCalendar(ctx, "", 2024, 13)
	requireKind(t, err, KindBadDateFormat)
}

func TestListAll_StoreFailure(t *testing.T) {
	repo := new(MockRepository)
	s := newTestService(repo)

	repo.On("FindAll", mock.Anything).Return(nil, fmt.Errorf("timeout"))

	_, err := s.ListAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list bookings")
}
