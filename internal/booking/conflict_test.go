package booking

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slotAt(id, hall, date, start, end string) Booking {
	return Booking{ID: id, HallName: hall, Date: date, StartTime: start, EndTime: end, Status: StatusPending}
}

func TestFindConflict_OverlappingTimeSlots(t *testing.T) {
	existing := []Booking{slotAt("b1", "H1", "2025-03-10", "10:00", "11:00")}
	candidate := slotAt("", "H1", "2025-03-10", "10:30", "12:00")

	conflict := FindConflict(&candidate, existing)
	require.NotNil(t, conflict)
	assert.Equal(t, "H1", conflict.Hall)
	assert.Equal(t, "2025-03-10", conflict.Date)
	assert.Equal(t, "10:00-11:00", conflict.Interval)
	assert.Equal(t, "b1", conflict.BookingID)
	assert.Contains(t, conflict.Error(), "10:00-11:00")
}

func TestFindConflict_AdjacentSlotsAccepted(t *testing.T) {
	existing := []Booking{slotAt("b1", "H1", "2025-03-10", "10:00", "11:00")}
	candidate := slotAt("", "H1", "2025-03-10", "11:00", "12:00")

	assert.Nil(t, FindConflict(&candidate, existing))
}

func TestFindConflict_FullDayRangeBlocks(t *testing.T) {
	existing := []Booking{{ID: "r1", HallName: "H1", StartDate: "2025-04-01", EndDate: "2025-04-03", Status: StatusApproved}}
	candidate := slotAt("", "H1", "2025-04-02", "09:00", "10:00")

	conflict := FindConflict(&candidate, existing)
	require.NotNil(t, conflict)
	assert.Equal(t, "2025-04-02", conflict.Date)
	assert.Equal(t, fullDayLabel, conflict.Interval)
	assert.Contains(t, conflict.Error(), "full-day")

	daySlotCandidate := Booking{
		HallName: "H1", StartDate: "2025-04-03", EndDate: "2025-04-06",
		DaySlots: DaySlots{"2025-04-03": {StartTime: "18:00", EndTime: "19:00"}},
	}
	assert.NotNil(t, FindConflict(&daySlotCandidate, existing))
}

func TestFindConflict_UnmentionedDateIsFree(t *testing.T) {
	existing := []Booking{{
		ID: "r1", HallName: "H1", StartDate: "2025-04-01", EndDate: "2025-04-05",
		DaySlots: DaySlots{"2025-04-01": {StartTime: "09:00", EndTime: "10:00"}},
		Status:   StatusPending,
	}}
	candidate := slotAt("", "H1", "2025-04-03", "09:00", "10:00")

	assert.Nil(t, FindConflict(&candidate, existing))
}

func TestFindConflict_HallMatchingIsCaseInsensitive(t *testing.T) {
	existing := []Booking{slotAt("b1", "  seminar hall A ", "2025-03-10", "10:00", "11:00")}

	candidate := slotAt("", "Seminar Hall A", "2025-03-10", "10:00", "11:00")
	assert.NotNil(t, FindConflict(&candidate, existing))

	other := slotAt("", "Seminar Hall B", "2025-03-10", "10:00", "11:00")
	assert.Nil(t, FindConflict(&other, existing))
}

func TestFindConflict_SelfExclusion(t *testing.T) {
	existing := []Booking{slotAt("x", "H1", "2025-03-10", "10:00", "11:00")}
	same := slotAt("x", "H1", "2025-03-10", "10:00", "11:00")

	assert.Nil(t, FindConflict(&same, existing))
}

func TestFindConflict_TerminalStatuses(t *testing.T) {
	for _, st := range []Status{StatusCancelled, StatusRejected, "cancelled", " Rejected "} {
		existing := slotAt("b1", "H1", "2025-03-10", "10:00", "11:00")
		existing.Status = st
		candidate := slotAt("", "H1", "2025-03-10", "10:00", "11:00")

		assert.Nil(t, FindConflict(&candidate, []Booking{existing}), "status %q should release its slot", st)
	}

	live := []Booking{slotAt("b1", "H1", "2025-03-10", "10:00", "11:00")}
	rejected := slotAt("b2", "H1", "2025-03-10", "10:00", "11:00")
	rejected.Status = StatusRejected
	assert.Nil(t, FindConflict(&rejected, live))
}

func TestFindConflict_FreeTextStatusStillOccupies(t *testing.T) {
	existing := slotAt("b1", "H1", "2025-03-10", "10:00", "11:00")
	existing.Status = "ON_HOLD"
	candidate := slotAt("", "H1", "2025-03-10", "10:30", "11:30")

	assert.NotNil(t, FindConflict(&candidate, []Booking{existing}))
}

func TestFindConflict_CancelRequestedStillOccupies(t *testing.T) {
	existing := slotAt("b1", "H1", "2025-03-10", "10:00", "11:00")
	existing.Status = StatusCancelRequested
	candidate := slotAt("", "H1", "2025-03-10", "10:30", "11:30")

	assert.NotNil(t, FindConflict(&candidate, []Booking{existing}))
}

func TestFindConflict_TagBookings(t *testing.T) {
	tagA := Booking{ID: "t1", HallName: "H1", Slot: "Morning"}
	tagB := Booking{ID: "t2", HallName: "H1", Slot: "Morning"}
	timed := slotAt("b1", "H1", "2025-03-10", "10:00", "11:00")

	assert.Nil(t, FindConflict(&tagB, []Booking{tagA}))
	assert.Nil(t, FindConflict(&tagB, []Booking{timed}))

	candidate := slotAt("", "H1", "2025-03-10", "10:00", "11:00")
	assert.Nil(t, FindConflict(&candidate, []Booking{tagA}))
}

func TestFindConflict_MissingBoundBlocksWholeDay(t *testing.T) {
	legacy := Booking{ID: "old", HallName: "H1", Date: "2025-03-10", StartTime: "10:00", Status: StatusApproved}
	candidate := slotAt("", "H1", "2025-03-10", "17:00", "18:00")

	conflict := FindConflict(&candidate, []Booking{legacy})
	require.NotNil(t, conflict)
	assert.Equal(t, fullDayLabel, conflict.Interval)
}

func randomBooking(r *rand.Rand, id string) Booking {
	day := fmt.Sprintf("2025-05-%02d", 1+r.Intn(4))
	switch r.Intn(3) {
	case 0:
		start := r.Intn(20)
		length := 1 + r.Intn(3)
		return Booking{
			ID: id, HallName: "H1", Date: day, Status: StatusPending,
			StartTime: fmt.Sprintf("%02d:00", start), EndTime: fmt.Sprintf("%02d:00", start+length),
		}
	case 1:
		end := fmt.Sprintf("2025-05-%02d", 4+r.Intn(2))
		return Booking{ID: id, HallName: "H1", StartDate: day, EndDate: end, Status: StatusPending}
	default:
		start := r.Intn(20)
		return Booking{
			ID: id, HallName: "H1", StartDate: "2025-05-01", EndDate: "2025-05-05", Status: StatusPending,
			DaySlots: DaySlots{day: {StartTime: fmt.Sprintf("%02d:00", start), EndTime: fmt.Sprintf("%02d:30", start)}},
		}
	}
}

func TestFindConflict_Symmetry(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		a := randomBooking(r, "a")
		b := randomBooking(r, "b")

		ab := FindConflict(&a, []Booking{b}) != nil
		ba := FindConflict(&b, []Booking{a}) != nil
		assert.Equal(t, ab, ba, "a=%+v b=%+v", a, b)
	}
}

func TestFindConflict_NoDoubleBooking(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	var accepted []Booking

	for i := 0; i < 300; i++ {
		c := randomBooking(r, fmt.Sprintf("c%d", i))
		if FindConflict(&c, accepted) == nil {
			accepted = append(accepted, c)
		}
	}

	for i := range accepted {
		for j := range accepted {
			if i == j {
				continue
			}
			for _, x := range Cells(&accepted[i]) {
				for _, y := range Cells(&accepted[j]) {
					assert.False(t, x.Overlaps(y), "%s and %s overlap on %s", accepted[i].ID, accepted[j].ID, x.Date)
				}
			}
		}
	}
}

func TestWindow(t *testing.T) {
	_, _, ok := window(nil)
	assert.False(t, ok)

	b := Booking{StartDate: "2025-03-10", EndDate: "2025-03-12", DaySlots: DaySlots{"2025-03-12": nil, "2025-03-11": nil}}
	from, to, ok := window(Cells(&b))
	require.True(t, ok)
	assert.Equal(t, "2025-03-11", from)
	assert.Equal(t, "2025-03-12", to)
}
