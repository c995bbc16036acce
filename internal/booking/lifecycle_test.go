package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin     = Principal{Email: "admin@newhorizonindia.edu", Admin: true}
	requester = Principal{Email: "cse.hod@newhorizonindia.edu"}
	fixedNow  = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
)

func strPtr(s string) *string { return &s }

func TestPrepareCreate_Defaults(t *testing.T) {
	b := timeBooking()

	require.NoError(t, prepareCreate(&b, requester, fixedNow))
	assert.Equal(t, StatusPending, b.Status)
	assert.Empty(t, b.CreatedBy)
	assert.Equal(t, fixedNow, b.AppliedAt)
}

func TestPrepareCreate_KeepsClientAppliedAt(t *testing.T) {
	b := timeBooking()
	b.AppliedAt = fixedNow.Add(-time.Hour)

	require.NoError(t, prepareCreate(&b, requester, fixedNow))
	assert.Equal(t, fixedNow.Add(-time.Hour), b.AppliedAt)
}

func TestPrepareCreate_NonAdminStatusIgnored(t *testing.T) {
	b := timeBooking()
	b.Status = StatusApproved

	require.NoError(t, prepareCreate(&b, requester, fixedNow))
	assert.Equal(t, StatusPending, b.Status)
}

func TestPrepareCreate_AdminApproved(t *testing.T) {
	b := timeBooking()
	b.Status = "approved"

	require.NoError(t, prepareCreate(&b, admin, fixedNow))
	assert.Equal(t, StatusApproved, b.Status)
	assert.Equal(t, CreatedByAdmin, b.CreatedBy)
}

func TestPrepareCreate_AdminInvalidInitialStatus(t *testing.T) {
	for _, st := range []Status{StatusCancelled, StatusRejected, StatusCancelRequested, "WHATEVER"} {
		b := timeBooking()
		b.Status = st
		requireKind(t, prepareCreate(&b, admin, fixedNow), KindInvalidStatus)
	}
}

func TestPrepareCreate_CreatedBy(t *testing.T) {
	b := timeBooking()
	b.CreatedBy = "someone"
	requireKind(t, prepareCreate(&b, admin, fixedNow), KindInvalidCreatedBy)

	b = timeBooking()
	b.CreatedBy = "ADMIN"
	requireKind(t, prepareCreate(&b, requester, fixedNow), KindInvalidCreatedBy)

	b = timeBooking()
	b.CreatedBy = "admin"
	require.NoError(t, prepareCreate(&b, admin, fixedNow))
	assert.Equal(t, CreatedByAdmin, b.CreatedBy)
	assert.Equal(t, StatusPending, b.Status)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCancelRequested, true},
		{StatusApproved, StatusCancelRequested, true},
		{StatusApproved, StatusCancelled, true},
		{StatusApproved, StatusPending, false},
		{StatusApproved, StatusRejected, false},
		{StatusCancelRequested, StatusCancelled, true},
		{StatusCancelRequested, StatusApproved, true},
		{StatusCancelRequested, StatusPending, true},
		{StatusCancelRequested, StatusRejected, false},
		{StatusCancelled, StatusPending, false},
		{StatusRejected, StatusApproved, false},
		{StatusCancelled, StatusCancelled, true},
		{"ON_HOLD", StatusApproved, true},
		{StatusPending, "ON_HOLD", true},
		{"pending", "approved", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestApplyPatch_StatusChanges(t *testing.T) {
	t.Run("admin approves", func(t *testing.T) {
		b := timeBooking()
		b.Status = StatusPending
		require.NoError(t, applyPatch(&b, &Patch{Status: strPtr("approved")}, admin))
		assert.Equal(t, StatusApproved, b.Status)
	})

	t.Run("requester cannot change status", func(t *testing.T) {
		b := timeBooking()
		b.Status = StatusPending
		err := applyPatch(&b, &Patch{Status: strPtr("APPROVED")}, requester)
		assert.True(t, errors.Is(err, ErrForbidden))
	})

	t.Run("same status is a no-op for anyone", func(t *testing.T) {
		b := timeBooking()
		b.Status = StatusPending
		require.NoError(t, applyPatch(&b, &Patch{Status: strPtr("PENDING"), Remarks: strPtr("moved")}, requester))
		assert.Equal(t, "moved", b.Remarks)
	})

	t.Run("terminal is final", func(t *testing.T) {
		b := timeBooking()
		b.Status = StatusCancelled
		requireKind(t, applyPatch(&b, &Patch{Status: strPtr("PENDING")}, admin), KindInvalidTransition)
	})

	t.Run("createdBy only ADMIN by admin", func(t *testing.T) {
		b := timeBooking()
		requireKind(t, applyPatch(&b, &Patch{CreatedBy: strPtr("bob")}, admin), KindInvalidCreatedBy)
		requireKind(t, applyPatch(&b, &Patch{CreatedBy: strPtr("ADMIN")}, requester), KindInvalidCreatedBy)
	})
}

func TestApplyPatch_ShapeSwitch(t *testing.T) {
	t.Run("time slot to day range", func(t *testing.T) {
		b := timeBooking()
		require.NoError(t, applyPatch(&b, &Patch{StartDate: strPtr("2025-03-10"), EndDate: strPtr("2025-03-11")}, requester))

		assert.Empty(t, b.Date)
		assert.Empty(t, b.StartTime)
		assert.Empty(t, b.EndTime)
		assert.Equal(t, "2025-03-10", b.StartDate)
		assert.True(t, b.hasDayRange())
	})

	t.Run("day range to time slot", func(t *testing.T) {
		b := rangeBooking()
		b.DaySlots = DaySlots{"2025-03-11": nil}
		require.NoError(t, applyPatch(&b, &Patch{Date: strPtr("2025-03-10"), StartTime: strPtr("10:00"), EndTime: strPtr("11:00")}, requester))

		assert.Empty(t, b.StartDate)
		assert.Empty(t, b.EndDate)
		assert.Nil(t, b.DaySlots)
		assert.True(t, b.hasTimeSlot())
	})

	t.Run("mixed patch keeps both", func(t *testing.T) {
		b := timeBooking()
		require.NoError(t, applyPatch(&b, &Patch{StartTime: strPtr("12:00"), EndDate: strPtr("2025-03-12")}, requester))

		assert.Equal(t, "2025-03-10", b.Date)
		assert.Equal(t, "2025-03-12", b.EndDate)
	})

	t.Run("plain field edit leaves shape alone", func(t *testing.T) {
		b := timeBooking()
		require.NoError(t, applyPatch(&b, &Patch{BookingName: strPtr("Workshop"), HallName: strPtr("Hall B")}, requester))

		assert.Equal(t, "Workshop", b.BookingName)
		assert.Equal(t, "Hall B", b.HallName)
		assert.True(t, b.hasTimeSlot())
	})
}

func TestApplyCancelRequest(t *testing.T) {
	t.Run("appends remarks", func(t *testing.T) {
		b := timeBooking()
		b.Status = StatusApproved
		b.Remarks = "approved by office"

		require.NoError(t, applyCancelRequest(&b, "event postponed", "please cancel"))
		assert.Equal(t, StatusCancelRequested, b.Status)
		assert.Equal(t, "approved by office | please cancel", b.Remarks)
		assert.Equal(t, "event postponed", b.CancellationReason)
	})

	t.Run("first remark has no separator", func(t *testing.T) {
		b := timeBooking()
		b.Status = StatusPending

		require.NoError(t, applyCancelRequest(&b, "", "no longer needed"))
		assert.Equal(t, "no longer needed", b.Remarks)
		assert.Empty(t, b.CancellationReason)
	})

	t.Run("blank inputs keep history", func(t *testing.T) {
		b := timeBooking()
		b.Status = StatusCancelRequested
		b.Remarks = "r1"
		b.CancellationReason = "old"

		require.NoError(t, applyCancelRequest(&b, "  ", ""))
		assert.Equal(t, "r1", b.Remarks)
		assert.Equal(t, "old", b.CancellationReason)
	})

	t.Run("terminal booking refused", func(t *testing.T) {
		b := timeBooking()
		b.Status = StatusRejected
		requireKind(t, applyCancelRequest(&b, "x", "y"), KindInvalidTransition)
	})
}
