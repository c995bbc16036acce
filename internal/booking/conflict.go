package booking

import "strings"

// NormalizeHall is the key under which halls are compared and locked.
func NormalizeHall(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SameHall compares hall names case-insensitively, ignoring surrounding space.
func SameHall(a, b string) bool {
	return NormalizeHall(a) == NormalizeHall(b)
}

// FindConflict checks candidate against existing bookings and returns the
// first overlap found, or nil when the candidate may be accepted. Bookings on
// other halls, the candidate itself (matched by id) and terminal bookings are
// ignored, so the same slice can be passed on create and on update.
func FindConflict(candidate *Booking, existing []Booking) *ConflictError {
	if candidate.Status.Terminal() {
		return nil
	}

	cells := Cells(candidate)
	if len(cells) == 0 {
		return nil
	}

	byDate := make(map[string][]Cell, len(cells))
	for _, c := range cells {
		byDate[c.Date] = append(byDate[c.Date], c)
	}

	for i := range existing {
		other := &existing[i]
		if !SameHall(other.HallName, candidate.HallName) {
			continue
		}
		if candidate.ID != "" && other.ID == candidate.ID {
			continue
		}
		if other.Status.Terminal() {
			continue
		}

		for _, held := range Cells(other) {
			for _, wanted := range byDate[held.Date] {
				if wanted.Overlaps(held) {
					return &ConflictError{
						Hall:      other.HallName,
						Date:      held.Date,
						Interval:  held.describe(),
						BookingID: other.ID,
					}
				}
			}
		}
	}
	return nil
}

// window returns the inclusive date span the candidate occupies.
func window(cells []Cell) (from, to string, ok bool) {
	if len(cells) == 0 {
		return "", "", false
	}
	from, to = cells[0].Date, cells[0].Date
	for _, c := range cells[1:] {
		if c.Date < from {
			from = c.Date
		}
		if c.Date > to {
			to = c.Date
		}
	}
	return from, to, true
}
