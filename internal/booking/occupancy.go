package booking

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"

	minutesPerDay = 24 * 60

	fullDayLabel = "full-day booking"
)

var clockLayouts = []string{"15:04", "15:04:05"}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(s))
}

// parseClock returns minutes since midnight.
func parseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour()*60 + t.Minute(), nil
		}
	}
	return 0, fmt.Errorf("invalid clock time %q", s)
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Interval is a half-open [Start, End) span of minutes within a day.
type Interval struct {
	Start int
	End   int
}

func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

func (i Interval) String() string {
	return formatClock(i.Start) + "-" + formatClock(i.End)
}

// Cell is the unit of occupancy: one date, either blocked entirely or for an interval.
type Cell struct {
	Date     string
	FullDay  bool
	Interval Interval
}

func (c Cell) Overlaps(o Cell) bool {
	if c.Date != o.Date {
		return false
	}
	if c.FullDay || o.FullDay {
		return true
	}
	return c.Interval.Overlaps(o.Interval)
}

func (c Cell) describe() string {
	if c.FullDay {
		return fullDayLabel
	}
	return c.Interval.String()
}

func fullDay(d time.Time) Cell {
	return Cell{Date: d.Format(dateLayout), FullDay: true, Interval: Interval{Start: 0, End: minutesPerDay}}
}

// clockCell builds the cell for one date from raw clock strings. A missing,
// unparsable or inverted bound blocks the whole date.
func clockCell(d time.Time, start, end string) Cell {
	s, errS := parseClock(start)
	e, errE := parseClock(end)
	if errS != nil || errE != nil || e <= s {
		return fullDay(d)
	}
	return Cell{Date: d.Format(dateLayout), Interval: Interval{Start: s, End: e}}
}

// Cells derives the occupancy footprint of b. Tag bookings yield nothing.
// Records that carry both a date and a range yield the union of both footprints.
func Cells(b *Booking) []Cell {
	var cells []Cell

	if b.Date != "" {
		if d, err := parseDate(b.Date); err == nil {
			cells = append(cells, clockCell(d, b.StartTime, b.EndTime))
		}
	}

	if b.StartDate != "" || b.EndDate != "" {
		cells = append(cells, rangeCells(b)...)
	}

	sort.SliceStable(cells, func(i, j int) bool {
		if cells[i].Date != cells[j].Date {
			return cells[i].Date < cells[j].Date
		}
		return cells[i].Interval.Start < cells[j].Interval.Start
	})
	return cells
}

func rangeCells(b *Booking) []Cell {
	sd, errS := parseDate(b.StartDate)
	ed, errE := parseDate(b.EndDate)

	switch {
	case errS != nil && errE != nil:
		return nil
	case errS != nil:
		return []Cell{fullDay(ed)}
	case errE != nil:
		return []Cell{fullDay(sd)}
	}
	if ed.Before(sd) {
		sd, ed = ed, sd
	}

	var cells []Cell
	if len(b.DaySlots) == 0 {
		for d := sd; !d.After(ed); d = d.AddDate(0, 0, 1) {
			cells = append(cells, fullDay(d))
		}
		return cells
	}

	keys := make([]string, 0, len(b.DaySlots))
	for k := range b.DaySlots {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		d, err := parseDate(key)
		if err != nil {
			continue
		}
		slot := b.DaySlots[key]
		if slot == nil {
			cells = append(cells, fullDay(d))
			continue
		}
		cells = append(cells, clockCell(d, slot.StartTime, slot.EndTime))
	}
	return cells
}

// Touches reports whether b claims any time on the given date, including
// range bookings whose daySlots leave the date free. Used by read paths.
func Touches(b *Booking, date string) bool {
	if b.Date == date {
		return true
	}
	if b.StartDate != "" && b.EndDate != "" && b.StartDate <= date && date <= b.EndDate {
		return true
	}
	_, ok := b.DaySlots[date]
	return ok
}
