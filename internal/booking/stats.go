package booking

import (
	"context"
	"sort"
	"strings"
	"time"
)

// defaultStatsWindow is used when a stats request names no start date.
const defaultStatsWindow = 30 * 24 * time.Hour

// HallStats counts the bookings of one hall by status.
type HallStats struct {
	Hall            string `db:"hall" json:"hall"`
	Total           int    `db:"total" json:"total"`
	Pending         int    `db:"pending" json:"pending"`
	Approved        int    `db:"approved" json:"approved"`
	Rejected        int    `db:"rejected" json:"rejected"`
	CancelRequested int    `db:"cancel_requested" json:"cancelRequested"`
	Cancelled       int    `db:"cancelled" json:"cancelled"`
}

// DailyStats counts requests by the UTC day they were applied on.
type DailyStats struct {
	Day       string `db:"day" json:"day"`
	Created   int    `db:"created" json:"created"`
	Cancelled int    `db:"cancelled" json:"cancelled"`
}

type Stats struct {
	From   string       `json:"from"`
	To     string       `json:"to"`
	ByHall []HallStats  `json:"byHall"`
	ByDay  []DailyStats `json:"byDay"`
}

// StatsRepository is implemented by stores that aggregate on their side.
// Both methods cover applied_at in [from, to).
type StatsRepository interface {
	StatsByHall(ctx context.Context, from, to time.Time) ([]HallStats, error)
	StatsByDay(ctx context.Context, from, to time.Time) ([]DailyStats, error)
}

// statsWindow resolves the inclusive YYYY-MM-DD bounds of a stats request into
// a half-open UTC interval. Blank bounds default to the last 30 days.
func statsWindow(from, to string, now time.Time) (time.Time, time.Time, error) {
	end := now.UTC().Truncate(24 * time.Hour)
	if to = strings.TrimSpace(to); to != "" {
		t, err := parseDate(to)
		if err != nil {
			return time.Time{}, time.Time{}, invalid(KindBadDateFormat, "to", "to must be YYYY-MM-DD, got %q", to)
		}
		end = t
	}
	start := end.Add(-defaultStatsWindow)
	if from = strings.TrimSpace(from); from != "" {
		t, err := parseDate(from)
		if err != nil {
			return time.Time{}, time.Time{}, invalid(KindBadDateFormat, "from", "from must be YYYY-MM-DD, got %q", from)
		}
		start = t
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, invalid(KindBadTimeRange, "to", "to %s is before from %s", end.Format(dateLayout), start.Format(dateLayout))
	}
	return start, end.AddDate(0, 0, 1), nil
}

func (s *service) Stats(ctx context.Context, from, to string) (*Stats, error) {
	start, end, err := statsWindow(from, to, s.now())
	if err != nil {
		return nil, err
	}

	out := &Stats{
		From: start.Format(dateLayout),
		To:   end.AddDate(0, 0, -1).Format(dateLayout),
	}

	if sr, ok := s.repo.(StatsRepository); ok {
		if out.ByHall, err = sr.StatsByHall(ctx, start, end); err != nil {
			return nil, s.storeErr("aggregate stats by hall", err)
		}
		if out.ByDay, err = sr.StatsByDay(ctx, start, end); err != nil {
			return nil, s.storeErr("aggregate stats by day", err)
		}
		return out, nil
	}

	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, s.storeErr("load bookings for stats", err)
	}
	out.ByHall, out.ByDay = aggregate(all, start, end)
	return out, nil
}

func aggregate(all []Booking, start, end time.Time) ([]HallStats, []DailyStats) {
	halls := map[string]*HallStats{}
	days := map[string]*DailyStats{}

	for i := range all {
		b := &all[i]
		if b.AppliedAt.Before(start) || !b.AppliedAt.Before(end) {
			continue
		}
		status, _ := ParseStatus(string(b.Status))

		key := NormalizeHall(b.HallName)
		hs, ok := halls[key]
		if !ok {
			hs = &HallStats{Hall: strings.TrimSpace(b.HallName)}
			halls[key] = hs
		} else if name := strings.TrimSpace(b.HallName); name < hs.Hall {
			hs.Hall = name
		}
		hs.Total++
		switch status {
		case StatusPending:
			hs.Pending++
		case StatusApproved:
			hs.Approved++
		case StatusRejected:
			hs.Rejected++
		case StatusCancelRequested:
			hs.CancelRequested++
		case StatusCancelled:
			hs.Cancelled++
		}

		day := b.AppliedAt.UTC().Format(dateLayout)
		ds, ok := days[day]
		if !ok {
			ds = &DailyStats{Day: day}
			days[day] = ds
		}
		ds.Created++
		if status == StatusCancelled {
			ds.Cancelled++
		}
	}

	hallKeys := make([]string, 0, len(halls))
	for k := range halls {
		hallKeys = append(hallKeys, k)
	}
	sort.Strings(hallKeys)
	byHall := make([]HallStats, 0, len(hallKeys))
	for _, k := range hallKeys {
		byHall = append(byHall, *halls[k])
	}

	byDay := make([]DailyStats, 0, len(days))
	for _, ds := range days {
		byDay = append(byDay, *ds)
	}
	sort.Slice(byDay, func(i, j int) bool { return byDay[i].Day < byDay[j].Day })

	return byHall, byDay
}
