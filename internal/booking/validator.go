package booking

import (
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxRangeDays bounds how many dates a single day-range booking may span.
const MaxRangeDays = 366

var phonePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)

// Validator checks a candidate booking's payload before any conflict check.
// It never consults the store.
type Validator struct {
	validate    *validator.Validate
	emailDomain string
}

func NewValidator(emailDomain string) *Validator {
	emailPattern := regexp.MustCompile(`^[A-Za-z0-9._%+-]+@` + regexp.QuoteMeta(emailDomain) + `$`)

	v := validator.New()
	_ = v.RegisterValidation("institutional_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})

	return &Validator{validate: v, emailDomain: emailDomain}
}

func (v *Validator) EmailDomain() string {
	return v.emailDomain
}

// Validate returns a *ValidationError describing the first problem found, or nil.
func (v *Validator) Validate(b *Booking) error {
	if err := v.validate.Var(b.Email, "institutional_email"); err != nil {
		return invalid(KindInvalidEmail, "email", "email must end with @%s", v.emailDomain)
	}
	if err := v.validate.Var(b.Phone, "mobile"); err != nil {
		return invalid(KindInvalidPhone, "phone", "phone must be 10 digits starting with 6, 7, 8 or 9")
	}
	if strings.TrimSpace(b.HallName) == "" {
		return invalid(KindMalformedPayload, "hallName", "hallName is required")
	}

	if err := checkShape(b); err != nil {
		return err
	}
	if err := checkDates(b); err != nil {
		return err
	}
	if b.hasTimeSlot() {
		if err := checkClockOrder("startTime", b.StartTime, b.EndTime); err != nil {
			return err
		}
	}
	if b.hasDayRange() {
		return checkDayRange(b)
	}
	return nil
}

func checkShape(b *Booking) error {
	hasTime := b.hasTimeSlot()
	hasRange := b.hasDayRange()

	if b.DaySlots != nil && !hasRange {
		return invalid(KindMalformedPayload, "daySlots", "daySlots provided without startDate/endDate")
	}
	if hasTime && hasRange {
		return invalid(KindMalformedPayload, "date", "use either date+startTime+endTime or startDate+endDate, not both")
	}
	if hasTime {
		if b.StartDate != "" || b.EndDate != "" {
			return invalid(KindMalformedPayload, "startDate", "a time booking cannot also carry startDate/endDate")
		}
		return nil
	}
	if hasRange {
		if b.Date != "" || b.StartTime != "" || b.EndTime != "" {
			return invalid(KindMalformedPayload, "date", "a day booking cannot also carry date/startTime/endTime")
		}
		return nil
	}

	switch {
	case b.Date != "" && b.StartTime == "":
		return invalid(KindMalformedPayload, "startTime", "a time booking needs startTime")
	case b.Date != "":
		return invalid(KindMalformedPayload, "endTime", "a time booking needs endTime")
	case b.StartDate != "":
		return invalid(KindMalformedPayload, "endDate", "a day booking needs endDate")
	case b.EndDate != "":
		return invalid(KindMalformedPayload, "startDate", "a day booking needs startDate")
	}

	if strings.TrimSpace(b.Slot) == "" {
		return invalid(KindMalformedPayload, "slot",
			"provide date+startTime+endTime (time booking), startDate+endDate (day booking) or a slot value")
	}
	return nil
}

func checkDates(b *Booking) error {
	fields := []struct {
		name  string
		value string
	}{
		{"date", b.Date},
		{"startDate", b.StartDate},
		{"endDate", b.EndDate},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if _, err := parseDate(f.value); err != nil {
			return invalid(KindBadDateFormat, f.name, "dates must be in YYYY-MM-DD format")
		}
	}
	return nil
}

func checkClockOrder(field, start, end string) error {
	s, err := parseClock(start)
	if err != nil {
		return invalid(KindBadTimeRange, field, "invalid start time %q", start)
	}
	e, err := parseClock(end)
	if err != nil {
		return invalid(KindBadTimeRange, field, "invalid end time %q", end)
	}
	if e <= s {
		return invalid(KindBadTimeRange, field, "endTime must be after startTime")
	}
	return nil
}

func checkDayRange(b *Booking) error {
	sd, _ := parseDate(b.StartDate)
	ed, _ := parseDate(b.EndDate)

	if ed.Before(sd) {
		return invalid(KindBadTimeRange, "endDate", "endDate is before startDate")
	}
	if days := int(ed.Sub(sd).Hours()/24) + 1; days > MaxRangeDays {
		return invalid(KindBadTimeRange, "endDate", "a day booking may span at most %d days", MaxRangeDays)
	}

	keys := make([]string, 0, len(b.DaySlots))
	for k := range b.DaySlots {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		field := "daySlots[" + key + "]"
		d, err := parseDate(key)
		if err != nil {
			return invalid(KindBadDaySlotDate, field, "daySlots key is not a valid date: %s", key)
		}
		if d.Before(sd) || d.After(ed) {
			return invalid(KindDaySlotOutOfRange, field, "daySlots contains a date outside startDate..endDate: %s", key)
		}
		slot := b.DaySlots[key]
		if slot == nil {
			continue
		}
		if err := checkClockOrder(field, slot.StartTime, slot.EndTime); err != nil {
			return err
		}
	}
	return nil
}
