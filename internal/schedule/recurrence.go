package schedule

import (
	"strconv"
	"strings"
	"time"

	"github.com/mihalykrich/real-estate-display-system/internal/model"
)

// Params carries the recurrence parameters of a scheduled display.
type Params struct {
	Type         string
	StartDate    time.Time
	ScheduleTime *string // "HH:MM", 24-hour
	ScheduleDays *string // comma-separated weekday ints, 0=Sunday..6=Saturday
	ScheduleDate *int    // day of month, 1..31
}

// ParamsOf extracts the recurrence parameters from a scheduled display record.
func ParamsOf(s model.ScheduledDisplay) Params {
	return Params{
		Type:         s.ScheduleType,
		StartDate:    s.StartDate,
		ScheduleTime: s.ScheduleTime,
		ScheduleDays: s.ScheduleDays,
		ScheduleDate: s.ScheduleDate,
	}
}

// NextExecution computes the next eligible execution timestamp for the given
// parameters relative to now. It returns nil when the parameters are missing
// or malformed for the chosen type; a nil result is a data state ("will never
// run until corrected"), not an error.
//
// The clock is always passed in so results are reproducible. All arithmetic
// happens in now's location; the deployment is expected to run in a single
// timezone.
func NextExecution(p Params, now time.Time) *time.Time {
	switch p.Type {
	case model.ScheduleOnce:
		// Verbatim, even if already in the past. The applier decides whether
		// a past-due once schedule fires immediately.
		next := p.StartDate
		return &next

	case model.ScheduleDaily:
		return nextDaily(p, now)

	case model.ScheduleWeekly:
		return nextWeekly(p, now)

	case model.ScheduleMonthly:
		return nextMonthly(p, now)
	}
	return nil
}

func nextDaily(p Params, now time.Time) *time.Time {
	hour, minute, ok := parseClock(p.ScheduleTime)
	if !ok {
		return nil
	}
	// Anchor on the later of the start date and today, so a schedule whose
	// start date is long past still lands on today or tomorrow instead of an
	// occurrence that already went by.
	anchor := p.StartDate.In(now.Location())
	if anchor.Before(now) {
		anchor = now
	}
	next := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return &next
}

func nextWeekly(p Params, now time.Time) *time.Time {
	hour, minute, ok := parseClock(p.ScheduleTime)
	if !ok {
		return nil
	}
	days, ok := parseWeekdays(p.ScheduleDays)
	if !ok {
		return nil
	}

	today := int(now.Weekday())
	// Smallest configured day strictly after today, wrapping to the first
	// configured day when the week runs out. A same-day slot is skipped even
	// when its time has not passed yet; this mirrors how schedules have
	// always behaved here.
	nextDay := days[0]
	for _, d := range days {
		if d > today {
			nextDay = d
			break
		}
	}
	daysUntil := nextDay - today
	if nextDay <= today {
		daysUntil = (7 - today) + nextDay
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location()).
		AddDate(0, 0, daysUntil)
	return &next
}

func nextMonthly(p Params, now time.Time) *time.Time {
	hour, minute, ok := parseClock(p.ScheduleTime)
	if !ok {
		return nil
	}
	if p.ScheduleDate == nil || *p.ScheduleDate < 1 || *p.ScheduleDate > 31 {
		return nil
	}
	day := *p.ScheduleDate

	// Clamp to the last day of short months (31st in February fires on the
	// 28th/29th) rather than letting date arithmetic roll into the next month.
	next := monthlyCandidate(now.Year(), now.Month(), day, hour, minute, now.Location())
	if !next.After(now) {
		year, month := now.Year(), now.Month()+1
		if month > time.December {
			month = time.January
			year++
		}
		next = monthlyCandidate(year, month, day, hour, minute, now.Location())
	}
	return &next
}

func monthlyCandidate(year int, month time.Month, day, hour, minute int, loc *time.Location) time.Time {
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// parseClock parses an "HH:MM" 24-hour time of day. Malformed or out-of-range
// values report failure instead of guessing.
func parseClock(s *string) (hour, minute int, ok bool) {
	if s == nil {
		return 0, 0, false
	}
	parts := strings.Split(*s, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// parseWeekdays parses a comma-separated weekday set (0=Sunday..6=Saturday)
// into an ascending, de-duplicated slice.
func parseWeekdays(s *string) ([]int, bool) {
	if s == nil || *s == "" {
		return nil, false
	}
	seen := [7]bool{}
	for _, part := range strings.Split(*s, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || d < 0 || d > 6 {
			return nil, false
		}
		seen[d] = true
	}
	var days []int
	for d := 0; d < 7; d++ {
		if seen[d] {
			days = append(days, d)
		}
	}
	return days, true
}
