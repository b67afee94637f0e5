package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mihalykrich/real-estate-display-system/internal/model"
)

// ValidationError reports a recurrence parameter the caller must fix. The
// offending field is named so the admin UI can point at it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

var clockFormat = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// NormalizeParams validates recurrence parameters for the chosen schedule
// type and returns them in canonical form: schedule_days sorted and
// de-duplicated, schedule_time in strict 24-hour HH:MM. Invalid input is
// rejected, never coerced into a guessed valid value.
func NormalizeParams(p Params) (Params, error) {
	switch p.Type {
	case model.ScheduleOnce, model.ScheduleDaily, model.ScheduleWeekly, model.ScheduleMonthly:
	default:
		return Params{}, &ValidationError{Field: "schedule_type", Reason: "must be one of once, daily, weekly, monthly"}
	}

	if p.Type != model.ScheduleOnce {
		if p.ScheduleTime == nil || *p.ScheduleTime == "" {
			return Params{}, &ValidationError{Field: "schedule_time", Reason: "required for repeating schedules"}
		}
		if !clockFormat.MatchString(*p.ScheduleTime) {
			return Params{}, &ValidationError{Field: "schedule_time", Reason: "must be HH:MM in 24-hour format"}
		}
	}

	if p.Type == model.ScheduleWeekly {
		if p.ScheduleDays == nil || *p.ScheduleDays == "" {
			return Params{}, &ValidationError{Field: "schedule_days", Reason: "required for weekly schedules"}
		}
		canonical, err := normalizeWeekdays(*p.ScheduleDays)
		if err != nil {
			return Params{}, err
		}
		p.ScheduleDays = &canonical
	}

	if p.Type == model.ScheduleMonthly {
		if p.ScheduleDate == nil {
			return Params{}, &ValidationError{Field: "schedule_date", Reason: "required for monthly schedules"}
		}
		if *p.ScheduleDate < 1 || *p.ScheduleDate > 31 {
			return Params{}, &ValidationError{Field: "schedule_date", Reason: "must be between 1 and 31"}
		}
	}

	return p, nil
}

func normalizeWeekdays(raw string) (string, error) {
	seen := [7]bool{}
	for _, part := range strings.Split(raw, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return "", &ValidationError{Field: "schedule_days", Reason: fmt.Sprintf("%q is not a weekday number", strings.TrimSpace(part))}
		}
		if d < 0 || d > 6 {
			return "", &ValidationError{Field: "schedule_days", Reason: "weekdays must be between 0 (Sunday) and 6 (Saturday)"}
		}
		seen[d] = true
	}
	var out []string
	for d := 0; d < 7; d++ {
		if seen[d] {
			out = append(out, strconv.Itoa(d))
		}
	}
	return strings.Join(out, ","), nil
}
