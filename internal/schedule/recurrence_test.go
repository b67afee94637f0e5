package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihalykrich/real-estate-display-system/internal/model"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// Thursday, so weekday arithmetic in the cases below is easy to eyeball:
// Jan 1 2026 = Thu, Jan 3 = Sat, Jan 5 = Mon.
var baseDay = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
}

func TestNextExecution_Once(t *testing.T) {
	start := time.Date(2026, time.March, 1, 14, 30, 0, 0, time.UTC)
	p := Params{Type: model.ScheduleOnce, StartDate: start}

	next := NextExecution(p, at(baseDay, 8, 0))
	require.NotNil(t, next)
	assert.True(t, next.Equal(start))

	// A start date already in the past is returned verbatim; the applier
	// fires it on the next tick rather than the calculator skipping it.
	next = NextExecution(p, start.AddDate(0, 1, 0))
	require.NotNil(t, next)
	assert.True(t, next.Equal(start))
}

func TestNextExecution_Daily(t *testing.T) {
	p := Params{
		Type:         model.ScheduleDaily,
		StartDate:    baseDay,
		ScheduleTime: strPtr("09:00"),
	}

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before slot fires today", at(baseDay, 8, 0), at(baseDay, 9, 0)},
		{"after slot fires tomorrow", at(baseDay, 10, 0), at(baseDay, 9, 0).AddDate(0, 0, 1)},
		{"exactly at slot fires tomorrow", at(baseDay, 9, 0), at(baseDay, 9, 0).AddDate(0, 0, 1)},
		{"future start waits for start date", at(baseDay.AddDate(0, 0, -3), 12, 0), at(baseDay, 9, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := NextExecution(p, tt.now)
			require.NotNil(t, next)
			assert.True(t, next.Equal(tt.want), "got %v, want %v", next, tt.want)
		})
	}
}

// A daily schedule created long ago must keep landing on today or tomorrow
// relative to now, never on a date derived from the old start.
func TestNextExecution_Daily_OldStartDate(t *testing.T) {
	p := Params{
		Type:         model.ScheduleDaily,
		StartDate:    baseDay, // Jan 1
		ScheduleTime: strPtr("09:00"),
	}

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"nine days later, before slot", at(baseDay.AddDate(0, 0, 9), 8, 0), at(baseDay.AddDate(0, 0, 9), 9, 0)},
		{"nine days later, after slot", at(baseDay.AddDate(0, 0, 9), 10, 0), at(baseDay.AddDate(0, 0, 10), 9, 0)},
		{"a month later, after slot", at(baseDay.AddDate(0, 1, 4), 9, 30), at(baseDay.AddDate(0, 1, 5), 9, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := NextExecution(p, tt.now)
			require.NotNil(t, next)
			assert.True(t, next.Equal(tt.want), "got %v, want %v", next, tt.want)
			assert.True(t, next.After(tt.now), "next %v must be strictly after now %v", next, tt.now)
		})
	}
}

func TestNextExecution_Weekly(t *testing.T) {
	mon, wed, fri := 5, 7, 2 // day-of-month in Jan 2026
	p := Params{
		Type:         model.ScheduleWeekly,
		StartDate:    baseDay,
		ScheduleTime: strPtr("09:00"),
		ScheduleDays: strPtr("1,3,5"), // Mon, Wed, Fri
	}

	day := func(d int) time.Time { return time.Date(2026, time.January, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"Thursday fires Friday", at(day(1), 12, 0), at(day(fri), 9, 0)},
		{"Saturday wraps to Monday", at(day(3), 12, 0), at(day(mon), 9, 0)},
		// The configured day must be strictly after today, so a Monday
		// tick skips to Wednesday even before 09:00.
		{"Monday skips to Wednesday", at(day(mon), 8, 0), at(day(wed), 9, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := NextExecution(p, tt.now)
			require.NotNil(t, next)
			assert.True(t, next.Equal(tt.want), "got %v, want %v", next, tt.want)
		})
	}
}

func TestNextExecution_Weekly_UnsortedDaysEquivalent(t *testing.T) {
	now := at(baseDay, 12, 0)
	sorted := Params{Type: model.ScheduleWeekly, StartDate: baseDay, ScheduleTime: strPtr("09:00"), ScheduleDays: strPtr("1,3,5")}
	shuffled := Params{Type: model.ScheduleWeekly, StartDate: baseDay, ScheduleTime: strPtr("09:00"), ScheduleDays: strPtr("5, 1, 3, 1")}

	a := NextExecution(sorted, now)
	b := NextExecution(shuffled, now)
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.True(t, a.Equal(*b))
}

func TestNextExecution_Monthly(t *testing.T) {
	p := Params{
		Type:         model.ScheduleMonthly,
		StartDate:    baseDay,
		ScheduleTime: strPtr("10:00"),
		ScheduleDate: intPtr(15),
	}

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			"before the day fires this month",
			time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC),
			time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			"after the day fires next month",
			time.Date(2026, time.January, 20, 12, 0, 0, 0, time.UTC),
			time.Date(2026, time.February, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			"December wraps to January",
			time.Date(2026, time.December, 28, 12, 0, 0, 0, time.UTC),
			time.Date(2027, time.January, 15, 10, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := NextExecution(p, tt.now)
			require.NotNil(t, next)
			assert.True(t, next.Equal(tt.want), "got %v, want %v", next, tt.want)
		})
	}
}

func TestNextExecution_Monthly_ClampsShortMonths(t *testing.T) {
	p := Params{
		Type:         model.ScheduleMonthly,
		StartDate:    baseDay,
		ScheduleTime: strPtr("10:00"),
		ScheduleDate: intPtr(31),
	}

	// 2026 is not a leap year: the 31st clamps to Feb 28.
	now := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	next := NextExecution(p, now)
	require.NotNil(t, next)
	assert.True(t, next.Equal(time.Date(2026, time.February, 28, 10, 0, 0, 0, time.UTC)))

	// Once the clamped day has passed, the next occurrence is March 31.
	now = time.Date(2026, time.February, 28, 11, 0, 0, 0, time.UTC)
	next = NextExecution(p, now)
	require.NotNil(t, next)
	assert.True(t, next.Equal(time.Date(2026, time.March, 31, 10, 0, 0, 0, time.UTC)))
}

func TestNextExecution_MalformedParams(t *testing.T) {
	tests := []struct {
		name string
		p    Params
	}{
		{"unknown type", Params{Type: "hourly", StartDate: baseDay}},
		{"daily missing time", Params{Type: model.ScheduleDaily, StartDate: baseDay}},
		{"daily bad clock", Params{Type: model.ScheduleDaily, StartDate: baseDay, ScheduleTime: strPtr("24:00")}},
		{"daily non-numeric clock", Params{Type: model.ScheduleDaily, StartDate: baseDay, ScheduleTime: strPtr("ab:cd")}},
		{"weekly missing days", Params{Type: model.ScheduleWeekly, StartDate: baseDay, ScheduleTime: strPtr("09:00")}},
		{"weekly day out of range", Params{Type: model.ScheduleWeekly, StartDate: baseDay, ScheduleTime: strPtr("09:00"), ScheduleDays: strPtr("1,7")}},
		{"monthly missing date", Params{Type: model.ScheduleMonthly, StartDate: baseDay, ScheduleTime: strPtr("09:00")}},
		{"monthly date out of range", Params{Type: model.ScheduleMonthly, StartDate: baseDay, ScheduleTime: strPtr("09:00"), ScheduleDate: intPtr(32)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, NextExecution(tt.p, at(baseDay, 8, 0)))
		})
	}
}

// Recomputing at a later instant that is still before the occurrence must not
// move the occurrence.
func TestNextExecution_StableBeforeOccurrence(t *testing.T) {
	params := []Params{
		{Type: model.ScheduleDaily, StartDate: baseDay, ScheduleTime: strPtr("18:00")},
		{Type: model.ScheduleWeekly, StartDate: baseDay, ScheduleTime: strPtr("18:00"), ScheduleDays: strPtr("5")},
		{Type: model.ScheduleMonthly, StartDate: baseDay, ScheduleTime: strPtr("18:00"), ScheduleDate: intPtr(20)},
	}
	now := at(baseDay, 8, 0)
	for _, p := range params {
		first := NextExecution(p, now)
		require.NotNil(t, first)
		again := NextExecution(p, now.Add(time.Hour))
		require.NotNil(t, again)
		assert.True(t, first.Equal(*again), "type %s: %v != %v", p.Type, first, again)
	}
}
