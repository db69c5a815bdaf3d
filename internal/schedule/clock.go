// Package schedule implements the daily summary engine: the trigger clock
// that computes the next fire instant, and the scheduler loop that fetches
// the day's calendar, formats a summary, and delivers it at most once per
// local calendar date.
package schedule

import (
	"fmt"
	"time"
)

// dateLayout is the canonical local calendar date format used for the
// persisted lastFiredDate.
const dateLayout = "2006-01-02"

// catchUpDelay is the epsilon added to "now" when a missed trigger fires
// immediately on recovery.
const catchUpDelay = time.Second

// TimeOfDay is a wall-clock fire time in 24-hour local time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On returns the fire instant on the calendar date of d, in d's location.
// A time that falls in a daylight-saving gap normalizes to the nearest
// existing local instant; an ambiguous time resolves to the first
// occurrence. Both are the time package's normalization rules.
func (t TimeOfDay) On(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, 0, 0, d.Location())
}

// NextFire computes the next occurrence of fireAt in loc strictly after now.
//
// If lastFiredDate equals the local date of now and now is already past the
// fire time, the next instant is tomorrow's occurrence, so a same-day
// restart after a delivered summary does not re-fire. If today has not been
// delivered and the fire time has already passed, the trigger fires
// immediately (catch-up): a day missed while the process was down delivers
// on recovery rather than waiting another full day.
func NextFire(now time.Time, fireAt TimeOfDay, loc *time.Location, lastFiredDate string) time.Time {
	local := now.In(loc)
	todayFire := fireAt.On(local)
	if local.Before(todayFire) {
		return todayFire
	}
	if lastFiredDate != local.Format(dateLayout) {
		return now.Add(catchUpDelay)
	}
	return fireAt.On(local.AddDate(0, 0, 1))
}

// dayWindow returns the local day containing t as [midnight, next midnight).
func dayWindow(t time.Time, loc *time.Location) (start, end time.Time) {
	local := t.In(loc)
	start = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end = time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	return start, end
}
