package schedule

import (
	"fmt"
	"strings"
	"time"
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// dayLayouts are the explicit date formats accepted by ParseDay. Layouts
// without a year default to the current year.
var dayLayouts = []string{
	"2006-01-02",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2",
	"Jan 2",
}

// ParseDay parses a day reference like "today", "tomorrow", "monday",
// "April 25" or "2025-04-25" into local midnight of that date. Weekday
// names resolve to the next occurrence; a weekday matching today means next
// week.
func ParseDay(s string, now time.Time, loc *time.Location) (time.Time, error) {
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}

	if wd, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]; ok {
		daysAhead := (int(wd) - int(today.Weekday()) + 7) % 7
		if daysAhead == 0 {
			daysAhead = 7
		}
		return today.AddDate(0, 0, daysAhead), nil
	}

	for _, layout := range dayLayouts {
		parsed, err := time.ParseInLocation(layout, strings.TrimSpace(s), loc)
		if err != nil {
			continue
		}
		if parsed.Year() == 0 {
			parsed = parsed.AddDate(today.Year(), 0, 0)
		}
		return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, loc), nil
	}

	return time.Time{}, fmt.Errorf("could not understand the date %q", s)
}

// eventTimeLayouts are the formats accepted for a new event's start time.
var eventTimeLayouts = []string{
	"15:04",
	"3pm",
	"3:04pm",
	"3 pm",
	"3:04 pm",
	"2006-01-02 15:04",
	time.RFC3339,
}

// ParseEventTime parses an event start time. Time-only forms resolve to
// today in loc.
func ParseEventTime(s string, now time.Time, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	local := now.In(loc)

	for _, layout := range eventTimeLayouts {
		parsed, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			// Layouts with lowercase markers need a case-insensitive pass.
			parsed, err = time.ParseInLocation(layout, strings.ToLower(s), loc)
		}
		if err != nil {
			continue
		}
		if parsed.Year() == 0 {
			// Time-only layout: anchor to today's date.
			parsed = time.Date(local.Year(), local.Month(), local.Day(),
				parsed.Hour(), parsed.Minute(), 0, 0, loc)
		}
		return parsed, nil
	}

	return time.Time{}, fmt.Errorf("could not understand the time %q", s)
}
