package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/aj98-official/Nova/internal/calendar"
)

// FormatDailySummary renders the daily notification text for the given day.
func FormatDailySummary(day time.Time, events []calendar.Event) string {
	if len(events) == 0 {
		return fmt.Sprintf("☀️ Good morning! No events scheduled for today (%s).",
			day.Format("Monday, January 02"))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🗓️ **Schedule for Today (%s):**", day.Format("Monday, January 02"))
	writeEventLines(&b, events)
	return b.String()
}

// FormatAgenda renders the event list for an arbitrary day, as shown by the
// schedule view command.
func FormatAgenda(day time.Time, events []calendar.Event) string {
	if len(events) == 0 {
		return fmt.Sprintf("No events found for %s.", day.Format("Monday, January 02, 2006"))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Schedule for %s:**", day.Format("Monday, January 02, 2006"))
	writeEventLines(&b, events)
	return b.String()
}

func writeEventLines(b *strings.Builder, events []calendar.Event) {
	for i, event := range events {
		fmt.Fprintf(b, "\n`[%d]` %s: %s", i+1, formatEventTime(event), eventTitle(event))
	}
}

// formatEventTime renders "09:30 AM (60 min)" for timed events and
// "All Day" for date-only events. Duration is omitted when not positive.
func formatEventTime(event calendar.Event) string {
	if event.AllDay {
		return "All Day"
	}
	s := event.Start.Format("03:04 PM")
	if minutes := int(event.End.Sub(event.Start).Minutes()); minutes > 0 {
		s += fmt.Sprintf(" (%d min)", minutes)
	}
	return s
}

func eventTitle(event calendar.Event) string {
	if event.Summary == "" {
		return "No Title"
	}
	return event.Summary
}
