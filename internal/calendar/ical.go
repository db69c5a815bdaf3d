package calendar

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
)

// EncodeICS serializes events to an iCalendar document, one VEVENT per
// event. All-day events are written as date values, timed events as
// date-times.
func EncodeICS(events []Event) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//Nova//EN")

	now := time.Now()
	for _, event := range events {
		vevent := ical.NewComponent(ical.CompEvent)
		cal.Children = append(cal.Children, vevent)

		if event.ID != "" {
			vevent.Props.SetText(ical.PropUID, event.ID)
		} else {
			vevent.Props.SetText(ical.PropUID, fmt.Sprintf("%s@nova", now.Format(time.RFC3339Nano)))
		}
		if event.Summary != "" {
			vevent.Props.SetText(ical.PropSummary, event.Summary)
		}

		if event.AllDay {
			dtstart := ical.NewProp("DTSTART")
			dtstart.SetDate(event.Start)
			vevent.Props.Set(dtstart)

			dtend := ical.NewProp("DTEND")
			dtend.SetDate(event.End)
			vevent.Props.Set(dtend)
		} else {
			vevent.Props.SetDateTime("DTSTART", event.Start)
			vevent.Props.SetDateTime("DTEND", event.End)
		}

		vevent.Props.SetDateTime(ical.PropDateTimeStamp, now)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("failed to encode iCalendar: %w", err)
	}
	return buf.Bytes(), nil
}
