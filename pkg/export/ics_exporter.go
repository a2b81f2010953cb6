package export

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
)

// CalendarEvent is one all-day entry of an iCalendar export. End is inclusive.
type CalendarEvent struct {
	UID         string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// ICSExporter renders all-day events as an iCalendar feed.
type ICSExporter struct {
	ProductID string
	now       func() time.Time
}

// NewICSExporter builds an iCalendar exporter.
func NewICSExporter() *ICSExporter {
	return &ICSExporter{ProductID: "-//planboard//board export//EN", now: time.Now}
}

// Render serialises the events. The calendar name is advertised through X-WR-CALNAME.
func (e *ICSExporter) Render(name string, events []CalendarEvent) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(e.ProductID)
	if name != "" {
		cal.SetXWRCalName(name)
	}
	stamp := e.now().UTC()
	for _, ev := range events {
		if ev.UID == "" {
			return nil, fmt.Errorf("ics event %q requires a uid", ev.Summary)
		}
		if ev.End.Before(ev.Start) {
			return nil, fmt.Errorf("ics event %s ends before it starts", ev.UID)
		}
		vevent := cal.AddEvent(ev.UID)
		vevent.SetDtStampTime(stamp)
		vevent.SetSummary(ev.Summary)
		if ev.Description != "" {
			vevent.SetDescription(ev.Description)
		}
		vevent.SetAllDayStartAt(ev.Start)
		vevent.SetAllDayEndAt(ev.End.AddDate(0, 0, 1))
	}
	return []byte(cal.Serialize()), nil
}
