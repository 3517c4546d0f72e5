// Package calendar renders events as iCalendar (RFC 5545) feeds.
package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/roster-scheduler/backend/internal/storage/models"
)

// ProductID identifies this service in exported calendars.
const ProductID = "-//roster-scheduler//events//EN"

// ContentType is the media type of an exported calendar.
const ContentType = "text/calendar; charset=utf-8"

// Exporter converts events to iCalendar.
type Exporter struct {
	// UIDDomain is appended to event ids to form globally unique UIDs.
	UIDDomain string
	now       func() time.Time
}

// NewExporter creates an exporter whose UIDs end in @uidDomain.
func NewExporter(uidDomain string) *Exporter {
	if uidDomain == "" {
		uidDomain = "roster-scheduler"
	}
	return &Exporter{UIDDomain: uidDomain, now: time.Now}
}

// Export writes events as one VCALENDAR to w.
func (e *Exporter) Export(w io.Writer, name string, events []models.EventWithContact) error {
	if len(events) == 0 {
		// The encoder refuses calendars without components.
		_, err := io.WriteString(w, "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:"+ProductID+"\r\nEND:VCALENDAR\r\n")
		return err
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)
	if name != "" {
		cal.Props.SetText("X-WR-CALNAME", name)
	}

	stamp := e.now().UTC().Truncate(time.Second)
	for i := range events {
		cal.Children = append(cal.Children, e.toICal(&events[i], stamp))
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encoding calendar: %w", err)
	}
	return nil
}

// toICal converts an event to a VEVENT component.
func (e *Exporter) toICal(ev *models.EventWithContact, stamp time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, ev.ID+"@"+e.UIDDomain)
	ve.Props.SetText(ical.PropSummary, ev.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	ve.Props.SetDateTime(ical.PropDateTimeStart, ev.StartDate.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, ev.EndDate.UTC())
	ve.Props.SetDateTime(ical.PropLastModified, ev.UpdatedAt.UTC().Truncate(time.Second))

	if ev.Description != nil && *ev.Description != "" {
		ve.Props.SetText(ical.PropDescription, *ev.Description)
	}

	if ev.Contact.Email != "" {
		p := ical.NewProp(ical.PropAttendee)
		p.SetText("mailto:" + ev.Contact.Email)
		if cn := strings.TrimSpace(ev.Contact.FirstName + " " + ev.Contact.LastName); cn != "" {
			p.Params.Set(ical.ParamCommonName, cn)
		}
		ve.Props.Add(p)
	}

	return ve
}
