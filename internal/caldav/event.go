package caldav

import (
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/plannerd/taskplanner/internal/models"
)

const prodID = "-//TaskPlanner//EN"

// searchWindowPad is how far the UID lookup window extends past the event's
// own start and end. CalDAV has no lookup-by-id, so events are resolved by a
// date-ranged report and a UID match.
const searchWindowPad = 24 * time.Hour

// searchWindow returns the padded report range for an event's time span.
func searchWindow(start, end time.Time) (time.Time, time.Time) {
	return start.Add(-searchWindowPad).UTC(), end.Add(searchWindowPad).UTC()
}

// encodeEvent builds the VCALENDAR wire representation for one event. Times
// are written in UTC; the alarm is a DISPLAY component triggered the given
// number of minutes before the start, omitted when alarmMinutes <= 0.
func encodeEvent(uid, title string, start, end time.Time, alarmMinutes int) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Props.SetText(ical.PropVersion, "2.0")

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, uid)
	event.Props.SetText(ical.PropSummary, title)
	event.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, end.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	event.Props.SetText(ical.PropStatus, "CONFIRMED")
	event.Props.SetText(ical.PropTransparency, "OPAQUE")

	if alarmMinutes > 0 {
		alarm := ical.NewComponent(ical.CompAlarm)
		alarm.Props.SetText(ical.PropAction, "DISPLAY")
		alarm.Props.SetText(ical.PropDescription, fmt.Sprintf("Reminder: %s", title))
		trigger := ical.NewProp(ical.PropTrigger)
		trigger.SetValueType(ical.ValueDuration)
		trigger.Value = fmt.Sprintf("-PT%dM", alarmMinutes)
		alarm.Props.Set(trigger)
		event.Children = append(event.Children, alarm)
	}

	cal.Children = append(cal.Children, event.Component)
	return cal
}

// decodeEvents extracts mirrored event views from a parsed calendar.
// Components that lack a parseable time window are skipped.
func decodeEvents(cal *ical.Calendar) []models.CalendarEvent {
	var out []models.CalendarEvent
	for _, event := range cal.Events() {
		uid, err := event.Props.Text(ical.PropUID)
		if err != nil {
			continue
		}
		title, err := event.Props.Text(ical.PropSummary)
		if err != nil {
			title = ""
		}
		start, err := event.DateTimeStart(time.UTC)
		if err != nil {
			continue
		}
		end, err := event.DateTimeEnd(time.UTC)
		if err != nil {
			continue
		}
		out = append(out, models.CalendarEvent{
			UID:   uid,
			Title: title,
			Start: start,
			End:   end,
		})
	}
	return out
}

// calendarHasUID reports whether any VEVENT in cal carries the given UID.
func calendarHasUID(cal *ical.Calendar, uid string) bool {
	for _, event := range cal.Events() {
		got, err := event.Props.Text(ical.PropUID)
		if err != nil {
			continue
		}
		if got == uid {
			return true
		}
	}
	return false
}
