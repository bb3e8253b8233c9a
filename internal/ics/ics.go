// Package ics renders a user's upcoming tasks as a standalone iCalendar
// document for download, independent of any remote calendar mirror.
package ics

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/plannerd/taskplanner/internal/models"
)

const prodID = "-//TaskPlanner//EN"

// Build renders tasks into a single VCALENDAR document. Event times are
// written in UTC; every export mints fresh UIDs so re-imports never collide
// with mirrored events.
func Build(tasks []*models.Task) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Props.SetText(ical.PropVersion, "2.0")

	now := time.Now().UTC()
	for _, task := range tasks {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, uuid.New().String())
		event.Props.SetText(ical.PropSummary, task.Title)
		event.Props.SetDateTime(ical.PropDateTimeStart, task.StartUTC.UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, task.StartUTC.UTC().Add(time.Duration(task.DurationMin)*time.Minute))
		event.Props.SetDateTime(ical.PropDateTimeStamp, now)
		cal.Children = append(cal.Children, event.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}
