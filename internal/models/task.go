package models

import (
	"time"
)

// Task represents a user-defined timed item with an optional reminder and an
// optional remote-calendar mirror.
type Task struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Title           string    `json:"title"`
	StartUTC        time.Time `json:"start_utc"`
	DurationMin     int       `json:"duration_minutes"`
	RemindBeforeMin int       `json:"remind_before_minutes"`
	Timezone        string    `json:"timezone"`
	CalendarHref    *string   `json:"calendar_href,omitempty"`
	CalendarUID     *string   `json:"calendar_uid,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// StartLocal returns the task start in its own timezone. Falls back to UTC if
// the stored label does not resolve.
func (t *Task) StartLocal() time.Time {
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return t.StartUTC
	}
	return t.StartUTC.In(loc)
}

// EndLocal returns the task end (start + duration) in its own timezone.
func (t *Task) EndLocal() time.Time {
	return t.StartLocal().Add(time.Duration(t.DurationMin) * time.Minute)
}

// RemindAt returns the instant the reminder should fire, or the zero time if
// no reminder is configured.
func (t *Task) RemindAt() time.Time {
	if t.RemindBeforeMin <= 0 {
		return time.Time{}
	}
	return t.StartUTC.Add(-time.Duration(t.RemindBeforeMin) * time.Minute)
}

// HasCalendarMirror reports whether a remote event was created for this task.
// The sync key, once set, is never cleared.
func (t *Task) HasCalendarMirror() bool {
	return t.CalendarUID != nil && *t.CalendarUID != ""
}
