package models

import (
	"time"
)

// CalendarEvent is the mirrored view of a remote calendar event. The UID is
// the synchronization key used to correlate the same event across updates;
// the core never assumes it is the sole writer of the remote calendar.
type CalendarEvent struct {
	UID   string    `json:"uid"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ReminderPayload is what the scheduler hands to the delivery callback when a
// wake-up fires.
type ReminderPayload struct {
	TaskID int64  `json:"task_id"`
	UserID int64  `json:"user_id"`
	ChatID int64  `json:"chat_id"`
	Title  string `json:"title"`
}
