package models

import (
	"testing"
	"time"
)

func TestTaskRemindAt(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	task := Task{StartUTC: start, RemindBeforeMin: 15}
	if got := task.RemindAt(); !got.Equal(start.Add(-15 * time.Minute)) {
		t.Errorf("RemindAt() = %v", got)
	}

	muted := Task{StartUTC: start, RemindBeforeMin: 0}
	if got := muted.RemindAt(); !got.IsZero() {
		t.Errorf("RemindAt() for zero lead = %v, want zero time", got)
	}
}

func TestTaskLocalTimes(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	task := Task{StartUTC: start, DurationMin: 90, Timezone: "Europe/Berlin"}

	local := task.StartLocal()
	if local.Hour() != 14 {
		t.Errorf("StartLocal() hour = %d, want 14 (CEST)", local.Hour())
	}
	end := task.EndLocal()
	if !end.Equal(start.Add(90 * time.Minute)) {
		t.Errorf("EndLocal() = %v", end)
	}

	// unknown timezone falls back to UTC
	task.Timezone = "Nowhere/Fake"
	if got := task.StartLocal(); got.Hour() != 12 {
		t.Errorf("fallback StartLocal() hour = %d, want 12", got.Hour())
	}
}

func TestTaskHasCalendarMirror(t *testing.T) {
	t.Parallel()

	var task Task
	if task.HasCalendarMirror() {
		t.Error("fresh task reports a mirror")
	}
	uid := "abc"
	task.CalendarUID = &uid
	if !task.HasCalendarMirror() {
		t.Error("task with sync key reports no mirror")
	}
}
