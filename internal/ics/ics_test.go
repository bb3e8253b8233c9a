package ics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/plannerd/taskplanner/internal/models"
)

func TestBuild(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	tasks := []*models.Task{
		{ID: 1, UserID: 42, Title: "dentist", StartUTC: start, DurationMin: 30, Timezone: "Europe/Berlin"},
		{ID: 2, UserID: 42, Title: "standup", StartUTC: start.Add(24 * time.Hour), DurationMin: 15, Timezone: "Europe/Berlin"},
	}

	data, err := Build(tasks)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}

	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	summary, err := events[0].Props.Text(ical.PropSummary)
	if err != nil || summary != "dentist" {
		t.Errorf("summary = %q, err = %v", summary, err)
	}
	gotStart, err := events[0].DateTimeStart(time.UTC)
	if err != nil || !gotStart.Equal(start) {
		t.Errorf("start = %v, err = %v", gotStart, err)
	}
	gotEnd, err := events[0].DateTimeEnd(time.UTC)
	if err != nil || !gotEnd.Equal(start.Add(30*time.Minute)) {
		t.Errorf("end = %v, err = %v", gotEnd, err)
	}

	uid0, _ := events[0].Props.Text(ical.PropUID)
	uid1, _ := events[1].Props.Text(ical.PropUID)
	if uid0 == "" || uid0 == uid1 {
		t.Errorf("uids not unique: %q %q", uid0, uid1)
	}
}

func TestBuild_Empty(t *testing.T) {
	t.Parallel()

	data, err := Build(nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(string(data), "BEGIN:VCALENDAR") {
		t.Errorf("output missing calendar envelope: %q", data)
	}
}
