package caldav

import (
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
)

func TestSearchWindow(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	from, to := searchWindow(start, end)

	if !from.Equal(start.Add(-24 * time.Hour)) {
		t.Errorf("Expected window start one day before event start, got %v", from)
	}
	if !to.Equal(end.Add(24 * time.Hour)) {
		t.Errorf("Expected window end one day after event end, got %v", to)
	}
}

func TestCollectionPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"/calendars/user/tasks/", "/calendars/user/tasks/"},
		{"/calendars/user/tasks", "/calendars/user/tasks/"},
	}
	for _, tt := range tests {
		if got := collectionPath(tt.in); got != tt.want {
			t.Errorf("collectionPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEncodeEvent(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	cal := encodeEvent("uid-123", "Dentist", start, end, 15)

	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("Expected one VEVENT, got %d", len(events))
	}
	event := events[0]

	uid, err := event.Props.Text(ical.PropUID)
	if err != nil || uid != "uid-123" {
		t.Errorf("Expected UID 'uid-123', got '%s' (err %v)", uid, err)
	}
	summary, err := event.Props.Text(ical.PropSummary)
	if err != nil || summary != "Dentist" {
		t.Errorf("Expected SUMMARY 'Dentist', got '%s' (err %v)", summary, err)
	}
	status, err := event.Props.Text(ical.PropStatus)
	if err != nil || status != "CONFIRMED" {
		t.Errorf("Expected STATUS CONFIRMED, got '%s' (err %v)", status, err)
	}
	transp, err := event.Props.Text(ical.PropTransparency)
	if err != nil || transp != "OPAQUE" {
		t.Errorf("Expected TRANSP OPAQUE, got '%s' (err %v)", transp, err)
	}

	gotStart, err := event.DateTimeStart(time.UTC)
	if err != nil {
		t.Fatalf("Failed to read DTSTART: %v", err)
	}
	if !gotStart.Equal(start) {
		t.Errorf("Expected DTSTART %v, got %v", start, gotStart)
	}

	var alarm *ical.Component
	for _, child := range event.Children {
		if child.Name == ical.CompAlarm {
			alarm = child
		}
	}
	if alarm == nil {
		t.Fatal("Expected a VALARM component for a positive alarm lead")
	}
	action, err := alarm.Props.Text(ical.PropAction)
	if err != nil || action != "DISPLAY" {
		t.Errorf("Expected alarm ACTION DISPLAY, got '%s' (err %v)", action, err)
	}
	trigger := alarm.Props.Get(ical.PropTrigger)
	if trigger == nil {
		t.Fatal("Expected alarm TRIGGER prop")
	}
	if trigger.Value != "-PT15M" {
		t.Errorf("Expected trigger '-PT15M', got '%s'", trigger.Value)
	}
	if !strings.Contains(trigger.Value, "-") {
		t.Error("Trigger offset must be negative (before start)")
	}
}

func TestEncodeEvent_NoAlarmWhenLeadZero(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	cal := encodeEvent("uid-1", "No alarm", start, start.Add(time.Hour), 0)

	event := cal.Events()[0]
	for _, child := range event.Children {
		if child.Name == ical.CompAlarm {
			t.Error("Expected no VALARM when alarm lead is zero")
		}
	}
}

func TestDecodeEvents_RoundTrip(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 5, 1, 14, 30, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)
	cal := encodeEvent("uid-rt", "Budget review", start, end, 30)

	events := decodeEvents(cal)
	if len(events) != 1 {
		t.Fatalf("Expected one decoded event, got %d", len(events))
	}

	ev := events[0]
	if ev.UID != "uid-rt" {
		t.Errorf("Expected UID 'uid-rt', got '%s'", ev.UID)
	}
	if ev.Title != "Budget review" {
		t.Errorf("Expected title 'Budget review', got '%s'", ev.Title)
	}
	if !ev.Start.Equal(start) {
		t.Errorf("Expected start %v, got %v", start, ev.Start)
	}
	if !ev.End.Equal(end) {
		t.Errorf("Expected end %v, got %v", end, ev.End)
	}
}

func TestCalendarHasUID(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 5, 1, 14, 30, 0, 0, time.UTC)
	cal := encodeEvent("the-uid", "Event", start, start.Add(time.Hour), 0)

	if !calendarHasUID(cal, "the-uid") {
		t.Error("Expected UID match")
	}
	if calendarHasUID(cal, "another-uid") {
		t.Error("Expected no match for a different UID")
	}
}
