package dateparse

import (
	"testing"
	"time"
)

func TestNatural_Parse(t *testing.T) {
	t.Parallel()

	p := NewNatural()

	tests := []struct {
		name   string
		text   string
		tz     string
		wantOK bool
		check  func(*testing.T, time.Time)
	}{
		{
			name:   "iso datetime in user timezone",
			text:   "2026-10-28 09:30",
			tz:     "Europe/Warsaw",
			wantOK: true,
			check: func(t *testing.T, got time.Time) {
				loc, _ := time.LoadLocation("Europe/Warsaw")
				want := time.Date(2026, 10, 28, 9, 30, 0, 0, loc).UTC()
				if !got.Equal(want) {
					t.Errorf("Expected %v, got %v", want, got)
				}
				if got.Location() != time.UTC {
					t.Error("Expected result normalized to UTC")
				}
			},
		},
		{
			name:   "rfc3339 keeps its own offset",
			text:   "2026-10-28T09:30:00+02:00",
			tz:     "Asia/Almaty",
			wantOK: true,
			check: func(t *testing.T, got time.Time) {
				want := time.Date(2026, 10, 28, 7, 30, 0, 0, time.UTC)
				if !got.Equal(want) {
					t.Errorf("Expected %v, got %v", want, got)
				}
			},
		},
		{
			name:   "unknown timezone falls back to UTC",
			text:   "2026-01-02 12:00",
			tz:     "Not/AZone",
			wantOK: true,
			check: func(t *testing.T, got time.Time) {
				want := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
				if !got.Equal(want) {
					t.Errorf("Expected %v, got %v", want, got)
				}
			},
		},
		{
			name:   "gibberish",
			text:   "not a date at all###",
			tz:     "UTC",
			wantOK: false,
		},
		{
			name:   "empty",
			text:   "   ",
			tz:     "UTC",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := p.Parse(tt.text, tt.tz)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if ok && tt.check != nil {
				tt.check(t, got)
			}
		})
	}
}
