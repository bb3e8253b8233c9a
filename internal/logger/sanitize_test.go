package logger

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean path", "/api/tasks/7", "/api/tasks/7"},
		{"control chars stripped", "/api/\x00tasks\x1b[31m", "/api/tasks[31m"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizePath(tt.input); got != tt.want {
				t.Errorf("SanitizePath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeString_Truncates(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 600)
	got := SanitizeString(long, 500)
	if len(got) != 503 || !strings.HasSuffix(got, "...") {
		t.Errorf("len = %d", len(got))
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	if got := SanitizeError(nil); got != "" {
		t.Errorf("nil error = %q", got)
	}
	if got := SanitizeError(errors.New("boom")); got != "boom" {
		t.Errorf("error = %q", got)
	}
}
