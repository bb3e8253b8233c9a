package validation

import "testing"

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  dentist  ", "dentist"},
		{"strips control chars", "den\x00tist\x07", "dentist"},
		{"keeps newline and tab", "line1\n\tline2", "line1\n\tline2"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateTimezone(t *testing.T) {
	t.Parallel()

	if err := ValidateTimezone("Europe/Berlin"); err != nil {
		t.Errorf("valid timezone rejected: %v", err)
	}
	if err := ValidateTimezone("UTC"); err != nil {
		t.Errorf("UTC rejected: %v", err)
	}
	if err := ValidateTimezone(""); err == nil {
		t.Error("empty timezone accepted")
	}
	if err := ValidateTimezone("Nowhere/Fake"); err == nil {
		t.Error("bogus timezone accepted")
	}
}
