package request

import (
	"net/http/httptest"
	"testing"

	"github.com/plannerd/taskplanner/internal/models"
)

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:    "x-forwarded-for single",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.9"},
			remote:  "10.0.0.1:1234",
			want:    "203.0.113.9",
		},
		{
			name:    "x-forwarded-for chain takes first",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.2"},
			remote:  "10.0.0.1:1234",
			want:    "203.0.113.9",
		},
		{
			name:    "x-real-ip fallback",
			headers: map[string]string{"X-Real-IP": " 203.0.113.7 "},
			remote:  "10.0.0.1:1234",
			want:    "203.0.113.7",
		},
		{
			name:   "remote addr fallback",
			remote: "10.0.0.1:1234",
			want:   "10.0.0.1:1234",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserContextRoundTrip(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "/", nil)
	if got := UserFromContext(r); got != nil {
		t.Fatalf("user without context = %+v", got)
	}

	user := &models.User{ID: 42, Timezone: "UTC"}
	r = r.WithContext(WithUser(r.Context(), user))
	got := UserFromContext(r)
	if got == nil || got.ID != 42 {
		t.Fatalf("user = %+v, want id 42", got)
	}
}
