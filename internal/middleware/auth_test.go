package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/plannerd/taskplanner/internal/models"
	"github.com/plannerd/taskplanner/internal/request"
)

var testSecret = []byte("test-secret")

type stubUserRepo struct {
	ensured map[int64]bool
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{ensured: map[int64]bool{}}
}

func (r *stubUserRepo) Ensure(_ context.Context, userID int64, _ string, _ int) error {
	r.ensured[userID] = true
	return nil
}

func (r *stubUserRepo) GetByID(_ context.Context, userID int64) (*models.User, error) {
	if !r.ensured[userID] {
		return nil, errors.New("no rows")
	}
	return &models.User{ID: userID, Timezone: "UTC", DefaultRemindMin: 15}, nil
}

func (r *stubUserRepo) SetTimezone(context.Context, int64, string) error   { return nil }
func (r *stubUserRepo) SetDefaultRemind(context.Context, int64, int) error { return nil }

func signToken(t *testing.T, subject string, expiry time.Time) string {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Subject(subject).
		IssuedAt(time.Now()).
		Expiration(expiry).
		Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return string(signed)
}

func authHandler(repo *stubUserRepo) http.Handler {
	cfg := AuthConfig{Secret: testSecret, DefaultTimezone: "UTC", DefaultRemindMin: 15}
	return Auth(cfg, repo)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := request.UserFromContext(r)
		if user == nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuth_ValidToken(t *testing.T) {
	t.Parallel()

	repo := newStubUserRepo()
	handler := authHandler(repo)

	r := httptest.NewRequest("GET", "/api/tasks", nil)
	r.Header.Set("Authorization", "Bearer "+signToken(t, "42", time.Now().Add(time.Hour)))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !repo.ensured[42] {
		t.Error("user 42 was not lazily created")
	}
}

func TestAuth_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed header", "Token abc"},
		{"garbage token", "Bearer not.a.token"},
		{"expired token", "Bearer " + signToken(t, "42", time.Now().Add(-time.Hour))},
		{"non-numeric subject", "Bearer " + signToken(t, "alice", time.Now().Add(time.Hour))},
		{"non-positive subject", "Bearer " + signToken(t, "0", time.Now().Add(time.Hour))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			handler := authHandler(newStubUserRepo())
			r := httptest.NewRequest("GET", "/api/tasks", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}

func TestAuth_WrongKeyRejected(t *testing.T) {
	t.Parallel()

	tok, err := jwt.NewBuilder().Subject("42").Expiration(time.Now().Add(time.Hour)).Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte("other-secret")))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	handler := authHandler(newStubUserRepo())
	r := httptest.NewRequest("GET", "/api/tasks", nil)
	r.Header.Set("Authorization", "Bearer "+string(signed))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
