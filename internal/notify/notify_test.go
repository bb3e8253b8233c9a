package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/plannerd/taskplanner/internal/models"
	"go.uber.org/zap"
)

func TestWebhookNotifier_Notify(t *testing.T) {
	t.Parallel()

	var got notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhook(srv.URL, zap.NewNop())
	err := n.Notify(context.Background(), models.ReminderPayload{
		TaskID: 7, UserID: 42, ChatID: 42, Title: "dentist",
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if got.TaskID != 7 || got.UserID != 42 {
		t.Errorf("payload = %+v", got)
	}
	if got.Text != "Reminder: dentist" {
		t.Errorf("text = %q", got.Text)
	}
	wantActions := []string{ActionAcknowledge, ActionSnooze5, ActionSnooze15}
	if len(got.Actions) != len(wantActions) {
		t.Fatalf("actions = %v", got.Actions)
	}
	for i, a := range wantActions {
		if got.Actions[i] != a {
			t.Errorf("actions[%d] = %q, want %q", i, got.Actions[i], a)
		}
	}
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhook(srv.URL, zap.NewNop())
	if err := n.Notify(context.Background(), models.ReminderPayload{TaskID: 1, Title: "x"}); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestLogNotifier_AlwaysSucceeds(t *testing.T) {
	t.Parallel()

	n := NewLog(zap.NewNop())
	if err := n.Notify(context.Background(), models.ReminderPayload{TaskID: 1, Title: "x"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
}
