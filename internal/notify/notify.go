// Package notify delivers fired reminders to the user-facing frontend.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/plannerd/taskplanner/internal/models"
	"go.uber.org/zap"
)

// Reminder actions offered alongside every notification. Snooze values are
// minutes.
const (
	ActionAcknowledge = "ack"
	ActionSnooze5     = "snooze-5"
	ActionSnooze15    = "snooze-15"
)

// Notifier pushes a reminder to whatever surface talks to the user.
type Notifier interface {
	Notify(ctx context.Context, payload models.ReminderPayload) error
}

// notification is the wire shape posted to the webhook.
type notification struct {
	TaskID  int64    `json:"task_id"`
	UserID  int64    `json:"user_id"`
	ChatID  int64    `json:"chat_id"`
	Text    string   `json:"text"`
	Actions []string `json:"actions"`
}

// WebhookNotifier POSTs reminders as JSON to a configured endpoint, such as
// a chat bot frontend.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewWebhook creates a notifier posting to url.
func NewWebhook(url string, logger *zap.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Notify posts the reminder. Non-2xx responses are errors so the scheduler
// logs the failed delivery.
func (n *WebhookNotifier) Notify(ctx context.Context, payload models.ReminderPayload) error {
	body, err := json.Marshal(notification{
		TaskID:  payload.TaskID,
		UserID:  payload.UserID,
		ChatID:  payload.ChatID,
		Text:    fmt.Sprintf("Reminder: %s", payload.Title),
		Actions: []string{ActionAcknowledge, ActionSnooze5, ActionSnooze15},
	})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned status %d", resp.StatusCode)
	}

	n.logger.Debug("reminder_delivered",
		zap.Int64("task_id", payload.TaskID),
		zap.Int64("user_id", payload.UserID),
	)
	return nil
}

// LogNotifier writes reminders to the process log. Used when no webhook is
// configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLog creates a log-only notifier.
func NewLog(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the reminder and always succeeds.
func (n *LogNotifier) Notify(_ context.Context, payload models.ReminderPayload) error {
	n.logger.Info("reminder_fired",
		zap.Int64("task_id", payload.TaskID),
		zap.Int64("user_id", payload.UserID),
		zap.String("title", payload.Title),
	)
	return nil
}

var (
	_ Notifier = (*WebhookNotifier)(nil)
	_ Notifier = (*LogNotifier)(nil)
)
