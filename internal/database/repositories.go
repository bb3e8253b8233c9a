package database

import (
	"context"
	"time"

	"github.com/plannerd/taskplanner/internal/models"
)

// TaskRepositoryInterface defines the interface for task repository operations
// This interface enables better testability by allowing mock implementations
type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, taskID, userID int64) (*models.Task, error)
	UpdateTitle(ctx context.Context, taskID, userID int64, title string) error
	UpdateStart(ctx context.Context, taskID, userID int64, startUTC time.Time) error
	UpdateDuration(ctx context.Context, taskID, userID int64, durationMin int) error
	UpdateReminder(ctx context.Context, taskID, userID int64, minutes int) error
	SetCalendarRef(ctx context.Context, taskID int64, href, uid string) error
	Delete(ctx context.Context, taskID, userID int64) error
	ListUpcoming(ctx context.Context, userID int64, limit int) ([]*models.Task, error)
	ListPendingReminders(ctx context.Context, cutoff time.Time) ([]*models.Task, error)
}

// UserRepositoryInterface defines the interface for user repository operations
type UserRepositoryInterface interface {
	Ensure(ctx context.Context, userID int64, defaultTZ string, defaultRemindMin int) error
	GetByID(ctx context.Context, userID int64) (*models.User, error)
	SetTimezone(ctx context.Context, userID int64, tz string) error
	SetDefaultRemind(ctx context.Context, userID int64, minutes int) error
}

// Ensure concrete types implement the interfaces
var (
	_ TaskRepositoryInterface = (*TaskRepository)(nil)
	_ UserRepositoryInterface = (*UserRepository)(nil)
)
