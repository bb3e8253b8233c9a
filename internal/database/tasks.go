package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/plannerd/taskplanner/internal/models"
)

// TaskRepository handles task database operations
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create persists a new task and fills in its generated id and timestamps.
// Start times are stored normalized to UTC.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (user_id, title, start_utc, duration_min, remind_before_min, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		task.UserID,
		task.Title,
		task.StartUTC.UTC(),
		task.DurationMin,
		task.RemindBeforeMin,
		task.Timezone,
		now,
		now,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetByID retrieves a task by id, scoped to its owning user
func (r *TaskRepository) GetByID(ctx context.Context, taskID, userID int64) (*models.Task, error) {
	task := &models.Task{}
	var href, uid sql.NullString

	query := `
		SELECT id, user_id, title, start_utc, duration_min, remind_before_min, timezone, calendar_href, calendar_uid, created_at, updated_at
		FROM tasks
		WHERE id = $1 AND user_id = $2
	`

	err := r.db.QueryRowContext(ctx, query, taskID, userID).Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.StartUTC,
		&task.DurationMin,
		&task.RemindBeforeMin,
		&task.Timezone,
		&href,
		&uid,
		&task.CreatedAt,
		&task.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if href.Valid {
		task.CalendarHref = &href.String
	}
	if uid.Valid {
		task.CalendarUID = &uid.String
	}

	return task, nil
}

// UpdateTitle updates the task title
func (r *TaskRepository) UpdateTitle(ctx context.Context, taskID, userID int64, title string) error {
	query := `UPDATE tasks SET title = $1, updated_at = now() WHERE id = $2 AND user_id = $3`

	if _, err := r.db.ExecContext(ctx, query, title, taskID, userID); err != nil {
		return fmt.Errorf("failed to update title: %w", err)
	}

	return nil
}

// UpdateStart updates the task start time (stored in UTC)
func (r *TaskRepository) UpdateStart(ctx context.Context, taskID, userID int64, startUTC time.Time) error {
	query := `UPDATE tasks SET start_utc = $1, updated_at = now() WHERE id = $2 AND user_id = $3`

	if _, err := r.db.ExecContext(ctx, query, startUTC.UTC(), taskID, userID); err != nil {
		return fmt.Errorf("failed to update start: %w", err)
	}

	return nil
}

// UpdateDuration updates the task duration in minutes
func (r *TaskRepository) UpdateDuration(ctx context.Context, taskID, userID int64, durationMin int) error {
	query := `UPDATE tasks SET duration_min = $1, updated_at = now() WHERE id = $2 AND user_id = $3`

	if _, err := r.db.ExecContext(ctx, query, durationMin, taskID, userID); err != nil {
		return fmt.Errorf("failed to update duration: %w", err)
	}

	return nil
}

// UpdateReminder updates the reminder lead time in minutes
func (r *TaskRepository) UpdateReminder(ctx context.Context, taskID, userID int64, minutes int) error {
	query := `UPDATE tasks SET remind_before_min = $1, updated_at = now() WHERE id = $2 AND user_id = $3`

	if _, err := r.db.ExecContext(ctx, query, minutes, taskID, userID); err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}

	return nil
}

// SetCalendarRef stores the remote calendar location handle and sync key for
// a task. The sync key is set once at creation and never changes; an empty
// href is stored as NULL (the sync key remains the durable correlation id).
func (r *TaskRepository) SetCalendarRef(ctx context.Context, taskID int64, href, uid string) error {
	query := `
		UPDATE tasks
		SET calendar_href = NULLIF($1, ''), calendar_uid = $2, updated_at = now()
		WHERE id = $3 AND calendar_uid IS NULL
	`

	if _, err := r.db.ExecContext(ctx, query, href, uid, taskID); err != nil {
		return fmt.Errorf("failed to set calendar ref: %w", err)
	}

	return nil
}

// Delete removes a task, scoped to its owning user
func (r *TaskRepository) Delete(ctx context.Context, taskID, userID int64) error {
	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`

	if _, err := r.db.ExecContext(ctx, query, taskID, userID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// ListPendingReminders returns every task whose reminder instant has not yet
// passed cutoff, across all users. Used at startup to rebuild the in-memory
// wake-up table.
func (r *TaskRepository) ListPendingReminders(ctx context.Context, cutoff time.Time) ([]*models.Task, error) {
	query := `
		SELECT id, user_id, title, start_utc, duration_min, remind_before_min, timezone, calendar_href, calendar_uid, created_at, updated_at
		FROM tasks
		WHERE remind_before_min > 0
		  AND start_utc - make_interval(mins => remind_before_min) >= $1
		ORDER BY start_utc ASC
	`

	rows, err := r.db.QueryContext(ctx, query, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list pending reminders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTasks(rows)
}

// ListUpcoming returns the user's tasks ordered by start time ascending,
// capped at limit
func (r *TaskRepository) ListUpcoming(ctx context.Context, userID int64, limit int) ([]*models.Task, error) {
	query := `
		SELECT id, user_id, title, start_utc, duration_min, remind_before_min, timezone, calendar_href, calendar_uid, created_at, updated_at
		FROM tasks
		WHERE user_id = $1
		ORDER BY start_utc ASC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTasks(rows)
}

func scanTasks(rows *sql.Rows) ([]*models.Task, error) {
	var tasks []*models.Task
	for rows.Next() {
		task := &models.Task{}
		var href, uid sql.NullString

		err := rows.Scan(
			&task.ID,
			&task.UserID,
			&task.Title,
			&task.StartUTC,
			&task.DurationMin,
			&task.RemindBeforeMin,
			&task.Timezone,
			&href,
			&uid,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}

		if href.Valid {
			task.CalendarHref = &href.String
		}
		if uid.Valid {
			task.CalendarUID = &uid.String
		}

		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}
