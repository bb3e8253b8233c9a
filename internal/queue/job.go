package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeCalendarCreate mirrors a freshly created task to the remote
	// calendar and writes the resulting handle and sync key back to the task
	JobTypeCalendarCreate JobType = "calendar_create"
	// JobTypeCalendarUpdate re-syncs an already-mirrored task's title, time
	// window and alarm by its sync key
	JobTypeCalendarUpdate JobType = "calendar_update"
)

// Job represents a calendar sync job in the queue
type Job struct {
	ID         uuid.UUID  `json:"id"`
	Type       JobType    `json:"type"`
	UserID     int64      `json:"user_id"`
	TaskID     int64      `json:"task_id"`
	NotBefore  *time.Time `json:"not_before,omitempty"` // Earliest time to process job (nil = immediate)
	NotAfter   *time.Time `json:"not_after,omitempty"`  // Latest time to process job (nil = no expiration)
	CreatedAt  time.Time  `json:"created_at"`
	RetryCount int        `json:"retry_count"`
	MaxRetries int        `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType, userID, taskID int64) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		UserID:     userID,
		TaskID:     taskID,
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}

	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}

	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}

	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}

// Delayed returns a copy of the job scheduled no earlier than now+delay.
// Used when re-enqueueing after a transient gateway failure.
func (j *Job) Delayed(delay time.Duration) *Job {
	copied := *j
	notBefore := time.Now().Add(delay)
	copied.NotBefore = &notBefore
	return &copied
}
