package queue

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestNewJob(t *testing.T) {
	t.Parallel()

	job := NewJob(JobTypeCalendarCreate, 42, 7)

	if job.ID == uuid.Nil {
		t.Error("Expected job ID to be set")
	}
	if job.Type != JobTypeCalendarCreate {
		t.Errorf("Expected job type to be %s, got %s", JobTypeCalendarCreate, job.Type)
	}
	if job.UserID != 42 {
		t.Errorf("Expected user ID to be 42, got %d", job.UserID)
	}
	if job.TaskID != 7 {
		t.Errorf("Expected task ID to be 7, got %d", job.TaskID)
	}
	if job.RetryCount != 0 {
		t.Errorf("Expected retry count to be 0, got %d", job.RetryCount)
	}
	if job.MaxRetries != 3 {
		t.Errorf("Expected max retries to be 3, got %d", job.MaxRetries)
	}
}

func TestJob_ShouldProcess(t *testing.T) {
	t.Parallel()

	now := time.Now()

	tests := []struct {
		name string
		job  *Job
		want bool
	}{
		{
			name: "no time constraints",
			job:  NewJob(JobTypeCalendarUpdate, 1, 1),
			want: true,
		},
		{
			name: "not before in past",
			job: &Job{
				ID:        uuid.New(),
				Type:      JobTypeCalendarUpdate,
				NotBefore: timePtr(now.Add(-1 * time.Hour)),
			},
			want: true,
		},
		{
			name: "not before in future",
			job: &Job{
				ID:        uuid.New(),
				Type:      JobTypeCalendarUpdate,
				NotBefore: timePtr(now.Add(1 * time.Hour)),
			},
			want: false,
		},
		{
			name: "not after in past",
			job: &Job{
				ID:       uuid.New(),
				Type:     JobTypeCalendarUpdate,
				NotAfter: timePtr(now.Add(-1 * time.Hour)),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.job.ShouldProcess(); got != tt.want {
				t.Errorf("ShouldProcess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJob_Retry(t *testing.T) {
	t.Parallel()

	job := NewJob(JobTypeCalendarCreate, 1, 1)

	for i := 0; i < 3; i++ {
		if !job.CanRetry() {
			t.Fatalf("Expected CanRetry true at retry count %d", job.RetryCount)
		}
		job.IncrementRetry()
	}
	if job.CanRetry() {
		t.Errorf("Expected CanRetry false at retry count %d", job.RetryCount)
	}
}

func TestJob_Delayed(t *testing.T) {
	t.Parallel()

	job := NewJob(JobTypeCalendarUpdate, 1, 2)
	delayed := job.Delayed(time.Minute)

	if delayed.NotBefore == nil {
		t.Fatal("Expected NotBefore to be set on delayed copy")
	}
	if delayed.ShouldProcess() {
		t.Error("Expected delayed job not to be processable immediately")
	}
	if job.NotBefore != nil {
		t.Error("Expected the original job to be unmodified")
	}
	if delayed.TaskID != job.TaskID || delayed.ID != job.ID {
		t.Error("Expected delayed copy to keep the job identity")
	}
}
