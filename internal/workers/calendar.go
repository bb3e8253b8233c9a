// Package workers contains the queue consumers. The calendar sync worker is
// the only place CalDAV network calls happen, keeping remote latency away
// from reminder firing and request handling.
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/plannerd/taskplanner/internal/caldav"
	"github.com/plannerd/taskplanner/internal/database"
	"github.com/plannerd/taskplanner/internal/queue"
	"go.uber.org/zap"
)

// CalendarGateway is the subset of the gateway used by the sync worker.
type CalendarGateway interface {
	Available() bool
	CreateEvent(ctx context.Context, title string, startLocal, endLocal time.Time, alarmMinutes int) (string, string, error)
	UpdateEvent(ctx context.Context, syncKey, title string, startLocal, endLocal time.Time, alarmMinutes int) (bool, error)
}

// retryBaseDelay is the backoff unit for transient gateway failures; the
// actual delay grows linearly with the retry count.
const retryBaseDelay = 30 * time.Second

// CalendarSyncWorker processes calendar mirror jobs
type CalendarSyncWorker struct {
	gateway  CalendarGateway
	taskRepo database.TaskRepositoryInterface
	jobQueue queue.JobQueue // for re-enqueueing jobs with delays
	logger   *zap.Logger
}

// NewCalendarSyncWorker creates a new calendar sync worker
func NewCalendarSyncWorker(
	gateway CalendarGateway,
	taskRepo database.TaskRepositoryInterface,
	jobQueue queue.JobQueue,
	logger *zap.Logger,
) *CalendarSyncWorker {
	return &CalendarSyncWorker{
		gateway:  gateway,
		taskRepo: taskRepo,
		jobQueue: jobQueue,
		logger:   logger,
	}
}

// ProcessCreateJob mirrors a task to the remote calendar and persists the
// returned location handle and sync key. Idempotent: a task that already
// carries a sync key is left alone.
func (w *CalendarSyncWorker) ProcessCreateJob(ctx context.Context, job *queue.Job) error {
	task, err := w.taskRepo.GetByID(ctx, job.TaskID, job.UserID)
	if err != nil {
		// Task deleted between enqueue and processing; nothing to mirror.
		w.logger.Info("calendar_job_task_gone",
			zap.Int64("task_id", job.TaskID),
			zap.String("job_id", job.ID.String()),
		)
		return nil
	}

	if task.HasCalendarMirror() {
		w.logger.Debug("calendar_job_already_mirrored", zap.Int64("task_id", task.ID))
		return nil
	}

	href, uid, err := w.gateway.CreateEvent(ctx, task.Title, task.StartLocal(), task.EndLocal(), task.RemindBeforeMin)
	if err != nil {
		return fmt.Errorf("failed to create remote event: %w", err)
	}

	if err := w.taskRepo.SetCalendarRef(ctx, task.ID, href, uid); err != nil {
		return fmt.Errorf("failed to persist calendar ref: %w", err)
	}

	w.logger.Info("calendar_event_mirrored",
		zap.Int64("task_id", task.ID),
		zap.String("sync_key", uid),
		zap.Bool("href_resolved", href != ""),
	)
	return nil
}

// ProcessUpdateJob re-syncs an already-mirrored task by its sync key. A task
// without a sync key, or a remote lookup-miss, is a no-op (documented
// drift), not an error.
func (w *CalendarSyncWorker) ProcessUpdateJob(ctx context.Context, job *queue.Job) error {
	task, err := w.taskRepo.GetByID(ctx, job.TaskID, job.UserID)
	if err != nil {
		w.logger.Info("calendar_job_task_gone",
			zap.Int64("task_id", job.TaskID),
			zap.String("job_id", job.ID.String()),
		)
		return nil
	}

	if !task.HasCalendarMirror() {
		return nil
	}

	found, err := w.gateway.UpdateEvent(ctx, *task.CalendarUID, task.Title, task.StartLocal(), task.EndLocal(), task.RemindBeforeMin)
	if err != nil {
		return fmt.Errorf("failed to update remote event: %w", err)
	}

	if !found {
		w.logger.Warn("calendar_event_not_found",
			zap.Int64("task_id", task.ID),
			zap.String("sync_key", *task.CalendarUID),
		)
		return nil
	}

	w.logger.Info("calendar_event_synced", zap.Int64("task_id", task.ID))
	return nil
}

// ProcessJob processes a job based on its type, acknowledging or retrying
// the message as appropriate
func (w *CalendarSyncWorker) ProcessJob(ctx context.Context, msg *queue.Message) error {
	job := msg.Job

	if !w.gateway.Available() {
		// Mirror disabled mid-flight; drop the job rather than spin.
		if ackErr := msg.Ack(); ackErr != nil {
			w.logger.Warn("failed_to_ack_job", zap.Error(ackErr))
		}
		return nil
	}

	var procErr error
	switch job.Type {
	case queue.JobTypeCalendarCreate:
		procErr = w.ProcessCreateJob(ctx, job)
	case queue.JobTypeCalendarUpdate:
		procErr = w.ProcessUpdateJob(ctx, job)
	default:
		if nackErr := msg.Nack(false); nackErr != nil { // unknown type, send to DLQ
			w.logger.Warn("failed_to_nack_job", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if procErr != nil {
		return w.handleJobError(ctx, msg, job, procErr)
	}

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	return nil
}

// handleJobError retries transient gateway failures with linear backoff via
// the delayed exchange and sends exhausted or permanent failures to the DLQ.
func (w *CalendarSyncWorker) handleJobError(ctx context.Context, msg *queue.Message, job *queue.Job, err error) error {
	if caldav.IsAuthError(err) || caldav.IsUnavailable(err) {
		// Retrying won't fix bad credentials or missing configuration.
		w.logger.Error("calendar_job_permanent_failure",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("failed_to_nack_job", zap.Error(nackErr))
		}
		return err
	}

	if job.CanRetry() && w.jobQueue != nil {
		delayed := job.Delayed(time.Duration(job.RetryCount+1) * retryBaseDelay)
		delayed.IncrementRetry()

		if ackErr := msg.Ack(); ackErr != nil {
			w.logger.Warn("failed_to_ack_job_before_retry", zap.Error(ackErr))
		}

		if enqueueErr := w.jobQueue.Enqueue(ctx, delayed); enqueueErr != nil {
			return fmt.Errorf("transient failure, re-enqueue also failed: %w", enqueueErr)
		}

		w.logger.Warn("calendar_job_retry_scheduled",
			zap.String("job_id", job.ID.String()),
			zap.Int("retry_count", delayed.RetryCount),
			zap.Error(err),
		)
		return nil
	}

	w.logger.Error("calendar_job_retries_exhausted",
		zap.String("job_id", job.ID.String()),
		zap.Int("retry_count", job.RetryCount),
		zap.Error(err),
	)
	if nackErr := msg.Nack(false); nackErr != nil {
		w.logger.Warn("failed_to_nack_job", zap.Error(nackErr))
	}
	return err
}
