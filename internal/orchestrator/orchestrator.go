// Package orchestrator glues the task store, the reminder scheduler and the
// calendar sync queue together. Ordering is fixed: persist first, then
// re-arm or cancel the reminder, then best-effort enqueue the remote mirror.
// Mirror and scheduling outcomes are advisory; a mutation succeeds once
// persistence succeeds.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/plannerd/taskplanner/internal/database"
	"github.com/plannerd/taskplanner/internal/dateparse"
	"github.com/plannerd/taskplanner/internal/models"
	"github.com/plannerd/taskplanner/internal/queue"
	"github.com/plannerd/taskplanner/internal/scheduler"
	"github.com/plannerd/taskplanner/internal/validation"
	"go.uber.org/zap"
)

var (
	// ErrInvalidInput marks validation failures; the original state is
	// untouched and the user is re-prompted.
	ErrInvalidInput = errors.New("invalid input")
	// ErrTaskNotFound is returned when the task does not exist or belongs to
	// another user
	ErrTaskNotFound = errors.New("task not found")
)

// WarnCalendarSync is the advisory warning surfaced when the remote mirror
// could not be scheduled. Local task state is never rolled back because of
// it.
const WarnCalendarSync = "calendar sync could not be scheduled; the task was saved"

// Defaults holds per-deployment fallbacks applied to lazily created users
// and to requests that omit optional fields.
type Defaults struct {
	Timezone    string
	RemindMin   int
	ListLimit   int
	ExportLimit int
}

// Orchestrator drives task mutations
type Orchestrator struct {
	tasks    database.TaskRepositoryInterface
	users    database.UserRepositoryInterface
	sched    *scheduler.Scheduler
	jobs     queue.JobQueue
	parser   dateparse.Parser
	mirror   bool // remote calendar gateway configured
	defaults Defaults
	logger   *zap.Logger

	// now is replaceable in tests
	now func() time.Time
}

// New creates an orchestrator. jobs may be used only when mirror is true.
func New(
	tasks database.TaskRepositoryInterface,
	users database.UserRepositoryInterface,
	sched *scheduler.Scheduler,
	jobs queue.JobQueue,
	parser dateparse.Parser,
	mirror bool,
	defaults Defaults,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		tasks:    tasks,
		users:    users,
		sched:    sched,
		jobs:     jobs,
		parser:   parser,
		mirror:   mirror,
		defaults: defaults,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateTaskInput is the boundary type for task creation. When holds either
// RFC3339 or free text, interpreted in the user's timezone.
type CreateTaskInput struct {
	Title           string `validate:"required,min=1,max=256"`
	When            string `validate:"required"`
	DurationMin     int    `validate:"required,gt=0"`
	RemindBeforeMin *int   `validate:"omitempty,gte=0"`
}

// CreateTask persists a new task, arms its reminder when a positive lead
// time applies, and best-effort schedules the remote calendar mirror.
// Returned warnings are advisory.
func (o *Orchestrator) CreateTask(ctx context.Context, userID int64, input CreateTaskInput) (*models.Task, []string, error) {
	input.Title = validation.SanitizeText(input.Title)
	if err := validation.Validate.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	user, err := o.ensureUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	startUTC, ok := o.parser.Parse(input.When, user.Timezone)
	if !ok {
		return nil, nil, fmt.Errorf("%w: unparseable date %q", ErrInvalidInput, input.When)
	}

	remind := user.DefaultRemindMin
	if input.RemindBeforeMin != nil {
		remind = *input.RemindBeforeMin
	}

	task := &models.Task{
		UserID:          userID,
		Title:           input.Title,
		StartUTC:        startUTC,
		DurationMin:     input.DurationMin,
		RemindBeforeMin: remind,
		Timezone:        user.Timezone,
	}

	if err := o.tasks.Create(ctx, task); err != nil {
		return nil, nil, err
	}

	if task.RemindBeforeMin > 0 {
		o.sched.Arm(task.ID, task.RemindAt(), o.payload(task))
	}

	warnings := o.enqueueMirror(ctx, queue.JobTypeCalendarCreate, task, nil)
	return task, warnings, nil
}

// EditTitle persists a new title. The remote mirror is deliberately left
// stale until the next start or reminder edit touches it.
func (o *Orchestrator) EditTitle(ctx context.Context, userID, taskID int64, title string) error {
	title = validation.SanitizeText(title)
	if title == "" || len(title) > 256 {
		return fmt.Errorf("%w: title must be 1-256 characters", ErrInvalidInput)
	}

	if _, err := o.getTask(ctx, taskID, userID); err != nil {
		return err
	}

	return o.tasks.UpdateTitle(ctx, taskID, userID, title)
}

// EditStart persists a new start time, best-effort re-syncs the remote
// mirror, and re-arms or cancels the reminder for the new instant.
func (o *Orchestrator) EditStart(ctx context.Context, userID, taskID int64, when string) (*models.Task, []string, error) {
	task, err := o.getTask(ctx, taskID, userID)
	if err != nil {
		return nil, nil, err
	}

	startUTC, ok := o.parser.Parse(when, task.Timezone)
	if !ok {
		return nil, nil, fmt.Errorf("%w: unparseable date %q", ErrInvalidInput, when)
	}

	if err := o.tasks.UpdateStart(ctx, taskID, userID, startUTC); err != nil {
		return nil, nil, err
	}
	task.StartUTC = startUTC

	var warnings []string
	if task.HasCalendarMirror() {
		warnings = o.enqueueMirror(ctx, queue.JobTypeCalendarUpdate, task, nil)
	}

	if task.RemindBeforeMin > 0 {
		o.sched.Arm(task.ID, task.RemindAt(), o.payload(task))
	} else {
		o.sched.Cancel(task.ID)
	}

	return task, warnings, nil
}

// EditDuration persists a new duration. Accepted drift: the remote mirror is
// not refreshed here.
func (o *Orchestrator) EditDuration(ctx context.Context, userID, taskID int64, durationMin int) error {
	if durationMin <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}

	if _, err := o.getTask(ctx, taskID, userID); err != nil {
		return err
	}

	return o.tasks.UpdateDuration(ctx, taskID, userID, durationMin)
}

// EditReminder persists a new lead time, best-effort re-syncs the remote
// alarm, and re-arms the wake-up (or leaves it canceled for lead 0).
func (o *Orchestrator) EditReminder(ctx context.Context, userID, taskID int64, minutes int) (*models.Task, []string, error) {
	if minutes < 0 {
		return nil, nil, fmt.Errorf("%w: reminder lead must be >= 0", ErrInvalidInput)
	}

	task, err := o.getTask(ctx, taskID, userID)
	if err != nil {
		return nil, nil, err
	}

	if err := o.tasks.UpdateReminder(ctx, taskID, userID, minutes); err != nil {
		return nil, nil, err
	}
	task.RemindBeforeMin = minutes

	var warnings []string
	if task.HasCalendarMirror() {
		warnings = o.enqueueMirror(ctx, queue.JobTypeCalendarUpdate, task, nil)
	}

	o.sched.Cancel(task.ID)
	if minutes > 0 {
		o.sched.Arm(task.ID, task.RemindAt(), o.payload(task))
	}

	return task, warnings, nil
}

// DeleteTask cancels the pending reminder and removes the local record. The
// mirrored remote event is left in place.
func (o *Orchestrator) DeleteTask(ctx context.Context, userID, taskID int64) error {
	if _, err := o.getTask(ctx, taskID, userID); err != nil {
		return err
	}

	o.sched.Cancel(taskID)
	return o.tasks.Delete(ctx, taskID, userID)
}

// Acknowledge cancels the pending reminder; the task record is untouched.
func (o *Orchestrator) Acknowledge(ctx context.Context, userID, taskID int64) error {
	task, err := o.getTask(ctx, taskID, userID)
	if err != nil {
		return err
	}

	o.sched.Cancel(task.ID)
	return nil
}

// Snooze re-arms the task's reminder slot at now + minutes. The persisted
// lead time and the remote mirror are untouched.
func (o *Orchestrator) Snooze(ctx context.Context, userID, taskID int64, minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("%w: snooze minutes must be positive", ErrInvalidInput)
	}

	task, err := o.getTask(ctx, taskID, userID)
	if err != nil {
		return err
	}

	o.sched.Arm(task.ID, o.now().Add(time.Duration(minutes)*time.Minute), o.payload(task))
	return nil
}

// RearmPending rebuilds the wake-up table from the task store. Called once
// at startup so reminders survive process restarts; reminders already past
// their instant are left to the misfire grace check.
func (o *Orchestrator) RearmPending(ctx context.Context) error {
	cutoff := o.now().Add(-o.sched.Grace())
	tasks, err := o.tasks.ListPendingReminders(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, task := range tasks {
		o.sched.Arm(task.ID, task.RemindAt(), o.payload(task))
	}

	o.logger.Info("reminders_rearmed", zap.Int("count", len(tasks)))
	return nil
}

// GetTask returns one of the user's tasks.
func (o *Orchestrator) GetTask(ctx context.Context, userID, taskID int64) (*models.Task, error) {
	return o.getTask(ctx, taskID, userID)
}

// ListUpcoming returns the user's next tasks, capped at the configured list
// limit.
func (o *Orchestrator) ListUpcoming(ctx context.Context, userID int64) ([]*models.Task, error) {
	return o.tasks.ListUpcoming(ctx, userID, o.defaults.ListLimit)
}

// ExportTasks returns tasks for .ics export, capped at the export limit.
func (o *Orchestrator) ExportTasks(ctx context.Context, userID int64) ([]*models.Task, error) {
	return o.tasks.ListUpcoming(ctx, userID, o.defaults.ExportLimit)
}

// GetPreferences returns the user's stored preferences, lazily creating the
// user.
func (o *Orchestrator) GetPreferences(ctx context.Context, userID int64) (*models.User, error) {
	return o.ensureUser(ctx, userID)
}

// SetTimezone validates and stores a preferred IANA timezone.
func (o *Orchestrator) SetTimezone(ctx context.Context, userID int64, tz string) error {
	if err := validation.ValidateTimezone(tz); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if _, err := o.ensureUser(ctx, userID); err != nil {
		return err
	}
	return o.users.SetTimezone(ctx, userID, tz)
}

// SetDefaultRemind stores the default reminder lead applied to new tasks.
func (o *Orchestrator) SetDefaultRemind(ctx context.Context, userID int64, minutes int) error {
	if minutes < 0 {
		return fmt.Errorf("%w: reminder lead must be >= 0", ErrInvalidInput)
	}

	if _, err := o.ensureUser(ctx, userID); err != nil {
		return err
	}
	return o.users.SetDefaultRemind(ctx, userID, minutes)
}

func (o *Orchestrator) ensureUser(ctx context.Context, userID int64) (*models.User, error) {
	if err := o.users.Ensure(ctx, userID, o.defaults.Timezone, o.defaults.RemindMin); err != nil {
		return nil, err
	}
	return o.users.GetByID(ctx, userID)
}

func (o *Orchestrator) getTask(ctx context.Context, taskID, userID int64) (*models.Task, error) {
	task, err := o.tasks.GetByID(ctx, taskID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: id %d", ErrTaskNotFound, taskID)
	}
	return task, nil
}

func (o *Orchestrator) payload(task *models.Task) models.ReminderPayload {
	return models.ReminderPayload{
		TaskID: task.ID,
		UserID: task.UserID,
		ChatID: task.UserID,
		Title:  task.Title,
	}
}

// enqueueMirror schedules a calendar sync job when the gateway is
// configured. Failures are logged and surfaced as a warning; they never fail
// the mutation.
func (o *Orchestrator) enqueueMirror(ctx context.Context, jobType queue.JobType, task *models.Task, warnings []string) []string {
	if !o.mirror || o.jobs == nil {
		return warnings
	}

	job := queue.NewJob(jobType, task.UserID, task.ID)
	if err := o.jobs.Enqueue(ctx, job); err != nil {
		o.logger.Warn("calendar_mirror_enqueue_failed",
			zap.Int64("task_id", task.ID),
			zap.String("job_type", string(jobType)),
			zap.Error(err),
		)
		return append(warnings, WarnCalendarSync)
	}

	o.logger.Debug("calendar_mirror_enqueued",
		zap.Int64("task_id", task.ID),
		zap.String("job_type", string(jobType)),
	)
	return warnings
}
