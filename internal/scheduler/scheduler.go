// Package scheduler holds the in-memory reminder wake-up table. Each task
// owns at most one slot at a time; arming a task that already has a slot
// atomically replaces it, so consecutive edits can never produce two
// deliveries for the same task.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/plannerd/taskplanner/internal/models"
	"go.uber.org/zap"
)

// DeliveryFunc is invoked when a wake-up fires. Errors are logged and never
// affect other scheduled wake-ups.
type DeliveryFunc func(ctx context.Context, payload models.ReminderPayload) error

// DefaultMisfireGrace is how late a wake-up may fire and still be delivered.
const DefaultMisfireGrace = 2 * time.Minute

type slot struct {
	timer   *time.Timer
	fireAt  time.Time
	payload models.ReminderPayload
	gen     uint64
}

// Scheduler multiplexes one-shot reminder timers keyed by task id.
// Construct one instance at process start and pass it by reference to every
// component that arms or cancels reminders.
type Scheduler struct {
	deliver DeliveryFunc
	grace   time.Duration
	logger  *zap.Logger

	// now is replaceable in tests
	now func() time.Time

	mu      sync.Mutex
	slots   map[int64]*slot
	nextGen uint64
	stopped bool
}

// New creates a scheduler. A non-positive grace falls back to
// DefaultMisfireGrace.
func New(deliver DeliveryFunc, grace time.Duration, logger *zap.Logger) *Scheduler {
	if grace <= 0 {
		grace = DefaultMisfireGrace
	}
	return &Scheduler{
		deliver: deliver,
		grace:   grace,
		logger:  logger,
		now:     time.Now,
		slots:   make(map[int64]*slot),
	}
}

// Arm schedules a one-shot delivery at fireAt, replacing any pending wake-up
// for the same task. A fireAt in the past fires immediately rather than
// being dropped; only fires later than the grace window count as misfires.
func (s *Scheduler) Arm(taskID int64, fireAt time.Time, payload models.ReminderPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	if existing, ok := s.slots[taskID]; ok {
		existing.timer.Stop()
		delete(s.slots, taskID)
	}

	s.nextGen++
	gen := s.nextGen

	delay := fireAt.Sub(s.now())
	if delay < 0 {
		delay = 0
	}

	sl := &slot{
		fireAt:  fireAt,
		payload: payload,
		gen:     gen,
	}
	sl.timer = time.AfterFunc(delay, func() {
		s.fire(taskID, gen)
	})
	s.slots[taskID] = sl

	s.logger.Debug("reminder_armed",
		zap.Int64("task_id", taskID),
		zap.Time("fire_at", fireAt),
	)
}

// Cancel removes any pending wake-up for taskID. It is a no-op, not an
// error, if none exists. A cancel that completes before the fire instant is
// guaranteed to prevent delivery.
func (s *Scheduler) Cancel(taskID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sl, ok := s.slots[taskID]; ok {
		sl.timer.Stop()
		delete(s.slots, taskID)
		s.logger.Debug("reminder_canceled", zap.Int64("task_id", taskID))
	}
}

// Grace returns the configured misfire tolerance.
func (s *Scheduler) Grace() time.Duration {
	return s.grace
}

// Pending reports whether a wake-up is scheduled for taskID and, if so, its
// fire instant.
func (s *Scheduler) Pending(taskID int64) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[taskID]
	if !ok {
		return time.Time{}, false
	}
	return sl.fireAt, true
}

// Len returns the number of pending wake-ups.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

// Stop cancels every pending wake-up. The scheduler accepts no new work
// afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for taskID, sl := range s.slots {
		sl.timer.Stop()
		delete(s.slots, taskID)
	}
}

// fire runs on the timer goroutine. The generation check resolves the race
// between a fire and a concurrent cancel or replace under the table lock:
// whichever the lock serializes first wins, and at most one delivery happens.
func (s *Scheduler) fire(taskID int64, gen uint64) {
	s.mu.Lock()

	sl, ok := s.slots[taskID]
	if !ok || sl.gen != gen {
		// canceled or replaced before we got the lock
		s.mu.Unlock()
		return
	}
	delete(s.slots, taskID)

	lateness := s.now().Sub(sl.fireAt)
	payload := sl.payload
	fireAt := sl.fireAt
	s.mu.Unlock()

	if lateness > s.grace {
		s.logger.Warn("reminder_misfire_dropped",
			zap.Int64("task_id", taskID),
			zap.Time("fire_at", fireAt),
			zap.Duration("lateness", lateness),
			zap.Duration("grace", s.grace),
		)
		return
	}

	if err := s.deliver(context.Background(), payload); err != nil {
		s.logger.Error("reminder_delivery_failed",
			zap.Int64("task_id", taskID),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("reminder_delivered",
		zap.Int64("task_id", taskID),
		zap.Time("fire_at", fireAt),
	)
}
