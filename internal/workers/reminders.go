// Package workers holds the background processes: the reminder scanner that
// turns due reminder times into queue jobs, and the notifier that consumes
// them.
package workers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noted-app/noted-api/internal/engine"
	"github.com/noted-app/noted-api/internal/queue"
)

// reminderGrace is how long past its reminder time a notification stays
// worth delivering. Beyond it the broker expires the job.
const reminderGrace = 24 * time.Hour

// ReminderScanner periodically finds incomplete standalone tasks whose
// reminder time has passed and enqueues one reminder job each. Fired
// reminders are tracked in memory by task id and reminder instant, so a
// rescheduled reminder fires again but an unchanged one never double-fires
// within a process lifetime.
type ReminderScanner struct {
	engine   *engine.Engine
	jobQueue queue.JobQueue
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time

	fired map[string]time.Time
}

// NewReminderScanner creates a scanner.
func NewReminderScanner(e *engine.Engine, jobQueue queue.JobQueue, logger *zap.Logger, interval time.Duration) *ReminderScanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &ReminderScanner{
		engine:   e,
		jobQueue: jobQueue,
		logger:   logger,
		interval: interval,
		now:      time.Now,
		fired:    make(map[string]time.Time),
	}
}

// Run scans on a ticker until the context is cancelled.
func (s *ReminderScanner) Run(ctx context.Context) {
	s.logger.Info("reminder_scanner_started", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reminder_scanner_stopped")
			return
		case <-ticker.C:
			if err := s.ScanOnce(ctx); err != nil {
				s.logger.Error("reminder_scan_failed", zap.Error(err))
			}
		}
	}
}

// ScanOnce runs a single scan pass.
func (s *ReminderScanner) ScanOnce(ctx context.Context) error {
	if err := s.engine.Load(ctx); err != nil {
		return fmt.Errorf("reminder scan: %w", err)
	}
	now := s.now()
	for _, task := range s.engine.StandaloneTasks() {
		if task.IsCompleted || task.ReminderTime == nil {
			continue
		}
		if task.ReminderTime.After(now) {
			continue
		}
		if firedAt, ok := s.fired[task.ID]; ok && firedAt.Equal(*task.ReminderTime) {
			continue
		}

		job := queue.NewJob(queue.JobTypeReminderDue, task.ID)
		notAfter := task.ReminderTime.Add(reminderGrace)
		job.NotAfter = &notAfter
		job.Metadata["description"] = task.Description
		if err := s.jobQueue.Enqueue(ctx, job); err != nil {
			return fmt.Errorf("enqueue reminder for task %s: %w", task.ID, err)
		}
		s.fired[task.ID] = *task.ReminderTime
		s.logger.Info("reminder_enqueued",
			zap.String("task_id", task.ID),
			zap.Time("reminder_time", *task.ReminderTime),
		)
	}
	return nil
}

// ReminderNotifier consumes reminder jobs and emits the notification. The
// delivery channel here is the structured log stream; a push gateway would
// hang off the same hook.
type ReminderNotifier struct {
	engine *engine.Engine
	logger *zap.Logger
	now    func() time.Time
}

// NewReminderNotifier creates a notifier.
func NewReminderNotifier(e *engine.Engine, logger *zap.Logger) *ReminderNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderNotifier{engine: e, logger: logger, now: time.Now}
}

// ProcessJob handles one reminder job. Completed and deleted tasks drop the
// reminder silently.
func (n *ReminderNotifier) ProcessJob(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeReminderDue {
		return fmt.Errorf("unexpected job type %q", job.Type)
	}
	if err := n.engine.Load(ctx); err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	task, ok := n.engine.CombinedTaskByID(job.TaskID)
	if !ok {
		n.logger.Debug("reminder_task_gone", zap.String("task_id", job.TaskID))
		return nil
	}
	if task.IsCompleted {
		n.logger.Debug("reminder_task_completed", zap.String("task_id", job.TaskID))
		return nil
	}

	fields := []zap.Field{
		zap.String("task_id", task.ID),
		zap.String("description", task.Description),
		zap.String("urgency", string(task.Urgency)),
	}
	if label := engine.DueDateLabel(task.DueDate, n.now()); label != "" {
		fields = append(fields, zap.String("due", label))
	}
	n.logger.Info("reminder_notification", fields...)
	return nil
}

// Consume runs the notifier against the queue until the context is
// cancelled. Failed jobs requeue until their retries are spent, then go to
// the dead letter queue.
func (n *ReminderNotifier) Consume(ctx context.Context, jobQueue queue.JobQueue, prefetch int) error {
	msgs, errs, err := jobQueue.Consume(ctx, prefetch)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case consumeErr, ok := <-errs:
			if ok && consumeErr != nil {
				return fmt.Errorf("consume: %w", consumeErr)
			}
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			n.handleMessage(ctx, msg)
		}
	}
}

func (n *ReminderNotifier) handleMessage(ctx context.Context, msg *queue.Message) {
	job := msg.GetJob()
	if err := n.ProcessJob(ctx, job); err != nil {
		n.logger.Error("reminder_job_failed",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
		job.IncrementRetry()
		if job.CanRetry() {
			_ = msg.Nack(true)
		} else {
			_ = msg.Nack(false)
		}
		return
	}
	if err := msg.Ack(); err != nil {
		n.logger.Error("reminder_ack_failed", zap.Error(err))
	}
}
