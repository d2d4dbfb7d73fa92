package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job.
type JobType string

const (
	// JobTypeReminderDue fires when a task's reminder time has passed.
	JobTypeReminderDue JobType = "reminder_due"
)

// Job is one unit of background work.
type Job struct {
	ID     uuid.UUID `json:"id"`
	Type   JobType   `json:"type"`
	TaskID string    `json:"task_id"`
	// NotBefore is the earliest time to process the job; nil means
	// immediately.
	NotBefore *time.Time `json:"not_before,omitempty"`
	// NotAfter is the latest useful processing time; nil means no
	// expiration. A reminder delivered a day late is noise, so reminder
	// jobs always set this.
	NotAfter   *time.Time     `json:"not_after,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewJob creates a job for the given task.
func NewJob(jobType JobType, taskID string) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		TaskID:     taskID,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// ShouldProcess reports whether the job is inside its processing window.
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

// IsExpired reports whether the job's processing window has closed.
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}
	return time.Now().After(*j.NotAfter)
}

// CanRetry reports whether the job has retries left.
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count.
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
