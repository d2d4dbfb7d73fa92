// Package queue is the background job transport for reminder delivery,
// backed by RabbitMQ.
package queue

import (
	"context"
)

// MessageInterface is the acknowledgeable wrapper around a delivered job.
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// JobQueue is the interface for job queues.
type JobQueue interface {
	// Enqueue adds a job to the queue. Jobs with NotBefore set are
	// delivered no earlier than that instant when the delayed-message
	// plugin is available.
	Enqueue(ctx context.Context, job *Job) error

	// Consume returns a channel of messages delivered as they arrive.
	// The caller acknowledges each message. Prefetch bounds how many
	// unacknowledged messages one consumer holds. The channel closes when
	// the context is cancelled or the connection drops.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	// Close closes the queue connection.
	Close() error

	// HealthCheck verifies the queue connection is alive.
	HealthCheck(ctx context.Context) error
}
