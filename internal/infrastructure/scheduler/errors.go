package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a target to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the run queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrTargetAlreadyQueued is returned when the same integration and data type is queued or running
	ErrTargetAlreadyQueued = errors.New("sync target already queued")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
