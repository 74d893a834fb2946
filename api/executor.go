// Package api
// Author: momentics
//
// Executor contract for the fixed worker set backing a scheduler.

package api

// Executor owns the worker set.
type Executor interface {
	// Size returns the current number of workers.
	Size() int

	// Resize replaces the whole worker set with newCount workers.
	Resize(newCount int) error

	// Close stops all workers.
	Close()
}
