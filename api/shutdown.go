// File: api/shutdown.go
// Package api defines unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// GracefulShutdown is implemented by components that own worker threads.
type GracefulShutdown interface {
	// Shutdown stops all internal workers and releases their resources.
	// Calling it more than once is allowed.
	Shutdown() error
}
