// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error values for hioload-par.

package api

import "errors"

// Common errors used across the library.
var (
	ErrPoolClosed      = errors.New("thread pool is closed")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotSupported    = errors.New("operation not supported")
)
