// File: internal/concurrency/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for the thread pool and scheduler.

package concurrency

import (
	"fmt"
	"runtime"

	"github.com/momentics/hioload-par/api"
)

// ErrPoolClosed indicates the pool has been shut down.
var ErrPoolClosed = api.ErrPoolClosed

// IndexError reports the loop index whose body failed.
type IndexError struct {
	Index  int // failing iteration index
	Chunk  int // chunk number containing Index
	Worker int // worker that ran the chunk
	Err    error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("parallel for: index %d (chunk %d, worker %d): %v", e.Index, e.Chunk, e.Worker, e.Err)
}

func (e *IndexError) Unwrap() error { return e.Err }

// PanicError wraps a value recovered from a panicking loop body together
// with the worker's stack at the point of the panic.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", e.Value, e.Stack)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

func newPanicError(v any) *PanicError {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return &PanicError{Value: v, Stack: string(buf[:n])}
}
