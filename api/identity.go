// File: api/identity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Thread identity as seen by code running on or against a thread pool.

package api

import "strconv"

// ThreadID identifies the thread executing a piece of code: either the
// master that drives a pool, or one of the pool's workers.
// The zero value is Master.
type ThreadID struct {
	index  int
	worker bool
}

// Master is the identity of the thread owning and driving the pool.
var Master = ThreadID{}

// WorkerID returns the identity of worker i.
func WorkerID(i int) ThreadID {
	if i < 0 {
		panic("api: negative worker index")
	}
	return ThreadID{index: i, worker: true}
}

// IsMaster reports whether t is the master identity.
func (t ThreadID) IsMaster() bool { return !t.worker }

// Index returns the worker index and true, or (-1, false) for Master.
func (t ThreadID) Index() (int, bool) {
	if !t.worker {
		return -1, false
	}
	return t.index, true
}

// String renders Master as "M" and workers by their index.
func (t ThreadID) String() string {
	if !t.worker {
		return "M"
	}
	return strconv.Itoa(t.index)
}
