// File: internal/timeit/timeit.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package timeit measures wall time of code regions and reports progress
// lines labelled with the calling thread's identity: [M] for the master,
// [k] for worker k. Timers never influence scheduling.
package timeit

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-par/api"
)

// Label renders id as "[M]" or "[k]".
func Label(id api.ThreadID) string {
	return "[" + id.String() + "]"
}

// Reporter hands out timers that share one logger and one master nesting
// depth. The zero value is not usable; use NewReporter.
type Reporter struct {
	log   zerolog.Logger
	depth atomic.Int32
	now   func() time.Time
}

// NewReporter returns a reporter writing progress events to log. Pass
// zerolog.Nop() to time silently.
func NewReporter(log zerolog.Logger) *Reporter {
	return &Reporter{log: log, now: time.Now}
}

// Timer measures one region.
type Timer struct {
	r       *Reporter
	id      api.ThreadID
	msg     string
	depth   int
	t0      time.Time
	stopped atomic.Bool
}

// Start begins timing msg on behalf of id. Master timers nest: each one
// started while another master timer runs is reported one level deeper.
func (r *Reporter) Start(id api.ThreadID, msg string) *Timer {
	t := &Timer{r: r, id: id, msg: msg}
	if id.IsMaster() {
		t.depth = int(r.depth.Add(1)) - 1
	} else {
		t.depth = int(r.depth.Load())
	}
	t.t0 = r.now()
	t.event("start").Send()
	return t
}

// Elapsed returns the time since Start and reports it as a "run" event.
func (t *Timer) Elapsed() time.Duration {
	d := t.r.now().Sub(t.t0)
	t.event("run").Dur("elapsed", d).Send()
	return d
}

// Peek returns the time since Start without reporting it. It is cheap
// enough to call per loop index.
func (t *Timer) Peek() time.Duration {
	return t.r.now().Sub(t.t0)
}

// Stop reports the final "fini" event and returns the elapsed time. Only
// the first call reports; later calls just return the elapsed time.
func (t *Timer) Stop() time.Duration {
	d := t.r.now().Sub(t.t0)
	if !t.stopped.CompareAndSwap(false, true) {
		return d
	}
	t.event("fini").Dur("elapsed", d).Send()
	if t.id.IsMaster() {
		t.r.depth.Add(-1)
	}
	return d
}

func (t *Timer) event(phase string) *zerolog.Event {
	return t.r.log.Info().
		Str("thread", Label(t.id)).
		Str("phase", phase).
		Int("depth", t.depth).
		Str("region", t.msg)
}
