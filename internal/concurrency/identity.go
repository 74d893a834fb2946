// File: internal/concurrency/identity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"context"

	"github.com/momentics/hioload-par/api"
)

type workerKey struct{}

func withWorker(ctx context.Context, w *worker) context.Context {
	return context.WithValue(ctx, workerKey{}, w)
}

func workerFrom(ctx context.Context) *worker {
	if ctx == nil {
		return nil
	}
	w, _ := ctx.Value(workerKey{}).(*worker)
	return w
}

// ThreadIDFrom returns the identity of the worker that received ctx from
// any pool, or api.Master.
func ThreadIDFrom(ctx context.Context) api.ThreadID {
	if w := workerFrom(ctx); w != nil {
		return api.WorkerID(w.index)
	}
	return api.Master
}
