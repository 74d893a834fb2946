//go:build darwin && cgo
// +build darwin,cgo

// File: affinity/pin_darwin.go
// Author: momentics <momentics@gmail.com>
//
// Apple thread affinity via the Mach affinity-tag policy. Tags are hints that
// group threads; iOS answers KERN_NOT_SUPPORTED.

package affinity

/*
#include <mach/mach.h>
#include <mach/thread_policy.h>
#include <mach/thread_act.h>

static int go_set_affinity_tag(int tag) {
	thread_affinity_policy_data_t policy = { tag };
	mach_port_t thread = mach_thread_self();
	kern_return_t kr = thread_policy_set(thread, THREAD_AFFINITY_POLICY,
		(thread_policy_t)&policy, THREAD_AFFINITY_POLICY_COUNT);
	mach_port_deallocate(mach_task_self(), thread);
	return kr == KERN_SUCCESS;
}
*/
import "C"

// pinCurrentThread tags the calling thread with id+1; tag 0 means "no affinity".
func pinCurrentThread(id int) bool {
	if id < 0 {
		return false
	}
	return C.go_set_affinity_tag(C.int(id+1)) != 0
}
