// control/hotreload.go
// Author: momentics <momentics@gmail.com>
//
// Change detection and listener dispatch for ConfigStore.

package control

import "reflect"

// diffConfig returns the entries of next that are new or differ from cur.
func diffConfig(cur, next map[string]any) map[string]any {
	changed := make(map[string]any)
	for k, v := range next {
		if old, ok := cur[k]; ok && reflect.DeepEqual(old, v) {
			continue
		}
		changed[k] = v
	}
	return changed
}

// dispatchReload invokes every listener in registration order. Each one gets
// its own copy of changed.
func dispatchReload(listeners []func(map[string]any), changed map[string]any) {
	for _, fn := range listeners {
		cp := make(map[string]any, len(changed))
		for k, v := range changed {
			cp[k] = v
		}
		fn(cp)
	}
}
