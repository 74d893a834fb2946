// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, hot-reload, runtime metrics and debug introspection for
// hioload-par pools.
//
// Provides concurrent-safe state handling primitives including:
//   - Config files in YAML, JSON or TOML
//   - A key/value store whose listeners see exactly the changed keys
//   - A metrics registry for pool and scheduler counters
//   - Debug probes for topology and platform facts
//
// Platform probes are build-tag-partitioned.
package control
