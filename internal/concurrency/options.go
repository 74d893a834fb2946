// File: internal/concurrency/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import "github.com/rs/zerolog"

// Option configures a ThreadPool.
type Option func(*poolConfig)

type poolConfig struct {
	size   int
	pin    bool
	logger zerolog.Logger
}

func defaultPoolConfig() poolConfig {
	return poolConfig{logger: zerolog.Nop()}
}

// WithSize sets the worker count. Zero selects the topology's hardware
// thread count. Panics if n < 0.
func WithSize(n int) Option {
	if n < 0 {
		panic("concurrency: WithSize requires n >= 0")
	}
	return func(c *poolConfig) { c.size = n }
}

// WithPinning enables pinning each worker to a hardware thread at spawn.
// Pinning is skipped when the topology is not accurate.
func WithPinning(enabled bool) Option {
	return func(c *poolConfig) { c.pin = enabled }
}

// WithLogger sets the logger for worker lifecycle and degradation events.
func WithLogger(l zerolog.Logger) Option {
	return func(c *poolConfig) { c.logger = l }
}
