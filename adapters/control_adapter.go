// Package adapters
// Author: momentics <momentics@gmail.com>
//
// Control adapter implementing api.Control interface using control package primitives.

package adapters

import (
	"github.com/momentics/hioload-par/api"
	"github.com/momentics/hioload-par/control"
)

// ControlAdapter bundles a config store, a metrics registry and debug probes.
type ControlAdapter struct {
	config  *control.ConfigStore
	metrics *control.MetricsRegistry
	debug   *control.DebugProbes
}

var _ api.Control = (*ControlAdapter)(nil)

// NewControlAdapter returns an adapter with the platform probes registered.
func NewControlAdapter() *ControlAdapter {
	adapter := &ControlAdapter{
		config:  control.NewConfigStore(),
		metrics: control.NewMetricsRegistry(),
		debug:   control.NewDebugProbes(),
	}
	control.RegisterPlatformProbes(adapter.debug)
	return adapter
}

func (c *ControlAdapter) GetConfig() map[string]any {
	return c.config.GetSnapshot()
}

func (c *ControlAdapter) SetConfig(cfg map[string]any) error {
	c.config.SetConfig(cfg)
	return nil
}

// Stats merges metrics, config and debug probe output; probes are prefixed
// with "debug." and config keys with "config.". "metrics.updated" holds the
// time of the last metrics publication, once there has been one.
func (c *ControlAdapter) Stats() map[string]any {
	combined := c.metrics.GetSnapshot()
	if u := c.metrics.Updated(); !u.IsZero() {
		combined["metrics.updated"] = u
	}
	for k, v := range c.config.GetSnapshot() {
		combined["config."+k] = v
	}
	for k, v := range c.debug.DumpState() {
		combined["debug."+k] = v
	}
	return combined
}

func (c *ControlAdapter) OnReload(fn func(changed map[string]any)) {
	c.config.OnReload(fn)
}

func (c *ControlAdapter) SetMetric(key string, value any) {
	c.metrics.Set(key, value)
}

// PublishMetrics replaces several metrics at once.
func (c *ControlAdapter) PublishMetrics(values map[string]any) {
	c.metrics.SetMany(values)
}

func (c *ControlAdapter) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

// Debug exposes the probe registry.
func (c *ControlAdapter) Debug() api.Debug {
	return c.debug
}

// Probes returns the concrete registry for helpers such as
// control.RegisterTopologyProbes.
func (c *ControlAdapter) Probes() *control.DebugProbes {
	return c.debug
}
