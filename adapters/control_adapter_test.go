package adapters_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-par/adapters"
)

func TestControlAdapterBasic(t *testing.T) {
	ctrl := adapters.NewControlAdapter()
	assert.Empty(t, ctrl.GetConfig(), "expected empty config on init")

	require.NoError(t, ctrl.SetConfig(map[string]any{"k": 1}))
	stats := ctrl.Stats()
	assert.Equal(t, 1, stats["config.k"])
	assert.Contains(t, stats, "debug.platform.cpus")
	assert.NotContains(t, stats, "metrics.updated")

	var changed map[string]any
	ctrl.OnReload(func(c map[string]any) { changed = c })
	require.NoError(t, ctrl.SetConfig(map[string]any{"k": 1, "x": 2}))
	assert.Equal(t, map[string]any{"x": 2}, changed)

	ctrl.SetMetric("pool.size", 4)
	ctrl.PublishMetrics(map[string]any{"scheduler.rounds": int64(1)})
	ctrl.RegisterDebugProbe("answer", func() any { return 42 })
	stats = ctrl.Stats()
	assert.Equal(t, 4, stats["pool.size"])
	assert.Equal(t, int64(1), stats["scheduler.rounds"])
	assert.Equal(t, 42, stats["debug.answer"])
	assert.IsType(t, time.Time{}, stats["metrics.updated"])
	assert.Equal(t, 42, ctrl.Debug().DumpState()["answer"])
}
