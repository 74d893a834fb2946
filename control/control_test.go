package control_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-par/api"
	"github.com/momentics/hioload-par/control"
	"github.com/momentics/hioload-par/fake"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile_Formats(t *testing.T) {
	want := &control.Config{
		Workers:     6,
		Pin:         true,
		ChunkSize:   512,
		LogLevel:    "debug",
		CPUInfoPath: "/tmp/cpuinfo",
	}
	files := map[string]string{
		"pool.yaml": "workers: 6\npin: true\nchunk_size: 512\nlog_level: debug\ncpuinfo_path: /tmp/cpuinfo\n",
		"pool.yml":  "workers: 6\npin: true\nchunk_size: 512\nlog_level: debug\ncpuinfo_path: /tmp/cpuinfo\n",
		"pool.json": `{"workers": 6, "pin": true, "chunk_size": 512, "log_level": "debug", "cpuinfo_path": "/tmp/cpuinfo"}`,
		"pool.toml": "workers = 6\npin = true\nchunk_size = 512\nlog_level = \"debug\"\ncpuinfo_path = \"/tmp/cpuinfo\"\n",
	}
	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			got, err := control.LoadFile(writeFile(t, name, body))
			require.NoError(t, err)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	got, err := control.LoadFile(writeFile(t, "p.yaml", "pin: true\n"))
	require.NoError(t, err)
	want := control.DefaultConfig()
	want.Pin = true
	assert.Equal(t, want, got)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := control.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = control.LoadFile(writeFile(t, "p.ini", "workers=1"))
	assert.ErrorIs(t, err, api.ErrNotSupported)

	_, err = control.LoadFile(writeFile(t, "p.json", "{workers"))
	assert.Error(t, err)

	for name, body := range map[string]string{
		"neg.yaml":   "workers: -1\n",
		"chunk.yaml": "chunk_size: 0\n",
		"level.yaml": "log_level: loud\n",
	} {
		_, err = control.LoadFile(writeFile(t, name, body))
		assert.ErrorIs(t, err, api.ErrInvalidArgument, name)
	}
}

func TestConfig_Level(t *testing.T) {
	c := control.DefaultConfig()
	lvl, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, lvl)

	c.LogLevel = "INFO"
	lvl, err = c.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, lvl)

	c.LogLevel = ""
	lvl, err = c.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, lvl)
}

func TestIntValue(t *testing.T) {
	for _, v := range []any{3, int32(3), int64(3), uint(3), 3.0} {
		n, ok := control.IntValue(v)
		assert.True(t, ok, "%T", v)
		assert.Equal(t, 3, n)
	}
	for _, v := range []any{3.5, "3", nil, true} {
		_, ok := control.IntValue(v)
		assert.False(t, ok, "%v", v)
	}
}

func TestConfigStore_ReloadSeesOnlyChanges(t *testing.T) {
	cs := control.NewConfigStore()
	cs.SetConfig(control.DefaultConfig().Map())

	var got []map[string]any
	cs.OnReload(func(changed map[string]any) { got = append(got, changed) })

	cs.SetConfig(map[string]any{control.KeyWorkers: 0, control.KeyPin: false})
	assert.Empty(t, got, "unchanged values must not notify")

	cs.SetConfig(map[string]any{control.KeyWorkers: 3, control.KeyPin: false, "extra": []int{1}})
	require.Len(t, got, 1)
	assert.Equal(t, map[string]any{control.KeyWorkers: 3, "extra": []int{1}}, got[0])

	cs.SetConfig(map[string]any{"extra": []int{1}})
	assert.Len(t, got, 1)

	v, ok := cs.Get(control.KeyWorkers)
	require.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 4096, cs.GetSnapshot()[control.KeyChunkSize])
}

func TestConfigStore_ListenerMaySetConfig(t *testing.T) {
	cs := control.NewConfigStore()
	calls := 0
	cs.OnReload(func(changed map[string]any) {
		calls++
		if _, ok := changed["a"]; ok {
			cs.SetConfig(map[string]any{"b": 1})
		}
	})
	cs.SetConfig(map[string]any{"a": 1})
	assert.Equal(t, 2, calls)
	assert.Equal(t, map[string]any{"a": 1, "b": 1}, cs.GetSnapshot())
}

func TestMetricsRegistry(t *testing.T) {
	mr := control.NewMetricsRegistry()
	assert.True(t, mr.Updated().IsZero())

	mr.Set("pool.size", 4)
	mr.SetMany(map[string]any{"scheduler.rounds": int64(2), "pool.size": 8})
	assert.Equal(t, map[string]any{"pool.size": 8, "scheduler.rounds": int64(2)}, mr.GetSnapshot())
	assert.False(t, mr.Updated().IsZero())

	snap := mr.GetSnapshot()
	snap["pool.size"] = 0
	assert.Equal(t, 8, mr.GetSnapshot()["pool.size"])
}

func TestDebugProbes_Topology(t *testing.T) {
	dp := control.NewDebugProbes()
	control.RegisterTopologyProbes(dp, fake.NewTopology(2, 2, 1))
	control.RegisterPlatformProbes(dp)

	state := dp.DumpState()
	assert.Equal(t, true, state["topology.accurate"])
	assert.Equal(t, 3, state["topology.cores"])
	assert.Equal(t, 5, state["topology.hw_threads"])
	assert.Equal(t, []int{2, 2, 1}, state["topology.threads_per_core"])
	assert.NotContains(t, state, "topology.source")
	assert.Contains(t, state, "platform.cpus")
	assert.Contains(t, state, "platform.os")
	assert.Contains(t, state, "platform.cpu_brand")
	assert.Contains(t, state, "platform.cache_line")

	dp.RegisterProbe("topology.cores", func() any { return 0 })
	assert.Equal(t, 0, dp.DumpState()["topology.cores"])
}

func TestDebugProbes_ProbeMayRegister(t *testing.T) {
	dp := control.NewDebugProbes()
	dp.RegisterProbe("self", func() any {
		dp.RegisterProbe("late", func() any { return 1 })
		return "ok"
	})
	assert.Equal(t, "ok", dp.DumpState()["self"])
	assert.Equal(t, 1, dp.DumpState()["late"])
}

func TestConfigStore_ListenerAddedDuringDispatchWaitsForNextChange(t *testing.T) {
	cs := control.NewConfigStore()
	late := 0
	cs.OnReload(func(map[string]any) {
		cs.OnReload(func(map[string]any) { late++ })
	})
	cs.SetConfig(map[string]any{"a": 1})
	assert.Zero(t, late)
	cs.SetConfig(map[string]any{"a": 2})
	assert.Equal(t, 1, late)
}
