package adapters_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/momentics/hioload-par/adapters"
	"github.com/momentics/hioload-par/fake"
)

func TestAffinityAdapter(t *testing.T) {
	topo := fake.NewTopology(2, 2)
	a := adapters.NewAffinityAdapter(topo)

	core, hw, pinned := a.Get()
	assert.Equal(t, -1, core)
	assert.Equal(t, -1, hw)
	assert.False(t, pinned)

	done := make(chan struct{})
	go func() {
		// Exits while locked; the runtime retires the thread.
		defer close(done)
		assert.True(t, a.Pin(1, 1))
	}()
	<-done

	core, hw, pinned = a.Get()
	assert.Equal(t, 1, core)
	assert.Equal(t, 1, hw)
	assert.True(t, pinned)
	assert.Equal(t, []fake.Pin{{Core: 1, HWThread: 1}}, topo.Pins())
	assert.Same(t, topo, a.Topology())
}

func TestAffinityAdapter_Refused(t *testing.T) {
	topo := fake.NewTopology(1)
	topo.Refuse = true
	a := adapters.NewAffinityAdapter(topo)

	assert.False(t, a.Pin(0, 0))
	_, _, pinned := a.Get()
	assert.False(t, pinned)
	assert.Panics(t, func() { a.Pin(0, 1) })
}
