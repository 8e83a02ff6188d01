package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runlim/runlim-go/internal/procfs"
)

// sampleTick drives one complete registry pass: BeginSample, AddProcess
// for each given sample, ConnectTree, Aggregate from rootPID, Flush, and
// UpdateMaxima/UpdateMaxLoad, mirroring what internal/sampler.tick does.
func sampleTick(r *Registry, rootPID int, load float64, samples ...procfs.ProcessSample) int {
	r.UpdateMaxLoad(load)
	r.BeginSample()
	for _, s := range samples {
		r.AddProcess(s)
	}
	r.ConnectTree(rootPID)

	sampled := 0
	if root, ok := r.Lookup(rootPID); ok {
		sampled = r.Aggregate(root)
	}
	sampled += r.Flush()
	r.SampledTime += r.AccumulatedTime
	r.UpdateMaxima(sampled)
	return sampled
}

func TestMonotoneMaxima(t *testing.T) {
	r := New()

	sampleTick(r, 100, 0.5, procfs.ProcessSample{PID: 100, PPID: 1, TimeSec: 1.0, MemoryMB: 10})
	require.Equal(t, 1.0, r.MaxTime)
	require.Equal(t, 10.0, r.MaxMemory)
	require.Equal(t, 0.5, r.MaxLoad)

	sampleTick(r, 100, 0.2, procfs.ProcessSample{PID: 100, PPID: 1, TimeSec: 2.0, MemoryMB: 5})
	assert.Equal(t, 2.0, r.MaxTime, "max_time must never decrease even though this sample's memory dropped")
	assert.Equal(t, 10.0, r.MaxMemory, "max_memory must never decrease even though this sample's memory dropped")
	assert.Equal(t, 0.5, r.MaxLoad, "max_load must never decrease")

	sampleTick(r, 100, 0.9, procfs.ProcessSample{PID: 100, PPID: 1, TimeSec: 1.5, MemoryMB: 50})
	assert.Equal(t, 2.0, r.MaxTime)
	assert.Equal(t, 50.0, r.MaxMemory)
	assert.Equal(t, 0.9, r.MaxLoad)
}

func TestAggregateNoDoubleCount(t *testing.T) {
	r := New()

	sampled := sampleTick(r, 1,
		0,
		procfs.ProcessSample{PID: 1, PPID: 0, TimeSec: 1.0, MemoryMB: 10},
		procfs.ProcessSample{PID: 2, PPID: 1, TimeSec: 2.0, MemoryMB: 20},
		procfs.ProcessSample{PID: 3, PPID: 1, TimeSec: 3.0, MemoryMB: 30},
		procfs.ProcessSample{PID: 4, PPID: 2, TimeSec: 4.0, MemoryMB: 40},
	)

	require.Equal(t, 4, sampled)
	assert.Equal(t, 10.0, r.SampledTime)
	assert.Equal(t, 100.0, r.SampledMemory)

	entries := r.ActiveEntries()
	assert.Len(t, entries, 4, "every active entry observed this sample must be present exactly once")
}

func TestAccumulatorPreservesTimeOnDisappearance(t *testing.T) {
	r := New()

	sampleTick(r, 1, 0,
		procfs.ProcessSample{PID: 1, PPID: 0, TimeSec: 1.0, MemoryMB: 10},
		procfs.ProcessSample{PID: 2, PPID: 1, TimeSec: 3.0, MemoryMB: 20},
	)
	require.Equal(t, 0.0, r.AccumulatedTime, "nothing has disappeared yet")

	// pid 2 vanishes: next sample only reports the root.
	sampleTick(r, 1, 0,
		procfs.ProcessSample{PID: 1, PPID: 0, TimeSec: 1.2, MemoryMB: 10},
	)

	assert.Equal(t, 3.0, r.AccumulatedTime, "pid 2's last-known time must be folded into AccumulatedTime exactly once")
	entry2, ok := r.Lookup(2)
	require.True(t, ok)
	assert.False(t, entry2.Active, "pid 2 must be deactivated once it disappears from a sample")

	entries := r.ActiveEntries()
	assert.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].PID)
}

func TestCycleToleranceSamplingAndKilling(t *testing.T) {
	r := New()

	// Build a registry with a pathological cycle: 1 -> 2 -> 3 -> 2 (pid 3
	// claims 2 as parent, and 2's own record claims 1 as parent normally,
	// but we force a cycle by hand after ConnectTree to simulate malformed
	// kernel data / pid-recycling races that spec.md §4.9/P4 require
	// tolerating).
	r.BeginSample()
	r.AddProcess(procfs.ProcessSample{PID: 1, PPID: 0, TimeSec: 1, MemoryMB: 1})
	r.AddProcess(procfs.ProcessSample{PID: 2, PPID: 1, TimeSec: 1, MemoryMB: 1})
	r.AddProcess(procfs.ProcessSample{PID: 3, PPID: 2, TimeSec: 1, MemoryMB: 1})
	r.ConnectTree(1)

	root, ok := r.Lookup(1)
	require.True(t, ok)
	e2, _ := r.Lookup(2)
	e3, _ := r.Lookup(3)

	// Force a cycle: e3 becomes e2's parent, and e3 is (already) e2's
	// child, so walking from root visits 2 -> 3 -> 2 forever unless the
	// walk-colouring guard breaks it.
	e3.FirstChild = e2
	e3.LastChild = e2
	e2.NextSibling = nil

	// If the cycle guard were missing, this call would never return and
	// the test would be killed by go test's own timeout instead of
	// failing cleanly; that failure mode is still diagnostic.
	n := r.Aggregate(root)
	assert.GreaterOrEqual(t, n, 1, "aggregate must still visit at least the root")

	assert.False(t, root.CyclicSampling, "walk-colouring mark must be false again after the walk completes")
	assert.False(t, e2.CyclicSampling)
	assert.False(t, e3.CyclicSampling)

	killed := r.PostOrderWalk(root, func(*Entry) {})
	assert.GreaterOrEqual(t, killed, 1, "killing walk must also terminate on a cycle")
	assert.False(t, root.CyclicKilling)
}

func TestFindProcessIsAFunctionFromPID(t *testing.T) {
	r := New()
	e1 := r.FindProcess(42)
	e2 := r.FindProcess(42)
	assert.Same(t, e1, e2, "find_process(pid) must return the same entry for the same pid (invariant 1)")
}

func TestResizeGrowsAtHalfLoad(t *testing.T) {
	r := New()
	for pid := 1; pid <= 64; pid++ {
		r.FindProcess(pid)
	}
	assert.Equal(t, 64, r.count)
	assert.GreaterOrEqual(t, len(r.table), 128, "table must have grown to keep load factor at or under 1/2")
}
