package registry

// Flush walks the active list and deactivates every entry whose Sampled
// is stale for the current sample, folding its last-known Time into
// AccumulatedTime (spec.md §4.6, C6). This is the mechanism that keeps
// the tree's aggregate CPU count monotone despite process exit between
// samples (P3): once an entry disappears, its CPU time is permanently
// credited rather than silently dropped.
//
// Flush must run after Aggregate for the same sample, and SampledTime
// must then be bumped by AccumulatedTime by the caller (C7) so disappeared
// processes stay counted against the limit forever after.
func (r *Registry) Flush() int {
	var prev *Entry
	flushed := 0

	e := r.activeHead
	for e != nil {
		next := e.NextProcess
		if e.Sampled == r.numSamples {
			prev = e
		} else {
			e.Active = false
			if prev != nil {
				prev.NextProcess = next
			} else {
				r.activeHead = next
			}
			r.AccumulatedTime += e.Time
			e.NextProcess = nil
			flushed++
		}
		e = next
	}
	r.activeTail = prev

	return flushed
}

// UpdateMaxima bumps the running maxima given this sample's totals, once
// at least one process was observed (spec.md §4.7 step 3). Both MaxTime
// and MaxMemory are non-decreasing over a run (P1, invariant 6).
func (r *Registry) UpdateMaxima(sampledCount int) {
	if sampledCount <= 0 {
		return
	}
	if r.SampledMemory > r.MaxMemory {
		r.MaxMemory = r.SampledMemory
	}
	if r.SampledTime > r.MaxTime {
		r.MaxTime = r.SampledTime
	}
}

// UpdateMaxLoad bumps MaxLoad, the running maximum 1-minute load average.
func (r *Registry) UpdateMaxLoad(load float64) {
	if load > r.MaxLoad {
		r.MaxLoad = load
	}
}
