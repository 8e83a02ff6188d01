package registry

// Aggregate walks the descendant tree depth-first from root, summing
// time/memory for entries last sampled in the current sample sequence,
// per spec.md §4.5. It is guarded by CyclicSampling so a malformed
// parent-pointer graph (pid recycling races, misbehaving descendants)
// cannot recurse forever or double-count an entry (P4).
//
// Entries whose Sampled is stale (observed only indirectly, by being
// reachable from a parent that was itself sampled this round, but not
// freshly read this round) are walked for their children but do not
// contribute to the sums themselves.
func (r *Registry) Aggregate(root *Entry) int {
	r.SampledTime = 0
	r.SampledMemory = 0
	return r.sampleRecursively(root)
}

func (r *Registry) sampleRecursively(e *Entry) int {
	if e.CyclicSampling {
		return 0
	}

	visited := 0
	if e.Sampled == r.numSamples {
		if e.New {
			r.NewChildren++
		}
		r.SampledTime += e.Time
		r.SampledMemory += e.Memory
		visited = 1
	}

	e.CyclicSampling = true
	for child := e.FirstChild; child != nil; child = child.NextSibling {
		visited += r.sampleRecursively(child)
	}
	e.CyclicSampling = false

	return visited
}
