//go:build linux

// Package sampler implements C7: the periodic driver that orchestrates
// C2 (snapshot) through C6 (accumulate), updates running maxima, emits
// periodic sample records, and triggers enforcement on limit breach.
//
// spec.md §9 flags the original's signal-handler-based sampler as
// async-signal-unsafe (it does file I/O and allocation from inside
// SIGALRM). This port follows the suggested redesign: a dedicated
// goroutine woken by a time.Ticker, so the "asynchronous" context of
// spec.md §5 is a goroutine racing the main goroutine over a mutex,
// never a signal handler racing arbitrary instructions.
package sampler

import (
	"sync"
	"time"

	"github.com/runlim/runlim-go/internal/enforcer"
	"github.com/runlim/runlim-go/internal/procfs"
	"github.com/runlim/runlim-go/internal/registry"
	"github.com/runlim/runlim-go/internal/report"
)

// Limits bundles the three enforced thresholds (spec.md §6).
type Limits struct {
	TimeSec     float64
	RealTimeSec float64
	SpaceMB     float64
}

// Latches holds three of the four independent 0->1 flags spec.md §9/§5
// describes; the fourth, the external-signal latch, is kept by
// supervisor.SignalMediator. Each transitions at most once per run (P5);
// Sampler guards all writes
// under its mutex, finalisation reads them only after the child-wait
// barrier closes (§5's synchronisation contract).
type Latches struct {
	mu          sync.Mutex
	OutOfTime   bool
	OutOfMemory bool
	killing     bool
}

func (l *Latches) latchOutOfTime() (already bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	already = l.OutOfTime
	l.OutOfTime = true
	return already
}

func (l *Latches) latchOutOfMemory() (already bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	already = l.OutOfMemory
	l.OutOfMemory = true
	return already
}

// SetKilling atomically sets the re-entrancy guard and reports whether it
// was already set (mirrors runlim.c's kill_all_child_processes prologue).
func (l *Latches) SetKilling() (already bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	already = l.killing
	l.killing = true
	return already
}

func (l *Latches) isKilling() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.killing
}

// Snapshot is a read-only copy of the latch state, safe to inspect after
// the wait barrier.
type Snapshot struct {
	OutOfTime   bool
	OutOfMemory bool
	Killing     bool
}

func (l *Latches) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{OutOfTime: l.OutOfTime, OutOfMemory: l.OutOfMemory, Killing: l.killing}
}

// Sampler owns the registry and drives it on a ticker.
type Sampler struct {
	Registry   *registry.Registry
	Filter     procfs.Filter
	Single     bool
	Limits     Limits
	ReportRate int
	Sink       *report.Sink
	Latches    *Latches
	Enforcer   *enforcer.Enforcer
	StartTAI   time.Time

	samplesSinceReport int
}

// New builds a Sampler wired to the given registry/enforcer, with
// runlim's default report rate of 100 samples.
func New(reg *registry.Registry, f procfs.Filter, single bool, limits Limits, sink *report.Sink, enf *enforcer.Enforcer, start time.Time) *Sampler {
	return &Sampler{
		Registry:   reg,
		Filter:     f,
		Single:     single,
		Limits:     limits,
		ReportRate: 100,
		Sink:       sink,
		Latches:    &Latches{},
		Enforcer:   enf,
		StartTAI:   start,
	}
}

// Run starts the ticker-driven sampling loop and returns a stop func.
// The loop runs in its own goroutine; callers must call stop() once the
// child has been reaped so no sample races finalisation.
func (s *Sampler) Run(period time.Duration) (stop func()) {
	ticker := time.NewTicker(period)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				s.tick()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// tick is one sampling pass, spec.md §4.7 steps 1-5.
func (s *Sampler) tick() {
	if s.Latches.isKilling() {
		return
	}

	load, _ := procfs.ReadLoadAvg()
	s.Registry.UpdateMaxLoad(load)

	s.Registry.BeginSample()

	var read int
	if s.Single {
		read, _ = procfs.SnapshotSingle(s.Filter, s.Registry)
	} else {
		read, _ = procfs.Snapshot(s.Filter, s.Registry)
	}
	s.Registry.ConnectTree(s.Filter.ChildPID)

	var sampled int
	if read > 0 {
		if root, ok := s.Registry.Lookup(s.Filter.ChildPID); ok {
			sampled = s.Registry.Aggregate(root)
		}
	}

	sampled += s.Registry.Flush()
	s.Registry.SampledTime += s.Registry.AccumulatedTime

	s.Registry.UpdateMaxima(sampled)

	s.samplesSinceReport++
	if s.samplesSinceReport >= s.ReportRate {
		s.samplesSinceReport = 0
		if sampled > 0 {
			s.Sink.Message("sample", "%.2f time, %.2f real, %.0f MB, %.2f load",
				s.Registry.SampledTime, s.realTime().Seconds(), s.Registry.SampledMemory, load)
		}
	}

	if sampled <= 0 {
		return
	}

	if s.Registry.SampledTime > s.Limits.TimeSec || s.realTime().Seconds() > s.Limits.RealTimeSec {
		if !s.Latches.latchOutOfTime() {
			s.Enforce()
		}
		return
	}
	if s.Registry.SampledMemory > s.Limits.SpaceMB {
		if !s.Latches.latchOutOfMemory() {
			s.Enforce()
		}
	}
}

// Enforce triggers C8, guarded by the "killing" latch so concurrent
// callers (this sampler's own tick, or C10's signal mediator reacting to
// an external signal) can never run two enforcement sweeps at once.
func (s *Sampler) Enforce() {
	if s.Latches.SetKilling() {
		return
	}
	s.Enforcer.Run()
}

func (s *Sampler) realTime() time.Duration {
	if s.StartTAI.IsZero() {
		return 0
	}
	return time.Since(s.StartTAI)
}
