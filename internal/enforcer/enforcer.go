//go:build linux

// Package enforcer implements C8: the multi-round SIGTERM->SIGKILL sweep
// of the supervised tree, with a shrinking delay between rounds, grounded
// on runlim.c's kill_all_child_processes.
package enforcer

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/runlim/runlim-go/internal/procfs"
	"github.com/runlim/runlim-go/internal/registry"
)

const (
	// MaxRounds bounds the enforcement loop even if the tree keeps
	// reappearing (spec.md §4.8, §8 P6: "at most ~10 enforcement rounds").
	MaxRounds = 10

	// termThresholdMS is the delay, in milliseconds, at or above which a
	// round uses SIGTERM; below it rounds escalate to SIGKILL. Grounded
	// on runlim.c's "ms >= 2000" check, where runlim.c's "ms" is the
	// delay expressed in *microseconds* per usleep's argument — 2000
	// microseconds is 2 milliseconds in the same unit as kill_delay.
	termThresholdMS = 2

	// stopThresholdMS is the delay, in milliseconds, at or below which
	// the loop stops regardless of whether processes were still found
	// (runlim.c's "ms <= 1000" microseconds, i.e. 1 millisecond here).
	stopThresholdMS = 1
)

// Enforcer runs the kill loop. It holds no registry state of its own;
// the registry passed to Run is re-read and re-connected every round.
type Enforcer struct {
	Registry  *registry.Registry
	Filter    procfs.Filter
	Single    bool
	KillDelay time.Duration // initial delay, default 512ms
	Sleep     func(time.Duration)
}

// New returns an Enforcer with runlim's default 512ms initial kill delay.
func New(reg *registry.Registry, f procfs.Filter, single bool) *Enforcer {
	return &Enforcer{
		Registry:  reg,
		Filter:    f,
		Single:    single,
		KillDelay: 512 * time.Millisecond,
		Sleep:     time.Sleep,
	}
}

// Run executes up to MaxRounds rounds of signal, sleep, halve, exactly as
// spec.md §4.8 describes. It returns the number of rounds that signalled
// at least one process and were then followed by a sleep, or cut off by
// MaxRounds; a round that signals nothing, or that runs at the stop
// threshold, is not counted.
// Run is idempotent from the caller's perspective: the sampler/signal
// mediator guard re-entrancy with their own "killing" latch before ever
// calling Run, so Run itself does not need to re-check that latch.
func (k *Enforcer) Run() int {
	delayMS := k.KillDelay.Milliseconds()
	rounds := 0

	for {
		var signalFn func(pid int)
		if delayMS >= termThresholdMS {
			signalFn = termProcess
		} else {
			signalFn = killProcess
		}

		var read int
		if k.Single {
			read, _ = procfs.SnapshotSingle(k.Filter, k.Registry)
		} else {
			read, _ = procfs.Snapshot(k.Filter, k.Registry)
		}

		killed := 0
		if read > 0 {
			k.Registry.ConnectTree(k.Filter.ChildPID)
			if root, ok := k.Registry.Lookup(k.Filter.ChildPID); ok && root.Active {
				killed = k.Registry.PostOrderWalk(root, func(e *registry.Entry) {
					signalFn(e.PID)
				})
			}
		}

		if killed == 0 || delayMS <= stopThresholdMS {
			break
		}

		rounds++
		if rounds >= MaxRounds {
			break
		}

		k.Sleep(time.Duration(delayMS) * time.Millisecond)
		delayMS /= 2
	}

	return rounds
}

func termProcess(pid int) {
	_ = unix.Kill(pid, unix.SIGTERM)
}

func killProcess(pid int) {
	_ = unix.Kill(pid, unix.SIGKILL)
}
