//go:build linux

// Package supervisor implements C9 (the fork/exec/wait main loop) and C10
// (the signal mediator), grounded on runlim.c's main() state machine and
// install_signal_handlers, adapted to os/signal.Notify per spec.md §9's
// redesign guidance.
package supervisor

import (
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/runlim/runlim-go/internal/sampler"
)

// mediatedSignals is the signal set C10 funnels into the shared
// enforcement path, mirroring runlim.c's install_signal_handlers. SIGKILL
// is listed in spec.md for completeness only: it is never interceptable
// on any OS, so it is deliberately not passed to signal.Notify. SIGSEGV
// against the *supervisor's own* process is likewise not caught here — Go's
// runtime treats it as a fatal synchronous fault it will not hand to
// signal.Notify; a child's SIGSEGV is observed instead via its own wait
// status (see Classify/ClassifySignal), which is the accurate translation
// of the original's handler-based SIGSEGV catch.
var mediatedSignals = []os.Signal{unix.SIGINT, unix.SIGTERM, unix.SIGABRT}

// SignalMediator owns the one-shot "caught other signal" latch (P5) and
// routes any of mediatedSignals into the sampler's shared Enforce path, per
// spec.md §4.10.
type SignalMediator struct {
	mu             sync.Mutex
	caughtOtherSig bool
	caughtSignal   os.Signal
	sampler        *sampler.Sampler
	sigCh          chan os.Signal
	stopCh         chan struct{}
}

// NewSignalMediator installs the handler set and begins routing caught
// signals into s.Enforce, run on its own goroutine so the caller's thread
// is never blocked inside a signal handler.
func NewSignalMediator(s *sampler.Sampler) *SignalMediator {
	m := &SignalMediator{
		sampler: s,
		sigCh:   make(chan os.Signal, 1),
		stopCh:  make(chan struct{}),
	}
	signal.Notify(m.sigCh, mediatedSignals...)

	go m.run()
	return m
}

func (m *SignalMediator) run() {
	for {
		select {
		case sig := <-m.sigCh:
			m.latch(sig)
			m.sampler.Enforce()
		case <-m.stopCh:
			return
		}
	}
}

// latch sets the one-shot external-signal flag (mutex-guarded, matching
// runlim.c's caught_other_signal_mutex), recording only the first signal
// observed.
func (m *SignalMediator) latch(sig os.Signal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.caughtOtherSig {
		return
	}
	m.caughtOtherSig = true
	m.caughtSignal = sig
}

// Caught reports whether an external signal was latched, and which one.
func (m *SignalMediator) Caught() (os.Signal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.caughtSignal, m.caughtOtherSig
}

// Stop deregisters the handlers and terminates the routing goroutine.
// Must be called before finalisation reads Caught(), closing the same
// synchronisation barrier spec.md §5 describes for the sampler.
func (m *SignalMediator) Stop() {
	signal.Stop(m.sigCh)
	close(m.stopCh)
}
