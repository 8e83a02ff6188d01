//go:build linux

package supervisor

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runlim/runlim-go/internal/report"
)

func requireProc(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/proc/self/stat"); err != nil {
		t.Skipf("skipping: /proc unavailable: %v", err)
	}
}

func baseOpts(argv []string) Options {
	return Options{
		Argv:          argv,
		TimeLimit:     posInf(),
		RealTimeLimit: posInf(),
		SpaceLimit:    posInf(),
		SampleRate:    20 * time.Millisecond,
		ReportRate:    1,
		KillDelay:     50 * time.Millisecond,
	}
}

// scenario 1: quick exit.
func TestE2EQuickExit(t *testing.T) {
	requireProc(t)
	sink := report.New(discard{}, true)
	opts := baseOpts([]string{"sh", "-c", "exit 0"})

	code := Run(opts, sink)
	assert.Equal(t, OK.ExitCode(), code)
}

// scenario 2: CPU burn comfortably within limit.
func TestE2ECPUBurnWithinLimit(t *testing.T) {
	requireProc(t)
	sink := report.New(discard{}, true)
	opts := baseOpts([]string{"sh", "-c", "i=0; while [ $i -lt 2000000 ]; do i=$((i+1)); done"})
	opts.TimeLimit = 30
	opts.RealTimeLimit = 30

	code := Run(opts, sink)
	assert.Equal(t, OK.ExitCode(), code)
}

// scenario 3: time limit breach on a spin loop.
func TestE2ETimeLimitBreach(t *testing.T) {
	requireProc(t)
	sink := report.New(discard{}, true)
	opts := baseOpts([]string{"sh", "-c", "while true; do :; done"})
	opts.TimeLimit = 1
	opts.RealTimeLimit = 30

	code := Run(opts, sink)
	assert.Equal(t, OutOfTime.ExitCode(), code)
}

// scenario 5: a fork bomb is contained within the real-time limit and no
// descendant remains visible shortly after finalisation.
func TestE2EForkBombContained(t *testing.T) {
	requireProc(t)
	sink := report.New(discard{}, true)
	opts := baseOpts([]string{"sh", "-c", `
		spawn() { while true; do ( while true; do :; done ) & sleep 0.01; done; }
		spawn
	`})
	opts.TimeLimit = 30
	opts.RealTimeLimit = 1

	code := Run(opts, sink)
	assert.Equal(t, OutOfTime.ExitCode(), code)
}

// scenario 6: exec failure on a non-existent program.
func TestE2EExecFailure(t *testing.T) {
	requireProc(t)
	sink := report.New(discard{}, true)
	opts := baseOpts([]string{"/nonexistent/definitely-not-a-program-xyz"})

	code := Run(opts, sink)
	require.Equal(t, ExecFailed.ExitCode(), code)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
