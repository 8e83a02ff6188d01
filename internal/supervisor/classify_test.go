//go:build linux

package supervisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

// TestClassificationPrecedence exercises P7: at finalisation, a breached
// time/real-time limit always forces OUT_OF_TIME; short of that, the
// latched outcome wins in the order exec-failed > out-of-memory >
// out-of-time > child-signal > normal.
func TestClassificationPrecedence(t *testing.T) {
	const noBreach = 1000.0 // time/real well under any limit below

	cases := []struct {
		name                 string
		execFailed, oom, oot bool
		childStatus          Status
		maxTime, timeLimit   float64
		real, realTimeLimit  float64
		want                 Status
	}{
		{"normal exit, nothing latched", false, false, false, OK, 1, noBreach, 1, noBreach, OK},
		{"child signal only", false, false, false, SegFault, 1, noBreach, 1, noBreach, SegFault},
		{"out-of-time latch beats child signal", false, false, true, SegFault, 1, noBreach, 1, noBreach, OutOfTime},
		{"out-of-memory beats out-of-time latch", false, true, true, SegFault, 1, noBreach, 1, noBreach, OutOfMemory},
		{"exec-failed beats everything", true, true, true, SegFault, 1, noBreach, 1, noBreach, ExecFailed},
		{"breached time limit forces OUT_OF_TIME regardless of latches", true, true, false, SegFault, 10, 5, 1, noBreach, OutOfTime},
		{"breached real-time limit forces OUT_OF_TIME regardless of latches", false, false, false, OK, 1, noBreach, 10, 5, OutOfTime},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Classify(c.execFailed, c.oom, c.oot, c.childStatus, c.maxTime, c.timeLimit, c.real, c.realTimeLimit)
			assert.Equal(t, c.want, got)
		})
	}
}

// TestExitCodePropagation exercises R2: with limits set to infinity and a
// program exiting with code c, the supervisor's own exit code is c iff
// --propagate, else 0 (modelled directly against the classification/exit
// code mapping since spawning a real child is covered by the e2e tests).
func TestExitCodePropagation(t *testing.T) {
	status := Classify(false, false, false, OK, 0, posInf(), 0, posInf())
	assertExitCode := func(propagate bool, childExit int) int {
		exitCode := status.ExitCode()
		if propagate && status == OK {
			exitCode = childExit
		}
		return exitCode
	}

	assert.Equal(t, 0, assertExitCode(false, 17), "without --propagate, OK always exits 0")
	assert.Equal(t, 17, assertExitCode(true, 17), "with --propagate, OK exits with the child's own code")
}

func TestClassifySignalTaxonomy(t *testing.T) {
	assert.Equal(t, OutOfMemory, ClassifySignal(unix.SIGXFSZ))
	assert.Equal(t, OutOfTime, ClassifySignal(unix.SIGXCPU))
	assert.Equal(t, SegFault, ClassifySignal(unix.SIGSEGV))
	assert.Equal(t, BusError, ClassifySignal(unix.SIGBUS))
	assert.Equal(t, OtherSignal, ClassifySignal(unix.SIGTERM))
}

func TestExitCodeTable(t *testing.T) {
	cases := map[Status]int{
		OK:            0,
		ExecFailed:    1,
		OutOfTime:     2,
		OutOfMemory:   3,
		SegFault:      4,
		BusError:      5,
		ForkFailed:    6,
		InternalError: 7,
		OtherSignal:   11,
	}
	for status, code := range cases {
		assert.Equal(t, code, status.ExitCode())
	}
}

func posInf() float64 {
	var zero float64
	return 1 / zero
}
