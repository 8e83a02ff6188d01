package supervisor

import "golang.org/x/sys/unix"

// Status is the outcome classification spec.md §6 assigns an exit code
// to. Values and exit codes follow spec.md §6 and runlim.c's Status enum.
type Status int

const (
	OK Status = iota
	ExecFailed
	OutOfTime
	OutOfMemory
	SegFault
	BusError
	ForkFailed
	InternalError
	OtherSignal
)

// ExitCode returns the process exit code for a Status, per spec.md §6.
func (s Status) ExitCode() int {
	switch s {
	case OK:
		return 0
	case ExecFailed:
		return 1
	case OutOfTime:
		return 2
	case OutOfMemory:
		return 3
	case SegFault:
		return 4
	case BusError:
		return 5
	case ForkFailed:
		return 6
	case InternalError:
		return 7
	default:
		return 11
	}
}

// Description is the "status" report tag's value, per spec.md §6.
func (s Status) Description() string {
	switch s {
	case OK:
		return "ok"
	case ExecFailed:
		return "execvp failed"
	case OutOfTime:
		return "out of time"
	case OutOfMemory:
		return "out of memory"
	case SegFault:
		return "segmentation fault"
	case BusError:
		return "bus error"
	case ForkFailed:
		return "fork failed"
	case InternalError:
		return "internal error"
	default:
		return "other signal"
	}
}

// ClassifySignal maps a child's terminating signal to a Status, per
// spec.md §7's "Child terminated by signal" taxonomy.
func ClassifySignal(sig unix.Signal) Status {
	switch sig {
	case unix.SIGXFSZ:
		return OutOfMemory
	case unix.SIGXCPU:
		return OutOfTime
	case unix.SIGSEGV:
		return SegFault
	case unix.SIGBUS:
		return BusError
	default:
		return OtherSignal
	}
}

// Outcome bundles everything finalisation needs to classify and report.
type Outcome struct {
	Status        Status
	ExitCode      int // the child's own exit code or 128+signal, before limit overrides
	ChildSignal   unix.Signal
	ChildSignaled bool
}

// Classify implements spec.md §4.9's precedence and §8's P7: USR1 (exec
// failure) beats out-of-memory, which beats out-of-time, which beats the
// child's own termination reason; and regardless of all of that, a
// breached time/real-time limit observed at finalisation forces
// OUT_OF_TIME (spec.md §4.9's "Tie-breaks").
func Classify(execFailed, outOfMemory, outOfTime bool, childStatus Status, maxTime, timeLimit, real, realTimeLimit float64) Status {
	status := childStatus
	switch {
	case execFailed:
		status = ExecFailed
	case outOfMemory:
		status = OutOfMemory
	case outOfTime:
		status = OutOfTime
	}

	if maxTime >= timeLimit || real >= realTimeLimit {
		return OutOfTime
	}
	return status
}
