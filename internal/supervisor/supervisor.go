//go:build linux

package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/runlim/runlim-go/internal/buildinfo"
	"github.com/runlim/runlim-go/internal/enforcer"
	"github.com/runlim/runlim-go/internal/procfs"
	"github.com/runlim/runlim-go/internal/registry"
	"github.com/runlim/runlim-go/internal/report"
	"github.com/runlim/runlim-go/internal/sampler"
)

// Options bundles the command-line-derived configuration spec.md §6
// names, bound by internal/cli into this struct before Run is called.
type Options struct {
	Argv []string // program and its arguments, after "--"

	TimeLimit     float64 // seconds; math.Inf(1) means "no limit"
	RealTimeLimit float64 // seconds
	SpaceLimit    float64 // MB

	SampleRate time.Duration // default 100ms
	ReportRate int           // default 100
	KillDelay  time.Duration // default 512ms

	Single    bool // trust no grandchildren; read only the root child's stat
	Kill      bool // re-raise the termination signal to propagate it
	Propagate bool // exit with the child's own exit code on OK
}

// Run implements C9: fork+exec the program, install C10, sample and
// enforce until the child is reaped, classify, and emit the final
// report record. It returns the process exit code spec.md §6 defines.
func Run(opts Options, sink *report.Sink) int {
	ownPID, ownPGID, ownSID := procfs.OwnIdentity()

	sink.Message("version", "%s", buildinfo.Version())
	sink.Message("host", "%s", hostname())
	sink.Message("time limit", "%.0f seconds", opts.TimeLimit)
	sink.Message("real time limit", "%.0f seconds", opts.RealTimeLimit)
	sink.Message("space limit", "%.0f MB", opts.SpaceLimit)
	for i, a := range opts.Argv {
		sink.Message(fmt.Sprintf("argv[%d]", i), "%s", a)
	}

	if len(opts.Argv) == 0 {
		sink.Message("status", "%s", InternalError.Description())
		sink.Message("result", "%d", InternalError.ExitCode())
		return InternalError.ExitCode()
	}

	start := time.Now()
	sink.Message("start", "%s", start.Format(time.RFC1123))

	cmd := exec.Command(opts.Argv[0], opts.Argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		// os/exec reports a failed execve back across an internal pipe
		// before Start returns, synchronously — the Go-idiomatic
		// equivalent of the child signalling USR1 to the parent in
		// runlim.c, with no separate handler to install.
		sink.Debugf("exec", "%v", err)
		sink.Message("status", "%s", ExecFailed.Description())
		sink.Message("result", "%d", ExecFailed.ExitCode())
		return ExecFailed.ExitCode()
	}

	childPID := cmd.Process.Pid
	sink.Message("child", "%d", childPID)
	sink.Debugf("cwd", "%s", cwd())

	filter := procfs.Filter{
		OwnPID:    ownPID,
		ChildPID:  childPID,
		GroupPID:  ownPGID,
		SessionID: ownSID,
	}

	reg := registry.New()
	enf := enforcer.New(reg, filter, opts.Single)
	enf.KillDelay = opts.KillDelay

	limits := sampler.Limits{
		TimeSec:     opts.TimeLimit,
		RealTimeSec: opts.RealTimeLimit,
		SpaceMB:     opts.SpaceLimit,
	}
	smp := sampler.New(reg, filter, opts.Single, limits, sink, enf, start)
	smp.ReportRate = opts.ReportRate

	stopSampler := smp.Run(opts.SampleRate)
	mediator := NewSignalMediator(smp)

	// unix.Wait4, not cmd.Wait, so finalisation gets an authoritative
	// Rusage the child's own accounting never had access to (restored from
	// original_source/run.c's rusage-on-wait behaviour; spec.md §4.9's
	// "await child" primitive, made concrete).
	var waitStatus unix.WaitStatus
	var rusage unix.Rusage
	_, waitErr := unix.Wait4(childPID, &waitStatus, 0, &rusage)

	stopSampler()
	mediator.Stop()

	snap := smp.Latches.Snapshot()
	caughtSig, caughtExternal := mediator.Caught()

	var childSignaled bool
	var childSignal unix.Signal
	var childExitCode int
	if waitErr == nil {
		if waitStatus.Signaled() {
			childSignaled = true
			childSignal = waitStatus.Signal()
		} else {
			childExitCode = waitStatus.ExitStatus()
		}
	}

	childStatus := OK
	if childSignaled {
		childStatus = ClassifySignal(childSignal)
	} else if caughtExternal {
		childStatus = OtherSignal
	}

	status := Classify(false, snap.OutOfMemory, snap.OutOfTime, childStatus,
		reg.MaxTime, opts.TimeLimit, time.Since(start).Seconds(), opts.RealTimeLimit)

	reportedResult := status.ExitCode()
	if status == OK {
		reportedResult = childExitCode
	}

	sink.Message("end", "%s", time.Now().Format(time.RFC1123))
	sink.Message("status", "%s", status.Description())
	sink.Message("result", "%d", reportedResult)
	sink.Message("children", "%d", reg.NewChildren)
	sink.Message("processes", "%d", reg.Processes)
	sink.Message("real", "%.2f seconds", time.Since(start).Seconds())
	sink.Message("time", "%.2f seconds", reg.MaxTime)
	sink.Message("space", "%.1f MB", reg.MaxMemory)
	sink.Message("load", "%.2f", reg.MaxLoad)
	sink.Message("samples", "%d", reg.NumSamples())
	sink.Debugf("final rusage", "utime=%d.%06ds stime=%d.%06ds maxrss=%dKB",
		rusage.Utime.Sec, rusage.Utime.Usec, rusage.Stime.Sec, rusage.Stime.Usec, rusage.Maxrss)
	if caughtExternal {
		sink.Debugf("caught signal", "%v", caughtSig)
	}

	exitCode := status.ExitCode()
	if opts.Propagate && status == OK {
		exitCode = childExitCode
	}

	if opts.Kill && childSignaled {
		// -k/--kill: propagate the child's termination signal by
		// re-raising it against ourselves. mediator.Stop has already
		// deregistered our handler for it, so default disposition
		// applies and this process dies the same way the child did.
		sink.Close()
		_ = unix.Kill(unix.Getpid(), childSignal)
		time.Sleep(50 * time.Millisecond)
	}
	return exitCode
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}

func cwd() string {
	d, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return d
}
