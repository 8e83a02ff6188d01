// Package cli builds the cobra command line spec.md §6 specifies,
// binding flags into local variables that build assembles into a
// supervisor.Options, with no config-file layer — the original tool is
// pure argv, and so is this one.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/runlim/runlim-go/internal/buildinfo"
	"github.com/runlim/runlim-go/internal/procfs"
	"github.com/runlim/runlim-go/internal/report"
	"github.com/runlim/runlim-go/internal/supervisor"
)

var longDescription = `runlim runs a program under a resource limit and reports its resource
usage. It samples the program's entire descendant process tree on an
interval, enforces limits on aggregate CPU time, wall-clock time, and
resident memory, and terminates the tree if a limit is exceeded.

Examples:
  runlim -t 10 -- myprogram arg1 arg2
  runlim -s 512 -o usage.log -- ./build.sh`

// Execute builds the root command, parses os.Args, and runs the
// supervisor, returning the process exit code.
func Execute() int {
	var (
		timeLimit     float64
		realTimeLimit float64
		spaceLimit    float64
		outputFile    string
		sampleRateUS  int64
		reportRate    int
		killDelayMS   int64
		kill          bool
		propagate     bool
		single        bool
		debug         bool
	)

	exitCode := 0

	root := &cobra.Command{
		Use:                   "runlim [flags] -- program [arg...]",
		Short:                 "Run a program under CPU/real-time/memory limits",
		Long:                  longDescription,
		Version:               buildinfo.Version(),
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
		Args:                  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, sink, err := build(args, timeLimit, realTimeLimit, spaceLimit, outputFile,
				sampleRateUS, reportRate, killDelayMS, kill, propagate, single, debug)
			if err != nil {
				return err
			}
			defer sink.Close()
			exitCode = supervisor.Run(opts, sink)
			return nil
		},
	}

	root.Flags().Float64VarP(&timeLimit, "time-limit", "t", math.Inf(1), "CPU-time limit in seconds")
	root.Flags().Float64VarP(&realTimeLimit, "real-time-limit", "r", -1, "wall-clock limit in seconds (default: time limit)")
	root.Flags().Float64VarP(&spaceLimit, "space-limit", "s", -1, "resident memory limit in MB (default: physical memory)")
	root.Flags().StringVarP(&outputFile, "output-file", "o", "", "redirect the report log to this file (default: stderr)")
	root.Flags().Int64Var(&sampleRateUS, "sample-rate", 100000, "sampler period in microseconds")
	root.Flags().IntVar(&reportRate, "report-rate", 100, "emit one sample line per N samples")
	root.Flags().Int64Var(&killDelayMS, "kill-delay", 512, "initial enforcement delay in milliseconds")
	root.Flags().BoolVarP(&kill, "kill", "k", false, "re-raise the termination signal to propagate it")
	root.Flags().BoolVarP(&propagate, "propagate", "p", false, "use the program's own exit code on normal exit")
	root.Flags().BoolVar(&single, "single", false, "assume no grandchildren; read only the root child's stat")
	root.Flags().BoolVarP(&debug, "debug", "d", false, "emit per-event debug lines")

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		return 1
	}
	return exitCode
}

// build resolves defaults that depend on other flags (-r defaults to -t,
// -s defaults to physical memory, per spec.md §6) and opens the report
// sink before handing control to the supervisor.
func build(args []string, timeLimit, realTimeLimit, spaceLimit float64, outputFile string,
	sampleRateUS int64, reportRate int, killDelayMS int64, kill, propagate, single, debug bool,
) (supervisor.Options, *report.Sink, error) {
	if realTimeLimit < 0 {
		realTimeLimit = timeLimit
	}
	if spaceLimit < 0 {
		mb, err := procfs.PhysicalMemoryMB()
		if err != nil {
			slog.Warn("physical memory detection failed, space limit disabled", "err", err)
			mb = math.Inf(1)
		}
		spaceLimit = mb
	}

	w, err := openOutput(outputFile)
	if err != nil {
		return supervisor.Options{}, nil, err
	}
	sink := report.New(w, debug)

	opts := supervisor.Options{
		Argv:          args,
		TimeLimit:     timeLimit,
		RealTimeLimit: realTimeLimit,
		SpaceLimit:    spaceLimit,
		SampleRate:    time.Duration(sampleRateUS) * time.Microsecond,
		ReportRate:    reportRate,
		KillDelay:     time.Duration(killDelayMS) * time.Millisecond,
		Single:        single,
		Kill:          kill,
		Propagate:     propagate,
	}
	return opts, sink, nil
}

// openOutput returns stderr itself when no -o/--output-file was given, and
// an opened file otherwise. report.Sink closes its writer if it is an
// io.Closer, so stderr is wrapped to prevent it being closed underneath
// the rest of the process on exit.
func openOutput(path string) (io.Writer, error) {
	if path == "" {
		return noCloseWriter{os.Stderr}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("opening output file %q: %w", path, err)
	}
	return f, nil
}

type noCloseWriter struct{ io.Writer }
