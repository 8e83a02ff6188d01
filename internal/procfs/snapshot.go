//go:build linux

package procfs

import (
	"os"
	"strconv"
)

// Sink receives every successfully read ProcessSample during a snapshot.
// internal/registry.Registry implements this (its AddProcess method) so C2
// never needs to know about registry internals.
type Sink interface {
	AddProcess(sample ProcessSample)
}

// Snapshot enumerates /proc once, reading every numeric entry except the
// supervisor's own pid, and feeds each successfully parsed and
// non-filtered sample to sink. It returns the count of processes added,
// matching C2's read_all_processes.
func Snapshot(f Filter, sink Sink) (int, error) {
	dir, err := os.Open("/proc")
	if err != nil {
		if !RemountProc() {
			return 0, ErrProcUnavailable
		}
		dir, err = os.Open("/proc")
		if err != nil {
			return 0, ErrProcUnavailable
		}
	}
	defer dir.Close()

	names, err := dir.Readdirnames(-1)
	if err != nil {
		return 0, ErrProcUnavailable
	}

	added := 0
	for _, name := range names {
		pid, err := strconv.Atoi(name)
		if err != nil || pid <= 0 || pid == f.OwnPID {
			continue
		}
		sample, err := ReadStat(pid, f)
		if err != nil {
			continue // transient: pid exited between readdir and read, or filtered
		}
		sink.AddProcess(sample)
		added++
	}
	return added, nil
}

// SnapshotSingle reads only the root child's own record, trusted under
// --single when the caller asserts the child never forks descendants.
func SnapshotSingle(f Filter, sink Sink) (int, error) {
	sample, err := ReadStat(f.ChildPID, f)
	if err != nil {
		return 0, nil // silent skip: child may have exited this instant
	}
	sink.AddProcess(sample)
	return 1, nil
}
