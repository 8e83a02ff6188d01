//go:build linux

package procfs

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ProcessSample is what C1 extracts from one /proc/<pid>/stat record: the
// declared identifiers needed to rebuild the tree, and the two accounting
// values (aggregate CPU seconds, resident memory in MB) C5/C6 sum over the
// descendant tree.
type ProcessSample struct {
	PID      int
	PPID     int
	TimeSec  float64
	MemoryMB float64
}

// Filter carries the identifiers C1 needs to decide whether a pid belongs
// to the supervised tree: its own pid/pgid and the ancestor session id.
type Filter struct {
	OwnPID    int // the supervisor's own pid, excluded from enumeration
	ChildPID  int // the root child's pid
	GroupPID  int // the supervisor's process-group id at startup
	SessionID int // the supervisor's session id at startup
}

// ReadStat parses /proc/<pid>/stat for the requested pid and applies the
// C1 filters. A rejected or vanished process is reported via err; callers
// must treat every error from ReadStat as a silent skip for this sample,
// never as fatal (spec.md §7: transient I/O errors here are routine).
func ReadStat(pid int, f Filter) (ProcessSample, error) {
	path := fmt.Sprintf("/proc/%d/stat", pid)
	file, err := os.Open(path)
	if err != nil {
		return ProcessSample{}, err
	}
	defer file.Close()

	r := bufio.NewReader(file)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return ProcessSample{}, ErrNoStat
	}
	line = strings.TrimRight(line, "\n")

	// Field 2 (comm) is parenthesized and may contain spaces or ')';
	// split on the LAST ")" so an adversarial comm containing ") " of
	// its own cannot desynchronize the remaining positional fields.
	open := strings.IndexByte(line, '(')
	closeParen := strings.LastIndex(line, ")")
	if open < 0 || closeParen < 0 || closeParen < open {
		return ProcessSample{}, ErrNoStat
	}

	declaredPID, err := strconv.Atoi(strings.TrimSpace(line[:open]))
	if err != nil {
		return ProcessSample{}, ErrNoStat
	}
	if declaredPID != pid {
		return ProcessSample{}, ErrPidMismatch
	}

	rest := strings.Fields(line[closeParen+1:])
	// rest[0] = state (field 3 in "man 5 proc"), so rest[N] = field N+3.
	// rest[1] = ppid (4), rest[2] = pgrp (5), rest[3] = session (6),
	// ... rest[11] = utime (14), rest[12] = stime (15), ... rest[21] = rss (24).
	const (
		idxPPID    = 1
		idxPGRP    = 2
		idxSession = 3
		idxUtime   = 11
		idxStime   = 12
		idxRSS     = 21
	)
	if len(rest) <= idxRSS {
		return ProcessSample{}, ErrNoStat
	}

	ppid, err1 := strconv.Atoi(rest[idxPPID])
	pgrp, err2 := strconv.Atoi(rest[idxPGRP])
	session, err3 := strconv.Atoi(rest[idxSession])
	if err1 != nil || err2 != nil || err3 != nil || ppid < 0 {
		return ProcessSample{}, ErrNoStat
	}

	if pgrp != pid && pgrp != f.ChildPID && pgrp != f.GroupPID && session != f.SessionID {
		return ProcessSample{}, ErrGroupFiltered
	}

	utime, err1 := strconv.ParseUint(rest[idxUtime], 10, 64)
	stime, err2 := strconv.ParseUint(rest[idxStime], 10, 64)
	rss, err3 := strconv.ParseInt(rest[idxRSS], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil || rss < 0 {
		return ProcessSample{}, ErrNoStat
	}

	timeSec := float64(utime+stime) / float64(ClockTicks())
	memoryMB := float64(rss) * float64(PageSize()) / float64(1<<20)

	return ProcessSample{
		PID:      pid,
		PPID:     ppid,
		TimeSec:  timeSec,
		MemoryMB: memoryMB,
	}, nil
}

// ReadLoadAvg returns the 1-minute load average from /proc/loadavg.
func ReadLoadAvg() (float64, error) {
	b, err := os.ReadFile("/proc/loadavg")
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(b))
	if len(fields) < 1 {
		return 0, ErrNoLoadAvg
	}
	load, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, ErrNoLoadAvg
	}
	return load, nil
}
