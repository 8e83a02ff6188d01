//go:build linux

package procfs

import (
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// defaultClockTicks is the HZ value assumed when the kernel's configured
// clock tick rate cannot be determined, matching runlim's own HZ fallback.
const defaultClockTicks = 100

// ClockTicks returns the number of clock ticks per second used to convert
// utime/stime fields into seconds. Go exposes no portable binding for
// sysconf(_SC_CLK_TCK); CLK_TCK lets tests and unusual kernels override it,
// otherwise the near-universal default of 100 is assumed.
func ClockTicks() int {
	if v, err := strconv.Atoi(os.Getenv("CLK_TCK")); err == nil && v > 0 {
		return v
	}
	return defaultClockTicks
}

// PageSize returns the system memory page size in bytes.
func PageSize() int {
	if v, err := strconv.Atoi(os.Getenv("PAGE_SIZE")); err == nil && v > 0 {
		return v
	}
	return os.Getpagesize()
}

// PhysicalMemoryMB returns total physical memory in megabytes, used as the
// default space limit when the caller does not set one explicitly.
func PhysicalMemoryMB() (float64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, err
	}
	totalBytes := uint64(info.Totalram) * uint64(info.Unit)
	return float64(totalBytes) / (1 << 20), nil
}

// OwnIdentity reports the supervisor's own pid, process-group id and
// session id, used by C1's process-group filter.
func OwnIdentity() (pid, pgid, sid int) {
	pid = unix.Getpid()
	pgid, _ = unix.Getpgid(0)
	sid, _ = unix.Getsid(0)
	return
}
