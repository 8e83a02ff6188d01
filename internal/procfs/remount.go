//go:build linux

package procfs

import (
	"os/exec"
)

// remountHelper is the external collaborator spec.md §1 and §4.1 describe:
// a one-shot attempt to remount /proc when it is unexpectedly unavailable
// (e.g. a container that lazily mounts it). runlim.c execs a sibling
// binary named "runlim-remount-proc"; this module shells out to the
// standard "mount" utility instead so no extra binary needs shipping.
var remountHelper = func() bool {
	cmd := exec.Command("mount", "-t", "proc", "proc", "/proc")
	return cmd.Run() == nil
}

// RemountProc makes one remount attempt and reports whether the mount
// command succeeded; it does not itself check that /proc can be opened
// afterward. Failure here is not itself fatal; the caller
// decides whether the resulting continued unavailability is fatal.
func RemountProc() bool {
	return remountHelper()
}
