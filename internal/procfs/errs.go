package procfs

import "errors"

var (
	// ErrNoStat indicates /proc/<pid>/stat could not be parsed (missing
	// fields, unexpected comm delimiter, or a non-numeric required field).
	ErrNoStat = errors.New("procfs: malformed or empty stat record")

	// ErrPidMismatch indicates the declared pid field did not match the
	// pid requested, which the kernel should never produce but which C1
	// is specified to filter defensively.
	ErrPidMismatch = errors.New("procfs: declared pid does not match requested pid")

	// ErrGroupFiltered indicates the record's process-group/session did
	// not belong to the supervised tree and was filtered per spec.
	ErrGroupFiltered = errors.New("procfs: process group not part of supervised tree")

	// ErrProcUnavailable indicates the /proc root itself could not be
	// opened, even after a remount attempt.
	ErrProcUnavailable = errors.New("procfs: /proc unavailable")

	// ErrNoLoadAvg indicates /proc/loadavg could not be parsed.
	ErrNoLoadAvg = errors.New("procfs: malformed /proc/loadavg")
)
