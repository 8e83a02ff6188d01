// Package buildinfo supplies the version/host banner (an external
// collaborator per spec.md §1), restoring runlim.c's VERSION macro plus,
// per SPEC_FULL.md §7, a VCS revision the C macro could never carry.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// version is the static fallback used when build info is unavailable
// (e.g. `go run`, or a binary built without module mode).
const version = "1.0"

// Version returns the "version" report tag's value: the static version,
// plus a short VCS revision suffix when build metadata is present.
func Version() string {
	rev, dirty := vcsRevision()
	if rev == "" {
		return version
	}
	if dirty {
		return fmt.Sprintf("%s (%s, dirty)", version, rev)
	}
	return fmt.Sprintf("%s (%s)", version, rev)
}

func vcsRevision() (rev string, dirty bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}
	for _, kv := range info.Settings {
		switch kv.Key {
		case "vcs.revision":
			rev = kv.Value
			if len(rev) > 12 {
				rev = rev[:12]
			}
		case "vcs.modified":
			dirty = kv.Value == "true"
		}
	}
	return rev, dirty
}
