// Package procfs reads the per-pid status record and a handful of
// system-wide counters out of the kernel pseudo-filesystem mounted at
// /proc. It is the sole place in this module that talks to /proc
// directly; everything above it (internal/registry, internal/sampler)
// works with the ProcessSample values this package produces.
//
// Sample extraction follows "man 5 proc" for /proc/<pid>/stat: the
// second field (comm) is parenthesized and may itself contain spaces or
// closing parens, so it is skipped positionally rather than scanned as
// a token.
package procfs
