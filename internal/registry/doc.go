// Package registry holds the per-pid Entry table (C3), rebuilds the
// parent/child tree from scratch every sample (C4), aggregates CPU time
// and memory across the descendant tree (C5), and folds the accounting
// of processes that disappear between samples into a monotone running
// total (C6).
//
// The registry is the only owner of Entry values; every other package
// holds non-owning references valid for the duration of a single sample.
// Tree links are never trusted across samples — pids get recycled, so
// C4 clears and rebuilds them on every call.
package registry
