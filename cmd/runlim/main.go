//go:build linux

// Command runlim runs a program under CPU-time, wall-clock, and memory
// limits, sampling its entire descendant tree and reporting a structured
// log of resource usage.
package main

import (
	"os"

	"github.com/runlim/runlim-go/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
