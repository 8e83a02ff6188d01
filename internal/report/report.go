// Package report implements the line-oriented "[runlim] tag:\tvalue"
// protocol spec.md §6 requires, grounded on runlim.c's message()/debug()/
// warning()/error() helpers. It is deliberately independent of log/slog:
// slog's structured record format cannot reproduce this exact historical
// line shape, and spec.md treats the protocol as a wire format other
// tooling greps for, not a free-form diagnostic stream.
package report

import (
	"fmt"
	"io"
	"sync"
)

// Sink writes the tagged report protocol to an underlying writer.
type Sink struct {
	mu     sync.Mutex
	w      io.Writer
	debug  bool
	closer io.Closer
}

// New wraps w as a report Sink. If w also implements io.Closer, Close
// will close it; pass debug to enable Debugf lines.
func New(w io.Writer, debug bool) *Sink {
	s := &Sink{w: w, debug: debug}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Message writes one "[runlim] tag:\tvalue" line, padding the tag field
// to runlim.c's fixed tab-stop width so values line up in a terminal.
func (s *Sink) Message(tag, format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "[runlim] %s:%s%s\n", tag, tabsFor(tag), fmt.Sprintf(format, args...))
}

// Warning writes a "runlim warning: ..." line, matching runlim.c's
// warning() helper. No code path in this module calls it; the /proc
// remount path in internal/procfs writes no warning.
func (s *Sink) Warning(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "runlim warning: %s\n", fmt.Sprintf(format, args...))
}

// Debugf writes a "[runlim] <type>:\t<text>" line only when debug mode is
// enabled, matching runlim.c's debug() macro's no-op-unless-enabled
// behaviour.
func (s *Sink) Debugf(typ, format string, args ...any) {
	if !s.debug {
		return
	}
	s.Message(typ, format, args...)
}

// Close closes the underlying writer if it is closeable (an output file
// opened via -o/--output-file); writing to stderr is a no-op here.
func (s *Sink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// tabsFor reproduces runlim.c's message() tab padding: one tab per 8
// characters up to a 14-character field, plus a trailing separator tab.
func tabsFor(tag string) string {
	tabs := "\t"
	for n := len(tag); n < 14; n += 8 {
		tabs += "\t"
	}
	return tabs
}
