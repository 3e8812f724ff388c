package log

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type tracerKey struct{}

// Tracer collects trace lines for a single request/run and flushes them
// together, so a busy discovery run doesn't interleave its per-query trace
// output with every other goroutine's.
type Tracer struct {
	mu    sync.Mutex
	lines []string
}

// AddTracer attaches a Tracer to ctx when trace logging is enabled. The
// returned Tracer is nil (and Tracef is then a no-op) when the global
// level is above TraceLevel, so callers never pay for formatting trace
// strings that would be discarded anyway.
func AddTracer(ctx context.Context) (context.Context, *Tracer) {
	if Severity(level.Load()) > TraceLevel {
		return ctx, nil
	}
	t := &Tracer{}
	return context.WithValue(ctx, tracerKey{}, t), t
}

// Tracer returns the Tracer previously attached to ctx, or nil. Tracef is
// nil-safe, so callers can write log.Tracer(ctx).Tracef(...) unconditionally.
func Tracer(ctx context.Context) *Tracer {
	t, _ := ctx.Value(tracerKey{}).(*Tracer)
	return t
}

// Tracef appends a trace line. Safe to call on a nil Tracer.
func (t *Tracer) Tracef(format string, args ...interface{}) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, sprintfTimestamped(format, args...))
}

// Submit flushes all collected lines to the global logger at Debug level
// and clears the buffer.
func (t *Tracer) Submit() {
	if t == nil {
		return
	}
	t.mu.Lock()
	lines := t.lines
	t.lines = nil
	t.mu.Unlock()

	for _, line := range lines {
		write(DebugLevel, "%s", line)
	}
}

func sprintfTimestamped(format string, args ...interface{}) string {
	return time.Now().Format("15:04:05.000") + " " + fmt.Sprintf(format, args...)
}
