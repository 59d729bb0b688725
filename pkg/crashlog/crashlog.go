// Package crashlog appends crash records for panics in pipeline goroutines.
// It is the process-wide safety net: a recovered panic cancels playback so
// the sink's deferred restore path runs, and leaves a record on disk for the
// report that follows the crash.
package crashlog

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"sync"
	"time"
)

var (
	mu   sync.Mutex
	path string
)

// Open sets the crash record destination and stamps a session header. An
// empty path disables crash records; panics still cancel playback.
func Open(p string) error {
	mu.Lock()
	defer mu.Unlock()
	path = p
	if p == "" {
		return nil
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("crashlog: %w", err)
	}
	defer f.Close()
	fmt.Fprintf(f, "=== termplay session %s ===\n", time.Now().Format(time.RFC3339))
	return nil
}

// Append writes one crash record.
func Append(component string, value any, stack []byte) {
	mu.Lock()
	defer mu.Unlock()
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "\nPANIC in %s at %s:\n%v\n%s\n", component, time.Now().Format(time.RFC3339Nano), value, stack)
}

// Recover is meant to be deferred at the top of a pipeline goroutine. On
// panic it cancels playback, records the crash and stores the panic value in
// *recovered when non-nil. The panic is swallowed; callers that must
// propagate it re-panic on the stored value.
func Recover(cancel context.CancelFunc, component string, recovered *any) {
	v := recover()
	if v == nil {
		return
	}
	if cancel != nil {
		cancel()
	}
	Append(component, v, debug.Stack())
	if recovered != nil {
		*recovered = v
	}
}
