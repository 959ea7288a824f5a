// Package globals holds the process-wide, VM-scoped configuration: the
// classpath, trace verbosity, and a maximum frame depth (recorded here; the
// interpreter does not consult it, so frame depth is not bounded). It mirrors the
// teacher's own globals.go — a single struct constructed once at start-up
// and threaded implicitly through a package-level pointer, rather than
// passed as a context value, matching the convention every teacher test
// file opens with (globals.InitGlobals("test")).
package globals

import "time"

// Global carries process-wide VM configuration and bookkeeping.
type Global struct {
	Classpath     string
	StartTime     time.Time
	TraceVerbose  bool
	MaxFrameDepth int
}

const defaultMaxFrameDepth = 2048

var current *Global

// InitGlobals (re)initializes the package-level Global for a fresh
// execution. classpath is a separator-delimited list of directory or
// archive entries; the OS path-list separator is used (';' on Windows,
// ':' elsewhere), resolving spec.md §9's noted source ambiguity in favor
// of the OS-appropriate choice.
func InitGlobals(classpath string) *Global {
	current = &Global{
		Classpath:     classpath,
		StartTime:     time.Now(),
		MaxFrameDepth: defaultMaxFrameDepth,
	}
	return current
}

// GetGlobalRef returns the current Global, initializing an empty one if
// InitGlobals was never called.
func GetGlobalRef() *Global {
	if current == nil {
		return InitGlobals("")
	}
	return current
}

// SetTraceVerbose toggles whether trace.Trace emits anything.
func SetTraceVerbose(on bool) {
	GetGlobalRef().TraceVerbose = on
}
