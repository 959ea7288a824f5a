// Package trace is the interpreter's minimal print-based logger, gated by
// globals.Global.TraceVerbose. No third-party logging library appears
// anywhere in this codebase's lineage — every sibling JVM-in-Go project
// hand-rolls the same kind of gated stderr tracer — so this follows suit
// rather than reaching for one.
package trace

import (
	"fmt"
	"os"

	"corevm/globals"
)

// Trace writes msg to stderr only when verbose tracing is enabled.
func Trace(msg string) {
	if globals.GetGlobalRef().TraceVerbose {
		fmt.Fprintln(os.Stderr, "[trace] "+msg)
	}
}

// Tracef is the formatted counterpart to Trace.
func Tracef(format string, args ...any) {
	Trace(fmt.Sprintf(format, args...))
}

// Error always writes msg to stderr, regardless of verbosity.
func Error(msg string) {
	fmt.Fprintln(os.Stderr, "[error] "+msg)
}

// Errorf is the formatted counterpart to Error.
func Errorf(format string, args ...any) {
	Error(fmt.Sprintf(format, args...))
}
