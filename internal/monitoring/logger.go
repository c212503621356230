// Package monitoring carries the process-wide logger and the frame
// performance instrumentation fed by the intake server.
package monitoring

import "log"

// Logf is the package-level diagnostic logger for server lifecycle and
// client events. It defaults to log.Printf but may be replaced by
// SetLogger; tests and embedding code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil sets a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
