// Package log provides the small leveled logger used across this module.
//
// It mirrors the shape of the teacher's own ambient logger: a global
// severity gate plus Debugf/Infof/Warningf/Errorf, and a context-scoped
// tracer for binding a handful of trace lines to a single request instead
// of interleaving them with everything else on stderr.
package log

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

// Severity is a log level.
type Severity uint32

// Severity levels, lowest to highest.
const (
	TraceLevel Severity = iota
	DebugLevel
	InfoLevel
	WarningLevel
	ErrorLevel
)

func (s Severity) String() string {
	switch s {
	case TraceLevel:
		return "TRACE"
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarningLevel:
		return "WARNING"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

var level atomic.Uint32 // default zero value is TraceLevel

// SetLevel sets the global minimum severity that gets written out.
func SetLevel(s Severity) {
	level.Store(uint32(s))
}

// GetLevel returns the current global minimum severity.
func GetLevel() Severity {
	return Severity(level.Load())
}

func write(s Severity, format string, args ...interface{}) {
	if s < Severity(level.Load()) {
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s %s\n",
		time.Now().Format("2006-01-02T15:04:05.000"),
		s,
		fmt.Sprintf(format, args...),
	)
}

// Debugf logs a debug-level message.
func Debugf(format string, args ...interface{}) { write(DebugLevel, format, args...) }

// Infof logs an info-level message.
func Infof(format string, args ...interface{}) { write(InfoLevel, format, args...) }

// Warningf logs a warning-level message.
func Warningf(format string, args ...interface{}) { write(WarningLevel, format, args...) }

// Errorf logs an error-level message.
func Errorf(format string, args ...interface{}) { write(ErrorLevel, format, args...) }
