package engine

import (
	"log"
	"sync/atomic"
)

type logFunc func(format string, v ...interface{})

var logger atomic.Pointer[logFunc]

func init() {
	SetLogger(log.Printf)
}

// Logf writes a diagnostic line through the current engine logger. It
// defaults to log.Printf and may be replaced with SetLogger at any time.
func Logf(format string, v ...interface{}) {
	(*logger.Load())(format, v...)
}

// SetLogger replaces the engine logger. Passing nil mutes it.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		f = func(string, ...interface{}) {}
	}
	lf := logFunc(f)
	logger.Store(&lf)
}
