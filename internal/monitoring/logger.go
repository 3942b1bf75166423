// Package monitoring holds the diagnostic logger shared by the tray packages.
package monitoring

import (
	"log"
	"sync"
)

var mu sync.RWMutex

// Logf is the package-level diagnostic logger. It defaults to log.Printf.
// Replace it through SetLogger rather than by assignment so that component
// loggers pick the change up safely.
var Logf func(format string, v ...interface{}) = func(format string, v ...interface{}) {
	mu.RLock()
	f := current
	mu.RUnlock()
	f(format, v...)
}

var current func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the destination of Logf. Passing nil mutes it.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		f = func(string, ...interface{}) {}
	}
	mu.Lock()
	current = f
	mu.Unlock()
}

// Mute silences logging until the returned restore func is called. Intended
// for tests.
func Mute() (restore func()) {
	mu.Lock()
	prev := current
	current = func(string, ...interface{}) {}
	mu.Unlock()
	return func() { SetLogger(prev) }
}

// Component returns a logger that prefixes each line with "[name] ".
func Component(name string) func(format string, v ...interface{}) {
	prefix := "[" + name + "] "
	return func(format string, v ...interface{}) {
		Logf(prefix+format, v...)
	}
}
