package engine

import (
	"path/filepath"
	"sync"
)

// pathLocks serializes operations per normalized file path. The engine
// does not support concurrent in-flight operations against the same
// live file; callers on different paths proceed independently.
//
// The registry is owned by the engine instance, constructed once at
// startup, never ambient global state.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for path and returns an unlock function.
func (p *pathLocks) acquire(path string) func() {
	key := normalizePath(path)

	p.mu.Lock()
	l, ok := p.locks[key]
	if !ok {
		l = &sync.Mutex{}
		p.locks[key] = l
	}
	p.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// normalizePath maps equivalent spellings of a path to one lock key.
func normalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
