package sidecar

import "sync"

// Process is the owned handle of the running backend.
type Process interface {
	PID() int
	Kill() error
}

// Registry holds the single backend process for the life of the host.
//
// The zero value is an empty registry. Install fills it once after a
// successful spawn; Take empties it and hands the process to whoever will
// kill it. The mutex keeps a shutdown from observing a half-installed slot.
type Registry struct {
	mu   sync.Mutex
	proc Process
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Install stores p. It fails with ErrAlreadyInstalled if a process is
// already tracked.
func (r *Registry) Install(p Process) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.proc != nil {
		return ErrAlreadyInstalled
	}
	r.proc = p
	return nil
}

// Take removes and returns the tracked process. Later calls return false.
func (r *Registry) Take() (Process, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.proc
	r.proc = nil
	return p, p != nil
}

// Occupied reports whether a process is tracked.
func (r *Registry) Occupied() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.proc != nil
}
