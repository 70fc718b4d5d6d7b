package session

import (
	"sync"

	"github.com/remcons/remconsd/internal/locsrv"
)

// Registry is the process-wide index of live sessions. It is a plain
// value owned by the server, created at startup and torn down with it;
// nothing here is package-global.
//
// Lock order is always registry → session, never the reverse. The list
// is short (one entry per concurrent telnet connection), so lookups
// scan linearly.
type Registry struct {
	mu       sync.Mutex
	sessions []*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends s to the registry. A session is discoverable from the
// moment Add returns until Remove is called.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
}

// Remove takes s out of the registry. Removing a session that was
// never added is a no-op.
func (r *Registry) Remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cand := range r.sessions {
		if cand == s {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			return
		}
	}
}

// LookupAndAcquire finds the session registered under the given
// service id and takes a local-client reference on it. Zombies are
// refused before the reference is taken, so a zombie is never handed
// out and never sees a stray refcount bump. The caller must balance a
// successful lookup with Detach.
func (r *Registry) LookupAndAcquire(id locsrv.ServiceID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sessions {
		s.guard.Lock()
		if s.serviceID != id {
			s.guard.Unlock()
			continue
		}
		if s.state.Zombie() {
			s.guard.Unlock()
			return nil, ErrNotFound
		}
		s.attachLocked()
		s.guard.Unlock()
		return s, nil
	}
	return nil, ErrNotFound
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// List snapshots the registered sessions' public info.
func (r *Registry) List() []Info {
	r.mu.Lock()
	snapshot := make([]*Session, len(r.sessions))
	copy(snapshot, r.sessions)
	r.mu.Unlock()

	// Session locks are taken outside the registry lock to preserve
	// the registry → session order without holding both across calls.
	infos := make([]Info, 0, len(snapshot))
	for _, s := range snapshot {
		infos = append(infos, s.Info())
	}
	return infos
}

// Get returns the session with the given session id, without taking a
// reference. Admin surface only; data-path clients go through
// LookupAndAcquire.
func (r *Registry) Get(id int) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.id == id {
			return s, true
		}
	}
	return nil, false
}
