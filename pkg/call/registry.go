package call

import (
	"errors"
	"sync"
)

// ErrDuplicateSession is returned when a call sid is already registered.
var ErrDuplicateSession = errors.New("call: session already registered for call sid")

// Registry tracks live sessions by call sid.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers a session under its call sid.
func (r *Registry) Add(callSid string, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[callSid]; ok {
		return ErrDuplicateSession
	}
	r.sessions[callSid] = s
	return nil
}

// Remove deregisters the session for the call sid, if any.
func (r *Registry) Remove(callSid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, callSid)
}

// Get returns the session for the call sid, nil if absent.
func (r *Registry) Get(callSid string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[callSid]
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
