package chat

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nlopez/go-prodportal/internal/auth"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one live realtime connection bound to a principal. The
// principal is copied in at handshake time and never changes for the
// lifetime of the session.
type Session struct {
	Id          string
	Principal   auth.Principal
	ConnectedAt time.Time
	client      *Client
}

// Registry is the process-wide table of live sessions. Every entry
// corresponds to a transport connection believed to be open; entries are
// removed synchronously with disconnect detection.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	// order holds session ids in registration order so snapshots are
	// deterministic.
	order []string
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Register inserts a session keyed by its id. Registering an id that is
// already present is a defect in the id generation scheme and fails.
func (r *Registry) Register(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.Id]; ok {
		return fmt.Errorf("session %q already registered", s.Id)
	}

	r.sessions[s.Id] = s
	r.order = append(r.order, s.Id)
	return nil
}

// Deregister removes and returns the session, or ErrSessionNotFound if it
// is already absent. A duplicate disconnect signal is not an error beyond
// the sentinel.
func (r *Registry) Deregister(sessionId string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionId]
	if !ok {
		return nil, ErrSessionNotFound
	}

	delete(r.sessions, sessionId)
	for i, id := range r.order {
		if id == sessionId {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return s, nil
}

// Get returns the session for sessionId if it is registered.
func (r *Registry) Get(sessionId string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionId]
	return s, ok
}

// ListOthers returns a snapshot of all registered sessions except
// excludingId, in registration order.
func (r *Registry) ListOthers(excludingId string) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	others := make([]*Session, 0, len(r.order))
	for _, id := range r.order {
		if id == excludingId {
			continue
		}
		others = append(others, r.sessions[id])
	}

	return others
}

// Count returns the current live session count.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}
