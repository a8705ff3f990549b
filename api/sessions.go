package api

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meikuraledutech/routine"
)

var errTooManySessions = errors.New("too many open editing sessions")

// session is one routine being edited. The editor itself is
// single-threaded, so every request holds mu while it touches it.
type session struct {
	mu      sync.Mutex
	editor  *routine.Editor
	touched time.Time
}

// sessions is the registry of open editing sessions.
type sessions struct {
	mu   sync.Mutex
	open map[string]*session
	max  int
	ttl  time.Duration
	now  func() time.Time
}

func newSessions(max int, ttl time.Duration) *sessions {
	return &sessions{
		open: make(map[string]*session),
		max:  max,
		ttl:  ttl,
		now:  time.Now,
	}
}

// add registers an editor and returns its session id. Idle sessions are
// evicted first; unsaved edits in them are lost.
func (s *sessions) add(ed *routine.Editor) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, sess := range s.open {
		if now.Sub(sess.touched) > s.ttl {
			delete(s.open, id)
		}
	}
	if len(s.open) >= s.max {
		return "", errTooManySessions
	}
	id := uuid.NewString()
	s.open[id] = &session{editor: ed, touched: now}
	return id, nil
}

// get returns the session and marks it used, or nil.
func (s *sessions) get(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.open[id]
	if !ok {
		return nil
	}
	sess.touched = s.now()
	return sess
}

// remove closes a session. It reports whether the session existed.
func (s *sessions) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.open[id]
	delete(s.open, id)
	return ok
}

func (s *sessions) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.open)
}
