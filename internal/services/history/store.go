// Package history keeps bounded per-session conversation history in memory
package history

import (
	"context"
	"sort"
	"sync"

	"github.com/bobmcallan/vnstock-chat/internal/interfaces"
	"github.com/bobmcallan/vnstock-chat/internal/models"
)

// DefaultSessionID is used when a caller supplies none
const DefaultSessionID = "default"

// Store implements interfaces.HistoryStore. The map lock is held only long
// enough to find or create a session. Each session has a turn lock, held for a
// whole chat turn and acquired with the caller's context, and a short mutex
// guarding its messages.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
	max      int
}

type session struct {
	turn     chan struct{}
	mu       sync.Mutex
	messages []models.ChatMessage
}

func newSession() *session {
	return &session{turn: make(chan struct{}, 1)}
}

// NewStore creates a store keeping at most maxLength messages per session
func NewStore(maxLength int) *Store {
	if maxLength <= 0 {
		maxLength = 10
	}
	return &Store{
		sessions: make(map[string]*session),
		max:      maxLength,
	}
}

// MaxLength returns the per-session cap
func (s *Store) MaxLength() int {
	return s.max
}

func (s *Store) session(id string, create bool) *session {
	if id == "" {
		id = DefaultSessionID
	}

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok || !create {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.sessions[id]; !ok {
		sess = newSession()
		s.sessions[id] = sess
	}
	return sess
}

// WithSession runs fn holding the session's turn lock. It returns ctx.Err()
// without running fn when ctx ends while waiting for the lock.
func (s *Store) WithSession(ctx context.Context, sessionID string, fn func(h interfaces.SessionHistory)) error {
	sess := s.session(sessionID, true)
	select {
	case sess.turn <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-sess.turn }()

	fn(&view{sess: sess, max: s.max})
	return nil
}

// Append adds messages, evicting the oldest beyond the cap
func (s *Store) Append(sessionID string, msgs ...models.ChatMessage) {
	(&view{sess: s.session(sessionID, true), max: s.max}).Append(msgs...)
}

// Recent returns up to n of the newest messages, oldest first
func (s *Store) Recent(sessionID string, n int) []models.ChatMessage {
	sess := s.session(sessionID, false)
	if sess == nil {
		return []models.ChatMessage{}
	}
	return (&view{sess: sess, max: s.max}).Recent(n)
}

// Get returns a copy of the whole session history
func (s *Store) Get(sessionID string) []models.ChatMessage {
	sess := s.session(sessionID, false)
	if sess == nil {
		return []models.ChatMessage{}
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return append([]models.ChatMessage{}, sess.messages...)
}

// Clear empties a session's history and reports whether anything was removed.
// The session itself is kept so a turn in flight keeps writing to the same history.
func (s *Store) Clear(sessionID string) bool {
	sess := s.session(sessionID, false)
	if sess == nil {
		return false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	had := len(sess.messages) > 0
	sess.messages = nil
	return had
}

// Sessions lists known session ids, sorted
func (s *Store) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// view is handed to WithSession callbacks; it must not escape them.
type view struct {
	sess *session
	max  int
}

func (v *view) Recent(n int) []models.ChatMessage {
	v.sess.mu.Lock()
	defer v.sess.mu.Unlock()
	msgs := v.sess.messages
	if n >= 0 && n < len(msgs) {
		msgs = msgs[len(msgs)-n:]
	}
	return append([]models.ChatMessage{}, msgs...)
}

func (v *view) Append(msgs ...models.ChatMessage) {
	v.sess.mu.Lock()
	defer v.sess.mu.Unlock()
	v.sess.messages = append(v.sess.messages, msgs...)
	if over := len(v.sess.messages) - v.max; over > 0 {
		// copy so the evicted prefix can be collected
		v.sess.messages = append([]models.ChatMessage{}, v.sess.messages[over:]...)
	}
}

func (v *view) Len() int {
	v.sess.mu.Lock()
	defer v.sess.mu.Unlock()
	return len(v.sess.messages)
}

var _ interfaces.HistoryStore = (*Store)(nil)
