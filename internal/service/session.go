package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carepal-health/carepal/internal/domain"
)

// DefaultSessionTTL bounds how long an idle session stays valid.
const DefaultSessionTTL = 12 * time.Hour

// ChatMessage is one turn of a session's conversation.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Intent    string    `json:"intent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the view handed to handlers.
type Session struct {
	Token     string           `json:"token"`
	Customer  *domain.Customer `json:"customer"`
	CreatedAt time.Time        `json:"created_at"`
}

type sessionState struct {
	session    Session
	history    []ChatMessage
	lastIntent string
	lastSeen   time.Time
}

// SessionStore keeps sessions and their chat history in memory, keyed by an
// opaque token. Conversations do not survive a restart; the record data they
// answer from reloads anyway.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		sessions: make(map[string]*sessionState),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create opens a session for an authenticated customer.
func (s *SessionStore) Create(customer *domain.Customer) Session {
	now := s.now()
	session := Session{
		Token:     uuid.NewString(),
		Customer:  customer,
		CreatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = &sessionState{session: session, lastSeen: now}
	return session
}

// Get returns the session for a token, refreshing its idle timer. Expired
// sessions are dropped on access.
func (s *SessionStore) Get(token string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[token]
	if !ok {
		return Session{}, domain.ErrSessionNotFound
	}
	if s.now().Sub(state.lastSeen) > s.ttl {
		delete(s.sessions, token)
		return Session{}, domain.ErrSessionNotFound
	}
	state.lastSeen = s.now()
	return state.session, nil
}

// Delete ends a session. Unknown tokens are a no-op.
func (s *SessionStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// AppendMessage records one conversation turn.
func (s *SessionStore) AppendMessage(token string, msg ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[token]
	if !ok {
		return domain.ErrSessionNotFound
	}
	state.history = append(state.history, msg)
	if msg.Intent != "" {
		state.lastIntent = msg.Intent
	}
	return nil
}

// History returns a copy of the session's conversation so far.
func (s *SessionStore) History(token string) ([]ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.sessions[token]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	out := make([]ChatMessage, len(state.history))
	copy(out, state.history)
	return out, nil
}

// LastIntent returns the most recently answered intent, used to seed
// contextual recommendations. Empty before the first in-scope answer.
func (s *SessionStore) LastIntent(token string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if state, ok := s.sessions[token]; ok {
		return state.lastIntent
	}
	return ""
}
