// sessions.go - Server-side session records keyed by opaque tokens.
package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

type session struct {
	accountID int64
	expiresAt time.Time
}

// SessionStore associates opaque random tokens with authenticated
// account ids. Sessions expire after a fixed TTL; there is no sliding
// refresh.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]session
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionStore{
		ttl:      ttl,
		sessions: make(map[string]session),
		now:      time.Now,
	}
}

// Create issues a new session bound to accountID and returns its token
// and expiry.
func (s *SessionStore) Create(accountID int64) (string, time.Time, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", time.Time{}, fmt.Errorf("generate session token: %w", err)
	}
	token := hex.EncodeToString(b)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	exp := s.now().Add(s.ttl)
	s.sessions[token] = session{accountID: accountID, expiresAt: exp}
	return token, exp, nil
}

// Lookup resolves a token to its account id. Expired sessions are
// dropped on sight.
func (s *SessionStore) Lookup(token string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return 0, false
	}
	if !s.now().Before(sess.expiresAt) {
		delete(s.sessions, token)
		return 0, false
	}
	return sess.accountID, true
}

// Invalidate removes the session for token, if any.
func (s *SessionStore) Invalidate(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// sweepLocked drops expired sessions. Called with the lock held from
// Create, which bounds the map to live sessions plus whatever expired
// since the last login.
func (s *SessionStore) sweepLocked() {
	now := s.now()
	for tok, sess := range s.sessions {
		if !now.Before(sess.expiresAt) {
			delete(s.sessions, tok)
		}
	}
}
