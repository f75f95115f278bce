// Package sessions issues and resolves the bearer tokens that scope every
// progress operation to an account. Tokens are opaque, held in memory, and
// expire after a fixed TTL; restarting the server invalidates them, which
// simply forces a fresh login.
package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	ErrTokenRequired = errors.New("session token is required")
	ErrTokenInvalid  = errors.New("session token is invalid or expired")
)

// DefaultTTL is how long an issued token stays valid without renewal.
const DefaultTTL = 30 * 24 * time.Hour

type session struct {
	userID    string
	expiresAt time.Time
}

// Service tracks active bearer sessions.
type Service struct {
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]session
}

// NewService creates a session registry with the default TTL.
func NewService() *Service {
	return NewServiceWithTTL(DefaultTTL)
}

// NewServiceWithTTL creates a session registry with a custom token
// lifetime. Non-positive values fall back to the default.
func NewServiceWithTTL(ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]session),
	}
}

// Issue creates a new token bound to the given user.
func (s *Service) Issue(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("user id is required")
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(buf)

	s.mu.Lock()
	s.sessions[token] = session{userID: userID, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()

	return token, nil
}

// Resolve returns the user id bound to a token. Absent or expired tokens are
// an authentication failure, reported with distinct sentinel errors so
// callers can separate "no credentials" from "bad credentials".
func (s *Service) Resolve(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrTokenRequired
	}

	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return "", ErrTokenInvalid
	}
	if s.now().After(sess.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return "", ErrTokenInvalid
	}

	return sess.userID, nil
}

// Revoke invalidates a token. Revoking an unknown token is not an error.
func (s *Service) Revoke(token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}

	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// RevokeUser invalidates every session held by the given user.
func (s *Service) RevokeUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, sess := range s.sessions {
		if sess.userID == userID {
			delete(s.sessions, token)
		}
	}
}

type contextKey struct{}

// WithUser stores the resolved account id on a request context.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserFrom returns the account id stored on the context, if any.
func UserFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	if !ok || strings.TrimSpace(id) == "" {
		return "", false
	}
	return id, true
}
