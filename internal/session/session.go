// Package session holds the operator's bearer token for the platform API.
//
// The console runs on behalf of one operator at a time. A token is adopted
// only after a Verifier accepts it: either its HS256 signature checks out
// against the platform secret, or the platform itself answers an
// authenticated call made with it.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Alexseyf/elo-escola/internal/models"
)

// ErrTokenRejected is returned when a token fails verification.
var ErrTokenRejected = errors.New("token rejected")

// TokenProvider is what the resource client needs from a session.
type TokenProvider interface {
	Token() string
}

// Verifier checks a bearer token and returns the claims it carries. Opaque
// tokens verify with nil claims.
type Verifier interface {
	Verify(ctx context.Context, token string) (*models.SessionClaims, error)
}

// Session is the in-memory operator session.
type Session struct {
	verifier Verifier

	mu     sync.RWMutex
	token  string
	claims *models.SessionClaims
	now    func() time.Time
}

// New creates an empty session. Without a verifier every token is rejected.
func New(verifier Verifier) *Session {
	return &Session{verifier: verifier, now: time.Now}
}

// Token returns the current bearer token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Matches reports whether token is the active session token.
func (s *Session) Matches(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.token), []byte(token)) == 1
}

// SetToken verifies token and makes it the active session. It reports whether
// the active token changed. The current token is not verified again.
func (s *Session) SetToken(ctx context.Context, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, fmt.Errorf("%w: empty token", ErrTokenRejected)
	}
	if s.Matches(token) {
		return false, nil
	}
	if s.verifier == nil {
		return false, fmt.Errorf("%w: no verifier configured", ErrTokenRejected)
	}

	claims, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.token != token
	s.token = token
	s.claims = claims
	return changed, nil
}

// Claims returns a copy of the decoded claims, or nil.
func (s *Session) Claims() *models.SessionClaims {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil {
		return nil
	}
	clone := *s.claims
	clone.Roles = append([]models.UserRole(nil), s.claims.Roles...)
	return &clone
}

// Active reports whether a token is present and not past its exp claim.
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return false
	}
	if s.claims == nil || s.claims.ExpiresAt == nil {
		return true
	}
	return s.now().Before(s.claims.ExpiresAt.Time)
}

// Clear signs the operator out.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.claims = nil
}

// Info summarises the session for views.
func (s *Session) Info() models.SessionInfo {
	active := s.Active()
	claims := s.Claims()
	info := models.SessionInfo{Active: active}
	if claims == nil {
		return info
	}
	info.UserID = claims.UserID
	info.Name = claims.Name
	info.Email = claims.Email
	if claims.Role != "" {
		info.Roles = append(info.Roles, claims.Role)
	}
	info.Roles = append(info.Roles, claims.Roles...)
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Unix()
		info.ExpiresAt = &exp
	}
	return info
}
