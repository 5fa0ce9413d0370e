package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the subset of the platform access token the console reads.
// Claims are trusted only after the session verified the token.
type SessionClaims struct {
	UserID   int        `json:"id"`
	Name     string     `json:"nome,omitempty"`
	Email    string     `json:"email,omitempty"`
	Role     UserRole   `json:"role,omitempty"`
	Roles    []UserRole `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// HasRole reports whether any of the token roles matches one of allowed.
func (c *SessionClaims) HasRole(allowed ...UserRole) bool {
	if c == nil {
		return false
	}
	for _, want := range allowed {
		if c.Role == want {
			return true
		}
		for _, role := range c.Roles {
			if role == want {
				return true
			}
		}
	}
	return false
}

// SessionInfo is the public view of the active operator session.
type SessionInfo struct {
	Active    bool       `json:"active"`
	UserID    int        `json:"userId,omitempty"`
	Name      string     `json:"nome,omitempty"`
	Email     string     `json:"email,omitempty"`
	Roles     []UserRole `json:"roles,omitempty"`
	ExpiresAt *int64     `json:"expiresAt,omitempty"`
}
