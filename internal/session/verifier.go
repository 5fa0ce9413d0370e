package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Alexseyf/elo-escola/internal/client"
	"github.com/Alexseyf/elo-escola/internal/models"
)

// KeyVerifier checks HS256 access tokens against the platform signing secret.
type KeyVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewKeyVerifier builds a verifier for tokens signed with secret.
func NewKeyVerifier(secret string) *KeyVerifier {
	return &KeyVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Verify validates the signature and the time claims.
func (v *KeyVerifier) Verify(_ context.Context, token string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenRejected, err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrTokenRejected)
	}
	return claims, nil
}

// Confirmer asks the platform whether it accepts a token.
type Confirmer interface {
	Confirm(ctx context.Context, token string) error
}

// UpstreamVerifier accepts a token once the platform answers an authenticated
// call made with it. Claims are read from the token afterwards.
type UpstreamVerifier struct {
	confirmer Confirmer
	parser    *jwt.Parser
}

// NewUpstreamVerifier builds a verifier over confirmer.
func NewUpstreamVerifier(confirmer Confirmer) *UpstreamVerifier {
	return &UpstreamVerifier{confirmer: confirmer, parser: jwt.NewParser()}
}

// Verify rejects the token on any non-2xx answer. A transport failure is
// returned as is, since it says nothing about the token.
func (v *UpstreamVerifier) Verify(ctx context.Context, token string) (*models.SessionClaims, error) {
	if err := v.confirmer.Confirm(ctx, token); err != nil {
		var httpErr *client.HTTPError
		if errors.As(err, &httpErr) {
			return nil, fmt.Errorf("%w: platform answered %d", ErrTokenRejected, httpErr.Status)
		}
		return nil, fmt.Errorf("confirm token: %w", err)
	}

	claims := &models.SessionClaims{}
	if _, _, err := v.parser.ParseUnverified(token, claims); err != nil {
		if strings.Count(token, ".") == 2 {
			return nil, fmt.Errorf("%w: decode claims: %v", ErrTokenRejected, err)
		}
		return nil, nil
	}
	return claims, nil
}
