package auth

import (
	"errors"
	"strings"

	"github.com/blink-inc/blink/internal/infrastructure/metrics"
	"github.com/blink-inc/blink/internal/shared/authorization"
)

// ErrUnauthenticated is the single error callers see for absent, malformed
// or invalid credentials.
var ErrUnauthenticated = errors.New("unauthenticated")

const bearerScheme = "Bearer"

// TokenValidator validates a raw session token.
type TokenValidator interface {
	Validate(raw string) (*SessionClaims, error)
}

// AuthorizationGate turns an Authorization header into a principal.
type AuthorizationGate struct {
	tokens TokenValidator
}

func NewAuthorizationGate(tokens TokenValidator) *AuthorizationGate {
	return &AuthorizationGate{tokens: tokens}
}

// Authorize accepts exactly "Bearer <token>" with a case-insensitive scheme.
func (g *AuthorizationGate) Authorize(rawHeader string) (*authorization.Principal, error) {
	token, ok := parseBearer(rawHeader)
	if !ok {
		metrics.RecordAuthorizationFailure("malformed_header")
		return nil, ErrUnauthenticated
	}

	claims, err := g.tokens.Validate(token)
	if err != nil {
		metrics.RecordAuthorizationFailure("invalid_token")
		return nil, ErrUnauthenticated
	}

	return &authorization.Principal{
		Subject: claims.Subject,
		Scopes:  claims.Scopes,
	}, nil
}

func parseBearer(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	if token == "" || strings.ContainsAny(token, " \t\r\n") {
		return "", false
	}
	return token, true
}
