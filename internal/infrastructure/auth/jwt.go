package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/blink-inc/blink/internal/infrastructure/metrics"
	"github.com/blink-inc/blink/internal/shared/config"
)

// ErrInvalidToken is returned for every session token that fails validation.
var ErrInvalidToken = errors.New("invalid session token")

// SessionClaims is the validated content of a session token.
type SessionClaims struct {
	Subject   string
	Scopes    []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IssuedToken is a freshly signed session token.
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionIssuer signs and validates HS256 session tokens.
type SessionIssuer struct {
	secret   []byte
	issuer   string
	lifetime time.Duration
	audience []string
	now      func() time.Time
}

// SessionIssuerOption customizes a SessionIssuer.
type SessionIssuerOption func(*SessionIssuer)

// WithClock replaces the time source for both issuance and validation.
func WithClock(now func() time.Time) SessionIssuerOption {
	return func(s *SessionIssuer) { s.now = now }
}

func NewSessionIssuer(cfg config.JWTConfig, opts ...SessionIssuerOption) (*SessionIssuer, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("session issuer is required")
	}
	if cfg.ExpDays <= 0 {
		return nil, fmt.Errorf("session lifetime must be positive")
	}
	if len(cfg.Audience) == 0 {
		return nil, fmt.Errorf("accepted audience must not be empty")
	}

	s := &SessionIssuer{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		lifetime: cfg.Expiration(),
		audience: slices.Clone(cfg.Audience),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for subject carrying scopes as its audience.
func (s *SessionIssuer) Issue(subject string, scopes []string) (*IssuedToken, error) {
	if subject == "" {
		return nil, fmt.Errorf("subject is required")
	}
	if len(scopes) == 0 {
		return nil, fmt.Errorf("at least one scope is required")
	}

	now := s.now().UTC().Truncate(time.Second)
	exp := now.Add(s.lifetime)

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Audience:  jwt.ClaimStrings(slices.Clone(scopes)),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	metrics.RecordTokenIssued()
	return &IssuedToken{Token: signed, ExpiresAt: exp}, nil
}

// Validate verifies signature, algorithm and every required claim. All
// failures wrap ErrInvalidToken.
func (s *SessionIssuer) Validate(raw string) (*SessionClaims, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)

	var claims jwt.RegisteredClaims
	if _, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	switch {
	case claims.Subject == "":
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	case len(claims.Audience) == 0:
		return nil, fmt.Errorf("%w: missing aud", ErrInvalidToken)
	case claims.Issuer != s.issuer:
		return nil, fmt.Errorf("%w: unexpected iss", ErrInvalidToken)
	case claims.IssuedAt == nil:
		return nil, fmt.Errorf("%w: missing iat", ErrInvalidToken)
	case claims.ExpiresAt == nil:
		return nil, fmt.Errorf("%w: missing exp", ErrInvalidToken)
	}

	if !slices.ContainsFunc(claims.Audience, func(scope string) bool {
		return slices.Contains(s.audience, scope)
	}) {
		return nil, fmt.Errorf("%w: audience not accepted", ErrInvalidToken)
	}

	return &SessionClaims{
		Subject:   claims.Subject,
		Scopes:    []string(claims.Audience),
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
