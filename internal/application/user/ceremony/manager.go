// Package ceremony runs the WebAuthn registration and authentication
// ceremonies on top of the challenge store and the passkey repository.
package ceremony

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/blink-inc/blink/internal/domain/identity"
	"github.com/blink-inc/blink/internal/domain/passkey"
	"github.com/blink-inc/blink/internal/infrastructure/auth"
	"github.com/blink-inc/blink/internal/infrastructure/metrics"
	"github.com/blink-inc/blink/internal/shared/biztime"
	"github.com/blink-inc/blink/internal/shared/logger"
)

// maxPutAttempts bounds retries when the store reports a live ceremony id.
const maxPutAttempts = 3

// Verifier is the WebAuthn protocol engine. *auth.WebAuthnService implements it.
type Verifier interface {
	BeginRegistration(user webauthn.User, exclude []protocol.CredentialDescriptor) (*protocol.CredentialCreation, *webauthn.SessionData, error)
	FinishRegistration(user webauthn.User, session webauthn.SessionData, response *protocol.ParsedCredentialCreationData) (*webauthn.Credential, error)
	BeginDiscoverableLogin() (*protocol.CredentialAssertion, *webauthn.SessionData, error)
	FinishLogin(user webauthn.User, session webauthn.SessionData, response *protocol.ParsedCredentialAssertionData) (*webauthn.Credential, error)
}

// TokenIssuer signs session tokens. *auth.SessionIssuer implements it.
type TokenIssuer interface {
	Issue(subject string, scopes []string) (*auth.IssuedToken, error)
}

// Manager coordinates both ceremonies. It holds no per-ceremony state; all of
// it lives in the challenge store.
type Manager struct {
	verifier   Verifier
	challenges passkey.ChallengeStore
	passkeys   passkey.Repository
	identities identity.Repository
	catalog    passkey.AuthenticatorCatalog
	tokens     TokenIssuer
	logger     logger.Interface
	now        biztime.Clock
	newSID     func() (string, error)
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithClock sets the time recorded as last use and last login.
func WithClock(now biztime.Clock) ManagerOption {
	return func(m *Manager) { m.now = now.OrDefault() }
}

// WithSIDGenerator replaces the external passkey id generator.
func WithSIDGenerator(gen func() (string, error)) ManagerOption {
	return func(m *Manager) { m.newSID = gen }
}

func NewManager(
	verifier Verifier,
	challenges passkey.ChallengeStore,
	passkeys passkey.Repository,
	identities identity.Repository,
	catalog passkey.AuthenticatorCatalog,
	tokens TokenIssuer,
	logger logger.Interface,
	opts ...ManagerOption,
) *Manager {
	m := &Manager{
		verifier:   verifier,
		challenges: challenges,
		passkeys:   passkeys,
		identities: identities,
		catalog:    catalog,
		tokens:     tokens,
		logger:     logger.Named("ceremony"),
		now:        biztime.NowUTC,
		newSID:     defaultSIDGenerator,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// putSession stores the encoded session under a fresh ceremony id, retrying
// id collisions internally.
func (m *Manager) putSession(ctx context.Context, k kind, session *webauthn.SessionData) (string, error) {
	secret, err := encodeSession(k, session)
	if err != nil {
		return "", err
	}

	for attempt := 1; attempt <= maxPutAttempts; attempt++ {
		ceremonyID, err := m.challenges.Put(ctx, secret)
		if err == nil {
			return ceremonyID, nil
		}
		if !errors.Is(err, passkey.ErrDuplicateCeremonyID) {
			m.logger.Errorw("failed to store ceremony challenge", "ceremony", k, "error", err)
			return "", fmt.Errorf("%w: %v", passkey.ErrCeremonyUnavailable, err)
		}
		m.logger.Warnw("ceremony id collision, retrying", "ceremony", k, "attempt", attempt)
	}
	return "", fmt.Errorf("%w: no free ceremony id after %d attempts", passkey.ErrCeremonyUnavailable, maxPutAttempts)
}

// takeSession consumes the ceremony. From here on the id is gone whatever
// the outcome of verification.
func (m *Manager) takeSession(ctx context.Context, k kind, ceremonyID string) (*webauthn.SessionData, error) {
	if ceremonyID == "" {
		return nil, passkey.ErrCeremonyNotFound
	}

	secret, err := m.challenges.TakeAndDelete(ctx, ceremonyID)
	if err != nil {
		if errors.Is(err, passkey.ErrChallengeNotFound) {
			return nil, passkey.ErrCeremonyNotFound
		}
		m.logger.Errorw("failed to take ceremony challenge", "ceremony", k, "error", err)
		return nil, fmt.Errorf("%w: %v", passkey.ErrCeremonyUnavailable, err)
	}

	session, err := decodeSession(k, secret)
	if err != nil {
		m.logger.Warnw("discarding unusable ceremony session", "ceremony", k, "error", err)
		return nil, passkey.ErrCeremonyNotFound
	}
	return session, nil
}

// outcome names the metric label for a ceremony result.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, passkey.ErrCeremonyNotFound):
		return "ceremony_not_found"
	case errors.Is(err, passkey.ErrAttestationInvalid):
		return "attestation_invalid"
	case errors.Is(err, passkey.ErrAssertionInvalid):
		return "assertion_invalid"
	case errors.Is(err, passkey.ErrPossibleCloneOrReplay):
		return "possible_clone"
	case errors.Is(err, passkey.ErrCredentialNotFound):
		return "credential_not_found"
	case errors.Is(err, passkey.ErrUnknownAuthenticator):
		return "unknown_authenticator"
	case errors.Is(err, passkey.ErrCredentialAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, passkey.ErrCeremonyUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
