package auth

import (
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/blink-inc/blink/internal/shared/config"
)

const defaultCeremonyTimeout = 5 * time.Minute

// WebAuthnService wraps the protocol engine configured for one relying party.
type WebAuthnService struct {
	webAuthn *webauthn.WebAuthn
}

func NewWebAuthnService(cfg config.WebAuthnConfig) (*WebAuthnService, error) {
	if !cfg.IsConfigured() {
		return nil, fmt.Errorf("WebAuthn is not configured: rp_id, rp_name, and rp_origins are required")
	}

	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultCeremonyTimeout
	}

	w, err := webauthn.New(&webauthn.Config{
		RPDisplayName: cfg.RPName,
		RPID:          cfg.RPID,
		RPOrigins:     cfg.RPOrigins,
		// Consumer platform authenticators mostly return "none".
		AttestationPreference: protocol.PreferNoAttestation,
		AuthenticatorSelection: protocol.AuthenticatorSelection{
			ResidentKey:      protocol.ResidentKeyRequirementPreferred,
			UserVerification: protocol.VerificationRequired,
		},
		Timeouts: webauthn.TimeoutsConfig{
			Login: webauthn.TimeoutConfig{
				Enforce:    true,
				Timeout:    timeout,
				TimeoutUVD: timeout,
			},
			Registration: webauthn.TimeoutConfig{
				Enforce:    true,
				Timeout:    timeout,
				TimeoutUVD: timeout,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create WebAuthn instance: %w", err)
	}

	return &WebAuthnService{webAuthn: w}, nil
}

// BeginRegistration builds creation options that exclude the user's existing
// credentials and demand user verification.
func (s *WebAuthnService) BeginRegistration(user webauthn.User, exclude []protocol.CredentialDescriptor) (*protocol.CredentialCreation, *webauthn.SessionData, error) {
	return s.webAuthn.BeginRegistration(user,
		webauthn.WithExclusions(exclude),
		webauthn.WithAuthenticatorSelection(protocol.AuthenticatorSelection{
			ResidentKey:      protocol.ResidentKeyRequirementPreferred,
			UserVerification: protocol.VerificationRequired,
		}),
	)
}

// FinishRegistration verifies an attestation against the session.
func (s *WebAuthnService) FinishRegistration(user webauthn.User, sessionData webauthn.SessionData, response *protocol.ParsedCredentialCreationData) (*webauthn.Credential, error) {
	return s.webAuthn.CreateCredential(user, sessionData, response)
}

// BeginDiscoverableLogin starts a login with no allow-list and no user hint.
func (s *WebAuthnService) BeginDiscoverableLogin() (*protocol.CredentialAssertion, *webauthn.SessionData, error) {
	return s.webAuthn.BeginDiscoverableLogin(webauthn.WithUserVerification(protocol.VerificationRequired))
}

// FinishLogin verifies an assertion for a user already resolved from the
// credential id. The session's user id must be set to the user's handle.
func (s *WebAuthnService) FinishLogin(user webauthn.User, sessionData webauthn.SessionData, response *protocol.ParsedCredentialAssertionData) (*webauthn.Credential, error) {
	return s.webAuthn.ValidateLogin(user, sessionData, response)
}
