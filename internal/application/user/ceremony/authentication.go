package ceremony

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-webauthn/webauthn/protocol"

	"github.com/blink-inc/blink/internal/domain/passkey"
	"github.com/blink-inc/blink/internal/infrastructure/auth"
	"github.com/blink-inc/blink/internal/infrastructure/metrics"
)

// AuthenticationResult is the outcome of a successful passkey login.
type AuthenticationResult struct {
	Subject string
	Scopes  []string
	Token   *auth.IssuedToken
}

// BeginAuthentication issues discoverable request options: no allow-list and
// no user hint.
func (m *Manager) BeginAuthentication(ctx context.Context) (string, *protocol.CredentialAssertion, error) {
	options, session, err := m.verifier.BeginDiscoverableLogin()
	if err != nil {
		m.logger.Errorw("failed to begin passkey authentication", "error", err)
		return "", nil, fmt.Errorf("failed to begin passkey authentication: %w", err)
	}

	ceremonyID, err := m.putSession(ctx, kindAuthentication, session)
	if err != nil {
		return "", nil, err
	}
	return ceremonyID, options, nil
}

// CompleteAuthentication verifies an assertion against the stored key,
// advances the signature counter and issues a session token.
func (m *Manager) CompleteAuthentication(
	ctx context.Context,
	ceremonyID string,
	response *protocol.ParsedCredentialAssertionData,
) (result *AuthenticationResult, err error) {
	defer func() {
		metrics.RecordCeremony(metrics.CeremonyAuthentication, outcome(err))
	}()

	if response == nil {
		return nil, fmt.Errorf("%w: empty response", passkey.ErrAssertionInvalid)
	}

	cred, err := m.passkeys.FindByCredentialID(ctx, response.RawID)
	if err != nil {
		m.logger.Errorw("failed to look up passkey", "error", err)
		return nil, fmt.Errorf("%w: %v", passkey.ErrCeremonyUnavailable, err)
	}
	if cred == nil {
		return nil, passkey.ErrCredentialNotFound
	}

	session, err := m.takeSession(ctx, kindAuthentication, ceremonyID)
	if err != nil {
		return nil, err
	}

	owner, err := m.identities.FindBySubject(ctx, cred.OwnerSubjectID())
	if err != nil {
		m.logger.Errorw("failed to load passkey owner", "sid", cred.SID(), "error", err)
		return nil, fmt.Errorf("%w: %v", passkey.ErrCeremonyUnavailable, err)
	}
	if owner == nil {
		m.logger.Warnw("passkey owner no longer exists", "sid", cred.SID())
		return nil, passkey.ErrCredentialNotFound
	}

	// Discoverable sessions carry no user; bind the one the credential belongs to.
	session.UserID = userHandle(owner)

	if _, err := m.verifier.FinishLogin(newWebAuthnUser(owner, []*passkey.Credential{cred}), *session, response); err != nil {
		m.logger.Warnw("passkey assertion rejected", "sid", cred.SID(), "error", err)
		return nil, fmt.Errorf("%w: %v", passkey.ErrAssertionInvalid, err)
	}

	stored := cred.SignCount()
	reported := response.Response.AuthenticatorData.Counter
	usedAt := m.now()

	if err := cred.RecordUse(reported, usedAt); err != nil {
		m.reportClone(cred, stored, reported)
		return nil, err
	}

	if err := m.passkeys.UpdateCounterAndLastUsed(ctx, cred.CredentialID(), stored, reported, usedAt); err != nil {
		if errors.Is(err, passkey.ErrPossibleCloneOrReplay) {
			m.reportClone(cred, stored, reported)
			return nil, err
		}
		m.logger.Errorw("failed to advance passkey counter", "sid", cred.SID(), "error", err)
		return nil, fmt.Errorf("%w: %v", passkey.ErrCeremonyUnavailable, err)
	}

	token, err := m.tokens.Issue(owner.Subject(), owner.Scopes())
	if err != nil {
		m.logger.Errorw("failed to issue session token", "subject", owner.Subject(), "error", err)
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	if err := m.identities.RecordLogin(ctx, owner.SubjectID(), usedAt); err != nil {
		m.logger.Warnw("failed to record last login", "subject", owner.Subject(), "error", err)
	}

	m.logger.Infow("passkey authentication succeeded", "subject", owner.Subject(), "sid", cred.SID())
	return &AuthenticationResult{
		Subject: owner.Subject(),
		Scopes:  owner.Scopes(),
		Token:   token,
	}, nil
}

func (m *Manager) reportClone(cred *passkey.Credential, stored, reported uint32) {
	metrics.RecordCloneDetection()
	m.logger.Errorw("signature counter did not advance",
		"security_event", "possible_credential_clone",
		"sid", cred.SID(),
		"subject", cred.OwnerSubjectID().String(),
		"stored_count", stored,
		"reported_count", reported,
	)
}
