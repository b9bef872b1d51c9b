package ceremony

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/go-webauthn/webauthn/protocol"

	"github.com/blink-inc/blink/internal/domain/identity"
	"github.com/blink-inc/blink/internal/domain/passkey"
	"github.com/blink-inc/blink/internal/infrastructure/metrics"
	"github.com/blink-inc/blink/internal/shared/id"
)

func defaultSIDGenerator() (string, error) {
	return id.NewPasskeyID()
}

// BeginRegistration issues creation options for owner, excluding the
// credentials it already has.
func (m *Manager) BeginRegistration(ctx context.Context, owner *identity.Identity) (string, *protocol.CredentialCreation, error) {
	if owner == nil {
		return "", nil, fmt.Errorf("identity is required")
	}

	existing, err := m.passkeys.FindAllForIdentity(ctx, owner.SubjectID())
	if err != nil {
		m.logger.Errorw("failed to list existing passkeys", "subject", owner.Subject(), "error", err)
		return "", nil, fmt.Errorf("%w: %v", passkey.ErrCeremonyUnavailable, err)
	}

	exclude := make([]protocol.CredentialDescriptor, 0, len(existing))
	for _, c := range existing {
		exclude = append(exclude, c.ToWebAuthnCredential().Descriptor())
	}

	options, session, err := m.verifier.BeginRegistration(newWebAuthnUser(owner, existing), exclude)
	if err != nil {
		m.logger.Errorw("failed to begin passkey registration", "subject", owner.Subject(), "error", err)
		return "", nil, fmt.Errorf("failed to begin passkey registration: %w", err)
	}

	ceremonyID, err := m.putSession(ctx, kindRegistration, session)
	if err != nil {
		return "", nil, err
	}

	m.logger.Infow("passkey registration started", "subject", owner.Subject())
	return ceremonyID, options, nil
}

// CompleteRegistration verifies the attestation and stores the new passkey.
// The ceremony is consumed before verification and cannot be retried.
func (m *Manager) CompleteRegistration(
	ctx context.Context,
	ceremonyID string,
	response *protocol.ParsedCredentialCreationData,
	owner *identity.Identity,
	displayName string,
) (cred *passkey.Credential, err error) {
	defer func() {
		metrics.RecordCeremony(metrics.CeremonyRegistration, outcome(err))
	}()

	if owner == nil {
		return nil, fmt.Errorf("identity is required")
	}

	session, err := m.takeSession(ctx, kindRegistration, ceremonyID)
	if err != nil {
		return nil, err
	}

	if response == nil {
		return nil, fmt.Errorf("%w: empty response", passkey.ErrAttestationInvalid)
	}
	if !bytes.Equal(session.UserID, userHandle(owner)) {
		m.logger.Warnw("registration completed by a different identity", "subject", owner.Subject())
		return nil, fmt.Errorf("%w: user handle mismatch", passkey.ErrAttestationInvalid)
	}

	verified, err := m.verifier.FinishRegistration(newWebAuthnUser(owner, nil), *session, response)
	if err != nil {
		m.logger.Warnw("passkey attestation rejected", "subject", owner.Subject(), "error", err)
		return nil, fmt.Errorf("%w: %v", passkey.ErrAttestationInvalid, err)
	}

	aaguid := passkey.AAGUIDFromBytes(verified.Authenticator.AAGUID).String()
	meta, err := m.catalog.Resolve(ctx, aaguid)
	if err != nil {
		m.logger.Errorw("failed to resolve authenticator", "aaguid", aaguid, "error", err)
		return nil, fmt.Errorf("%w: %v", passkey.ErrCeremonyUnavailable, err)
	}
	if meta == nil {
		m.logger.Warnw("rejecting unrecognized authenticator", "subject", owner.Subject(), "aaguid", aaguid)
		return nil, fmt.Errorf("%w: %s", passkey.ErrUnknownAuthenticator, aaguid)
	}

	cred, err = passkey.NewCredential(owner.SubjectID(), verified, displayName, m.newSID)
	if err != nil {
		return nil, fmt.Errorf("failed to build passkey credential: %w", err)
	}
	cred.SetDisplayNameIfEmpty(meta.Name)

	if err := m.passkeys.Insert(ctx, cred); err != nil {
		if errors.Is(err, passkey.ErrCredentialAlreadyRegistered) {
			return nil, err
		}
		m.logger.Errorw("failed to save passkey", "subject", owner.Subject(), "error", err)
		return nil, fmt.Errorf("%w: %v", passkey.ErrCeremonyUnavailable, err)
	}

	m.logger.Infow("passkey registered",
		"subject", owner.Subject(),
		"sid", cred.SID(),
		"aaguid", aaguid,
	)
	return cred, nil
}
