package identity

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/blink-inc/blink/internal/domain/passkey"
)

// Lookup resolves an external credential identifier to its identity.
type Lookup func(ctx context.Context, externalID string) (*Identity, error)

// Resolver dispatches identity lookups by credential kind.
type Resolver struct {
	lookups map[CredentialKind]Lookup
}

// NewResolver wires one lookup per credential kind. For passkeys the external
// id is the base64url (unpadded) credential id.
func NewResolver(identities Repository, passkeys passkey.Repository) *Resolver {
	return &Resolver{
		lookups: map[CredentialKind]Lookup{
			KindGoogle: identities.FindByGoogleID,
			KindPassword: func(ctx context.Context, email string) (*Identity, error) {
				normalized, err := NormalizeEmail(email)
				if err != nil {
					return nil, nil
				}
				return identities.FindByEmail(ctx, normalized)
			},
			KindPasskey: func(ctx context.Context, encoded string) (*Identity, error) {
				credentialID, err := base64.RawURLEncoding.DecodeString(encoded)
				if err != nil {
					return nil, nil
				}
				cred, err := passkeys.FindByCredentialID(ctx, credentialID)
				if err != nil || cred == nil {
					return nil, err
				}
				return identities.FindBySubject(ctx, cred.OwnerSubjectID())
			},
		},
	}
}

// FindIdentity returns the identity owning externalID, or nil, nil when none does.
func (r *Resolver) FindIdentity(ctx context.Context, kind CredentialKind, externalID string) (*Identity, error) {
	lookup, ok := r.lookups[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCredentialKind, kind)
	}
	return lookup(ctx, externalID)
}
