package passkey

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists passkey credentials. Finders return nil, nil when nothing matches.
type Repository interface {
	FindByCredentialID(ctx context.Context, credentialID []byte) (*Credential, error)
	FindBySID(ctx context.Context, sid string) (*Credential, error)
	FindAllForIdentity(ctx context.Context, owner uuid.UUID) ([]*Credential, error)

	// Insert fails with ErrCredentialAlreadyRegistered when the credential id exists.
	Insert(ctx context.Context, credential *Credential) error

	// UpdateCounterAndLastUsed succeeds only while the stored counter still equals
	// expected. Otherwise it returns ErrPossibleCloneOrReplay.
	UpdateCounterAndLastUsed(ctx context.Context, credentialID []byte, expected, next uint32, usedAt time.Time) error

	// DeleteBySID and Rename return ErrCredentialNotFound unless owner owns sid.
	DeleteBySID(ctx context.Context, sid string, owner uuid.UUID) error
	Rename(ctx context.Context, sid string, owner uuid.UUID, name string) error
}

// ChallengeStore holds single-use ceremony secrets for a fixed TTL.
type ChallengeStore interface {
	// Put stores secret under a fresh ceremony id. A live id is never
	// overwritten; the store reports ErrDuplicateCeremonyID instead.
	Put(ctx context.Context, secret []byte) (string, error)

	// TakeAndDelete atomically reads and removes the secret. Missing or
	// expired ids yield ErrChallengeNotFound.
	TakeAndDelete(ctx context.Context, ceremonyID string) ([]byte, error)

	TTL() time.Duration
}

// AuthenticatorMetadata describes an authenticator model.
type AuthenticatorMetadata struct {
	AAGUID    string `json:"-"`
	Name      string `json:"name"`
	IconLight string `json:"icon_light,omitempty"`
	IconDark  string `json:"icon_dark,omitempty"`
}

// Icon returns the icon for theme ("light" or "dark"), falling back to the other one.
func (m *AuthenticatorMetadata) Icon(theme string) string {
	if theme == "dark" && m.IconDark != "" {
		return m.IconDark
	}
	if m.IconLight != "" {
		return m.IconLight
	}
	return m.IconDark
}

// AuthenticatorCatalog resolves authenticator models by AAGUID. Unknown models yield nil, nil.
type AuthenticatorCatalog interface {
	Resolve(ctx context.Context, aaguid string) (*AuthenticatorMetadata, error)
}
