package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists identities and their non-passkey credentials.
// Finders return nil, nil when nothing matches.
type Repository interface {
	// Create stores the identity together with an optional password credential
	// in one transaction. Duplicate username or email yields ErrIdentityAlreadyExists.
	Create(ctx context.Context, identity *Identity, password *PasswordCredential) error

	FindBySubject(ctx context.Context, subject uuid.UUID) (*Identity, error)
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindByGoogleID(ctx context.Context, googleID string) (*Identity, error)

	FindPasswordCredential(ctx context.Context, owner uuid.UUID) (*PasswordCredential, error)
	UpdatePasswordHash(ctx context.Context, owner uuid.UUID, hash string, changedAt time.Time) error
	TouchPasswordCredential(ctx context.Context, owner uuid.UUID, usedAt time.Time) error

	LinkGoogleAccount(ctx context.Context, googleID string, owner uuid.UUID) error
	RecordLogin(ctx context.Context, subject uuid.UUID, at time.Time) error
}
