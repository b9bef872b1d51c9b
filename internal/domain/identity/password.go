package identity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt input limit
)

// PasswordCredential is the stored bcrypt hash for an identity.
type PasswordCredential struct {
	ownerSubjectID uuid.UUID
	hash           string
	lastChangedAt  time.Time
	lastUsedAt     *time.Time
}

func NewPasswordCredential(owner uuid.UUID, hash string, at time.Time) (*PasswordCredential, error) {
	if owner == uuid.Nil {
		return nil, fmt.Errorf("owner subject is required")
	}
	if hash == "" {
		return nil, fmt.Errorf("password hash is required")
	}
	return &PasswordCredential{ownerSubjectID: owner, hash: hash, lastChangedAt: at}, nil
}

func ReconstructPasswordCredential(owner uuid.UUID, hash string, lastChangedAt time.Time, lastUsedAt *time.Time) *PasswordCredential {
	return &PasswordCredential{
		ownerSubjectID: owner,
		hash:           hash,
		lastChangedAt:  lastChangedAt,
		lastUsedAt:     lastUsedAt,
	}
}

func (p *PasswordCredential) OwnerSubjectID() uuid.UUID { return p.ownerSubjectID }
func (p *PasswordCredential) Hash() string              { return p.hash }
func (p *PasswordCredential) LastChangedAt() time.Time  { return p.lastChangedAt }
func (p *PasswordCredential) LastUsedAt() *time.Time    { return p.lastUsedAt }

// ValidatePassword checks length bounds on a plaintext password.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("password must be at most %d bytes", MaxPasswordLength)
	}
	return nil
}

// PasswordHasher hashes and verifies plaintext passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
}
