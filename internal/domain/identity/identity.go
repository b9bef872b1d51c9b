package identity

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/blink-inc/blink/internal/shared/authorization"
	"github.com/blink-inc/blink/internal/shared/biztime"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 32
)

// Identity is a platform account. Every credential kind resolves to one.
type Identity struct {
	subjectID   uuid.UUID
	username    string
	email       string
	roles       authorization.RoleSet
	createdAt   time.Time
	lastLoginAt *time.Time
}

// NewIdentity creates an identity with a fresh subject id.
func NewIdentity(username, email string, roles authorization.RoleSet) (*Identity, error) {
	username = strings.TrimSpace(username)
	if n := len([]rune(username)); n < minUsernameLength || n > maxUsernameLength {
		return nil, fmt.Errorf("username must be %d to %d characters", minUsernameLength, maxUsernameLength)
	}
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if _, err := authorization.NewRoleSet(roles.Bits()); err != nil {
		return nil, err
	}

	return &Identity{
		subjectID: uuid.New(),
		username:  username,
		email:     email,
		roles:     roles,
		createdAt: biztime.NowUTC(),
	}, nil
}

// ReconstructIdentity rebuilds an identity from persistence. The raw role
// column is validated here so that no untyped bitmask escapes the store.
func ReconstructIdentity(
	subjectID uuid.UUID,
	username string,
	email string,
	roleBits int,
	createdAt time.Time,
	lastLoginAt *time.Time,
) (*Identity, error) {
	if subjectID == uuid.Nil {
		return nil, fmt.Errorf("subject id is required")
	}
	roles, err := authorization.NewRoleSet(roleBits)
	if err != nil {
		return nil, fmt.Errorf("identity %s: %w", subjectID, err)
	}

	return &Identity{
		subjectID:   subjectID,
		username:    username,
		email:       email,
		roles:       roles,
		createdAt:   createdAt,
		lastLoginAt: lastLoginAt,
	}, nil
}

func (i *Identity) SubjectID() uuid.UUID         { return i.subjectID }
func (i *Identity) Subject() string              { return i.subjectID.String() }
func (i *Identity) Username() string             { return i.username }
func (i *Identity) Email() string                { return i.email }
func (i *Identity) Roles() authorization.RoleSet { return i.roles }
func (i *Identity) CreatedAt() time.Time         { return i.createdAt }
func (i *Identity) LastLoginAt() *time.Time      { return i.lastLoginAt }
func (i *Identity) Scopes() []string             { return i.roles.Scopes() }

// RecordLogin stamps a successful authentication.
func (i *Identity) RecordLogin(at time.Time) {
	i.lastLoginAt = &at
}

// NormalizeEmail lower-cases and validates an address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("invalid email address")
	}
	return email, nil
}
