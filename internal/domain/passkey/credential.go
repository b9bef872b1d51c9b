package passkey

import (
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"

	"github.com/blink-inc/blink/internal/shared/biztime"
)

// MaxDisplayNameLength bounds user supplied passkey names.
const MaxDisplayNameLength = 64

// Credential is a registered passkey bound to exactly one identity.
type Credential struct {
	id              uint
	sid             string // external API identifier (pk_xxx)
	credentialID    []byte
	ownerSubjectID  uuid.UUID
	publicKey       []byte
	attestationType string
	aaguid          uuid.UUID
	signCount       uint32
	backupEligible  bool
	backupState     bool
	transports      []string
	displayName     string
	lastUsedAt      *time.Time
	createdAt       time.Time
}

// NewCredential builds a credential from a verified registration.
func NewCredential(
	owner uuid.UUID,
	cred *webauthn.Credential,
	displayName string,
	sidGenerator func() (string, error),
) (*Credential, error) {
	if owner == uuid.Nil {
		return nil, fmt.Errorf("owner subject is required")
	}
	if cred == nil || len(cred.ID) == 0 {
		return nil, fmt.Errorf("credential ID is required")
	}
	if len(cred.PublicKey) == 0 {
		return nil, fmt.Errorf("public key is required")
	}
	name, err := normalizeDisplayName(displayName)
	if err != nil {
		return nil, err
	}

	sid, err := sidGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to generate SID: %w", err)
	}

	transports := make([]string, len(cred.Transport))
	for i, t := range cred.Transport {
		transports[i] = string(t)
	}

	return &Credential{
		sid:             sid,
		credentialID:    cred.ID,
		ownerSubjectID:  owner,
		publicKey:       cred.PublicKey,
		attestationType: cred.AttestationType,
		aaguid:          AAGUIDFromBytes(cred.Authenticator.AAGUID),
		signCount:       cred.Authenticator.SignCount,
		backupEligible:  cred.Flags.BackupEligible,
		backupState:     cred.Flags.BackupState,
		transports:      transports,
		displayName:     name,
		createdAt:       biztime.NowUTC(),
	}, nil
}

// ReconstructCredential rebuilds a credential from persistence.
func ReconstructCredential(
	id uint,
	sid string,
	credentialID []byte,
	owner uuid.UUID,
	publicKey []byte,
	attestationType string,
	aaguid uuid.UUID,
	signCount uint32,
	backupEligible bool,
	backupState bool,
	transports []string,
	displayName string,
	lastUsedAt *time.Time,
	createdAt time.Time,
) (*Credential, error) {
	if sid == "" {
		return nil, fmt.Errorf("passkey credential SID is required")
	}
	if len(credentialID) == 0 {
		return nil, fmt.Errorf("passkey credential ID is required")
	}

	return &Credential{
		id:              id,
		sid:             sid,
		credentialID:    credentialID,
		ownerSubjectID:  owner,
		publicKey:       publicKey,
		attestationType: attestationType,
		aaguid:          aaguid,
		signCount:       signCount,
		backupEligible:  backupEligible,
		backupState:     backupState,
		transports:      transports,
		displayName:     displayName,
		lastUsedAt:      lastUsedAt,
		createdAt:       createdAt,
	}, nil
}

func (c *Credential) ID() uint                  { return c.id }
func (c *Credential) SID() string               { return c.sid }
func (c *Credential) CredentialID() []byte      { return c.credentialID }
func (c *Credential) OwnerSubjectID() uuid.UUID { return c.ownerSubjectID }
func (c *Credential) PublicKey() []byte         { return c.publicKey }
func (c *Credential) AttestationType() string   { return c.attestationType }
func (c *Credential) AAGUID() uuid.UUID         { return c.aaguid }
func (c *Credential) SignCount() uint32         { return c.signCount }
func (c *Credential) BackupEligible() bool      { return c.backupEligible }
func (c *Credential) BackupState() bool         { return c.backupState }
func (c *Credential) Transports() []string      { return c.transports }
func (c *Credential) DisplayName() string       { return c.displayName }
func (c *Credential) LastUsedAt() *time.Time    { return c.lastUsedAt }
func (c *Credential) CreatedAt() time.Time      { return c.createdAt }

// SetID sets the internal ID (only for persistence layer use)
func (c *Credential) SetID(id uint) error {
	if c.id != 0 {
		return fmt.Errorf("passkey credential ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("passkey credential ID cannot be zero")
	}
	c.id = id
	return nil
}

// SetDisplayNameIfEmpty fills the display name, typically with the authenticator model name.
func (c *Credential) SetDisplayNameIfEmpty(name string) {
	if c.displayName == "" {
		c.displayName = truncateName(name)
	}
}

// VerifySignCount applies the counter rule to a value reported by the authenticator.
// The counter must strictly increase, except that authenticators which never
// count report zero forever and are accepted while the stored value is also zero.
func (c *Credential) VerifySignCount(reported uint32) error {
	if reported > c.signCount || (reported == 0 && c.signCount == 0) {
		return nil
	}
	return fmt.Errorf("%w: reported %d, stored %d", ErrPossibleCloneOrReplay, reported, c.signCount)
}

// RecordUse advances the counter after a verified assertion. It re-checks the
// counter rule so that the entity is never moved backwards.
func (c *Credential) RecordUse(reported uint32, at time.Time) error {
	if err := c.VerifySignCount(reported); err != nil {
		return err
	}
	c.signCount = reported
	c.lastUsedAt = &at
	return nil
}

// Rename replaces the display name.
func (c *Credential) Rename(name string) error {
	n, err := normalizeDisplayName(name)
	if err != nil {
		return err
	}
	if n == "" {
		return fmt.Errorf("display name is required")
	}
	c.displayName = n
	return nil
}

// ToWebAuthnCredential converts to the form the protocol engine verifies against.
func (c *Credential) ToWebAuthnCredential() webauthn.Credential {
	transports := make([]protocol.AuthenticatorTransport, len(c.transports))
	for i, t := range c.transports {
		transports[i] = protocol.AuthenticatorTransport(t)
	}

	return webauthn.Credential{
		ID:              c.credentialID,
		PublicKey:       c.publicKey,
		AttestationType: c.attestationType,
		Transport:       transports,
		Flags: webauthn.CredentialFlags{
			UserPresent:    true,
			UserVerified:   true,
			BackupEligible: c.backupEligible,
			BackupState:    c.backupState,
		},
		Authenticator: webauthn.Authenticator{
			AAGUID:    c.aaguid[:],
			SignCount: c.signCount,
		},
	}
}

// AAGUIDFromBytes parses the 16 byte authenticator model id. Anything else maps to uuid.Nil.
func AAGUIDFromBytes(b []byte) uuid.UUID {
	id, err := uuid.FromBytes(b)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func normalizeDisplayName(name string) (string, error) {
	if len([]rune(name)) > MaxDisplayNameLength {
		return "", fmt.Errorf("display name exceeds %d characters", MaxDisplayNameLength)
	}
	return name, nil
}

func truncateName(name string) string {
	r := []rune(name)
	if len(r) > MaxDisplayNameLength {
		return string(r[:MaxDisplayNameLength])
	}
	return name
}
