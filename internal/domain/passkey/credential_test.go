package passkey

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSID() (string, error) { return "pk_test", nil }

func newTestCredential(t *testing.T, signCount uint32) *Credential {
	t.Helper()
	c, err := ReconstructCredential(1, "pk_test", []byte{1, 2, 3}, uuid.New(), []byte{9}, "none",
		uuid.Nil, signCount, false, false, nil, "key", nil, time.Now())
	require.NoError(t, err)
	return c
}

func TestCredential_VerifySignCount(t *testing.T) {
	tests := []struct {
		name     string
		stored   uint32
		reported uint32
		wantErr  bool
	}{
		{"both zero", 0, 0, false},
		{"first count from zero", 0, 1, false},
		{"increment", 5, 6, false},
		{"equal", 5, 5, true},
		{"decrease", 5, 3, true},
		{"reset to zero", 5, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCredential(t, tt.stored)
			err := c.VerifySignCount(tt.reported)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPossibleCloneOrReplay)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCredential_RecordUse(t *testing.T) {
	c := newTestCredential(t, 5)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	err := c.RecordUse(3, at)
	assert.True(t, errors.Is(err, ErrPossibleCloneOrReplay))
	assert.Equal(t, uint32(5), c.SignCount())
	assert.Nil(t, c.LastUsedAt())

	require.NoError(t, c.RecordUse(6, at))
	assert.Equal(t, uint32(6), c.SignCount())
	require.NotNil(t, c.LastUsedAt())
	assert.Equal(t, at, *c.LastUsedAt())
}

func TestNewCredential(t *testing.T) {
	owner := uuid.New()
	model := uuid.New()
	wc := &webauthn.Credential{
		ID:              []byte("cred-id"),
		PublicKey:       []byte("cose"),
		AttestationType: "none",
		Transport:       []protocol.AuthenticatorTransport{protocol.Internal, protocol.Hybrid},
		Flags:           webauthn.CredentialFlags{BackupEligible: true, BackupState: true},
		Authenticator:   webauthn.Authenticator{AAGUID: model[:], SignCount: 0},
	}

	c, err := NewCredential(owner, wc, "", fixedSID)
	require.NoError(t, err)
	assert.Equal(t, "pk_test", c.SID())
	assert.Equal(t, model, c.AAGUID())
	assert.Equal(t, []string{"internal", "hybrid"}, c.Transports())
	assert.Equal(t, owner, c.OwnerSubjectID())
	assert.True(t, c.BackupEligible())

	c.SetDisplayNameIfEmpty("iCloud Keychain")
	assert.Equal(t, "iCloud Keychain", c.DisplayName())
	c.SetDisplayNameIfEmpty("other")
	assert.Equal(t, "iCloud Keychain", c.DisplayName())

	back := c.ToWebAuthnCredential()
	assert.Equal(t, wc.ID, back.ID)
	assert.Equal(t, model[:], back.Authenticator.AAGUID)
	assert.True(t, back.Flags.BackupEligible)
}

func TestNewCredential_Validation(t *testing.T) {
	wc := &webauthn.Credential{ID: []byte("id"), PublicKey: []byte("pk")}

	_, err := NewCredential(uuid.Nil, wc, "", fixedSID)
	assert.Error(t, err)

	_, err = NewCredential(uuid.New(), &webauthn.Credential{PublicKey: []byte("pk")}, "", fixedSID)
	assert.Error(t, err)

	_, err = NewCredential(uuid.New(), wc, strings.Repeat("x", MaxDisplayNameLength+1), fixedSID)
	assert.Error(t, err)
}

func TestCredential_Rename(t *testing.T) {
	c := newTestCredential(t, 0)
	assert.Error(t, c.Rename(""))
	require.NoError(t, c.Rename("Laptop"))
	assert.Equal(t, "Laptop", c.DisplayName())
}

func TestAuthenticatorMetadata_Icon(t *testing.T) {
	m := &AuthenticatorMetadata{IconLight: "light.svg", IconDark: "dark.svg"}
	assert.Equal(t, "dark.svg", m.Icon("dark"))
	assert.Equal(t, "light.svg", m.Icon("light"))

	onlyDark := &AuthenticatorMetadata{IconDark: "dark.svg"}
	assert.Equal(t, "dark.svg", onlyDark.Icon("light"))
}

func TestAAGUIDFromBytes(t *testing.T) {
	assert.Equal(t, uuid.Nil, AAGUIDFromBytes([]byte{1, 2}))
	id := uuid.New()
	assert.Equal(t, id, AAGUIDFromBytes(id[:]))
}
