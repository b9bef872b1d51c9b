package ceremony

import (
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/blink-inc/blink/internal/domain/identity"
	"github.com/blink-inc/blink/internal/domain/passkey"
)

// webAuthnUser adapts an identity and its passkeys to webauthn.User.
type webAuthnUser struct {
	identity    *identity.Identity
	credentials []*passkey.Credential
}

func newWebAuthnUser(i *identity.Identity, credentials []*passkey.Credential) *webAuthnUser {
	return &webAuthnUser{identity: i, credentials: credentials}
}

// userHandle is the raw 16 byte subject id.
func userHandle(i *identity.Identity) []byte {
	subject := i.SubjectID()
	return subject[:]
}

func (u *webAuthnUser) WebAuthnID() []byte {
	return userHandle(u.identity)
}

func (u *webAuthnUser) WebAuthnName() string {
	return u.identity.Username()
}

func (u *webAuthnUser) WebAuthnDisplayName() string {
	return u.identity.Username()
}

func (u *webAuthnUser) WebAuthnCredentials() []webauthn.Credential {
	creds := make([]webauthn.Credential, len(u.credentials))
	for i, c := range u.credentials {
		creds[i] = c.ToWebAuthnCredential()
	}
	return creds
}
