package identity

import (
	"fmt"
	"strings"
)

// CredentialKind is the closed set of ways an identity can prove itself.
type CredentialKind string

const (
	KindGoogle   CredentialKind = "google"
	KindPassword CredentialKind = "password"
	KindPasskey  CredentialKind = "passkey"
)

var credentialKinds = []CredentialKind{KindGoogle, KindPassword, KindPasskey}

// ParseCredentialKind accepts the canonical lower-case names.
func ParseCredentialKind(s string) (CredentialKind, error) {
	k := CredentialKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range credentialKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCredentialKind, s)
}

func (k CredentialKind) String() string {
	return string(k)
}
