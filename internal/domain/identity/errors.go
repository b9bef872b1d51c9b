package identity

import "errors"

var (
	ErrIdentityNotFound      = errors.New("identity not found")
	ErrIdentityAlreadyExists = errors.New("identity already exists")
	// ErrInvalidCredentials is returned for both unknown logins and wrong secrets.
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUnknownCredentialKind = errors.New("unknown credential kind")
)
