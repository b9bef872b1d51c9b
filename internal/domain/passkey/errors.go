package passkey

import "errors"

// Challenge store errors. ErrDuplicateCeremonyID never leaves the ceremony manager.
var (
	ErrDuplicateCeremonyID = errors.New("ceremony id already in use")
	ErrChallengeNotFound   = errors.New("challenge not found or expired")
)

// Ceremony errors returned to callers.
var (
	ErrCeremonyNotFound            = errors.New("ceremony not found or already consumed")
	ErrAttestationInvalid          = errors.New("attestation verification failed")
	ErrAssertionInvalid            = errors.New("assertion verification failed")
	ErrPossibleCloneOrReplay       = errors.New("signature counter did not advance")
	ErrCredentialNotFound          = errors.New("passkey credential not found")
	ErrUnknownAuthenticator        = errors.New("authenticator model is not recognized")
	ErrCredentialAlreadyRegistered = errors.New("passkey credential already registered")
	// ErrCeremonyUnavailable wraps backing store failures.
	ErrCeremonyUnavailable = errors.New("ceremony backing store unavailable")
)
