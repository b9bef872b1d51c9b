package handlers

import (
	"context"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/google/uuid"

	"github.com/blink-inc/blink/internal/application/user/ceremony"
	"github.com/blink-inc/blink/internal/application/user/dto"
	"github.com/blink-inc/blink/internal/domain/identity"
	"github.com/blink-inc/blink/internal/domain/passkey"
	"github.com/blink-inc/blink/internal/shared/authorization"
)

// Narrow dependencies so handlers can be unit tested with fakes.

type ceremonyManager interface {
	BeginRegistration(ctx context.Context, owner *identity.Identity) (string, *protocol.CredentialCreation, error)
	CompleteRegistration(ctx context.Context, ceremonyID string, response *protocol.ParsedCredentialCreationData, owner *identity.Identity, displayName string) (*passkey.Credential, error)
	BeginAuthentication(ctx context.Context) (string, *protocol.CredentialAssertion, error)
	CompleteAuthentication(ctx context.Context, ceremonyID string, response *protocol.ParsedCredentialAssertionData) (*ceremony.AuthenticationResult, error)
}

type identityLoader interface {
	GetIdentity(ctx context.Context, subject uuid.UUID) (*identity.Identity, error)
}

type passkeyService interface {
	identityLoader
	ListPasskeys(ctx context.Context, subject uuid.UUID) ([]*dto.PasskeyResponse, error)
	DeletePasskey(ctx context.Context, subject uuid.UUID, sid string) error
	RenamePasskey(ctx context.Context, subject uuid.UUID, sid, name string) error
	AuthenticatorIcon(ctx context.Context, theme, aaguid string) (string, error)
}

type passwordService interface {
	RegisterWithPassword(ctx context.Context, req dto.RegisterPasswordRequest) (*dto.IdentityResponse, error)
	LoginWithPassword(ctx context.Context, req dto.LoginPasswordRequest) (*dto.SessionResponse, error)
	ChangePassword(ctx context.Context, subject uuid.UUID, req dto.ChangePasswordRequest) error
}

type authorizer interface {
	Authorize(rawHeader string) (*authorization.Principal, error)
}
