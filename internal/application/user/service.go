package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/blink-inc/blink/internal/application/user/dto"
	"github.com/blink-inc/blink/internal/application/user/usecases"
	"github.com/blink-inc/blink/internal/domain/identity"
	"github.com/blink-inc/blink/internal/domain/passkey"
	"github.com/blink-inc/blink/internal/shared/logger"
)

// Service is the application service behind the password and passkey
// management endpoints. Ceremonies live in the ceremony package.
type Service struct {
	identities       identity.Repository
	registerUC       *usecases.RegisterWithPasswordUseCase
	loginUC          *usecases.LoginWithPasswordUseCase
	changePasswordUC *usecases.ChangePasswordUseCase
	listPasskeysUC   *usecases.ListPasskeysUseCase
	deletePasskeyUC  *usecases.DeletePasskeyUseCase
	renamePasskeyUC  *usecases.RenamePasskeyUseCase
	iconUC           *usecases.GetAuthenticatorIconUseCase
}

func NewService(
	identities identity.Repository,
	passkeys passkey.Repository,
	catalog passkey.AuthenticatorCatalog,
	hasher identity.PasswordHasher,
	tokens usecases.TokenIssuer,
	logger logger.Interface,
) *Service {
	resolver := identity.NewResolver(identities, passkeys)
	return &Service{
		identities:       identities,
		registerUC:       usecases.NewRegisterWithPasswordUseCase(identities, hasher, logger),
		loginUC:          usecases.NewLoginWithPasswordUseCase(resolver, identities, hasher, tokens, logger),
		changePasswordUC: usecases.NewChangePasswordUseCase(identities, hasher, logger),
		listPasskeysUC:   usecases.NewListPasskeysUseCase(passkeys, catalog, logger),
		deletePasskeyUC:  usecases.NewDeletePasskeyUseCase(passkeys, logger),
		renamePasskeyUC:  usecases.NewRenamePasskeyUseCase(passkeys, logger),
		iconUC:           usecases.NewGetAuthenticatorIconUseCase(catalog),
	}
}

// GetIdentity loads the identity behind an authenticated subject.
func (s *Service) GetIdentity(ctx context.Context, subject uuid.UUID) (*identity.Identity, error) {
	found, err := s.identities.FindBySubject(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}
	if found == nil {
		return nil, identity.ErrIdentityNotFound
	}
	return found, nil
}

func (s *Service) RegisterWithPassword(ctx context.Context, req dto.RegisterPasswordRequest) (*dto.IdentityResponse, error) {
	created, err := s.registerUC.Execute(ctx, usecases.RegisterWithPasswordCommand{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}
	return dto.ToIdentityResponse(created), nil
}

func (s *Service) LoginWithPassword(ctx context.Context, req dto.LoginPasswordRequest) (*dto.SessionResponse, error) {
	result, err := s.loginUC.Execute(ctx, usecases.LoginWithPasswordCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}
	return &dto.SessionResponse{
		Token:     result.Token.Token,
		ExpiresAt: result.Token.ExpiresAt,
		Subject:   result.Identity.Subject(),
		Scopes:    result.Identity.Scopes(),
	}, nil
}

func (s *Service) ChangePassword(ctx context.Context, subject uuid.UUID, req dto.ChangePasswordRequest) error {
	return s.changePasswordUC.Execute(ctx, usecases.ChangePasswordCommand{
		Subject:         subject,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
}

func (s *Service) ListPasskeys(ctx context.Context, subject uuid.UUID) ([]*dto.PasskeyResponse, error) {
	return s.listPasskeysUC.Execute(ctx, subject)
}

func (s *Service) DeletePasskey(ctx context.Context, subject uuid.UUID, sid string) error {
	return s.deletePasskeyUC.Execute(ctx, usecases.DeletePasskeyCommand{Subject: subject, PasskeySID: sid})
}

func (s *Service) RenamePasskey(ctx context.Context, subject uuid.UUID, sid, name string) error {
	return s.renamePasskeyUC.Execute(ctx, usecases.RenamePasskeyCommand{Subject: subject, PasskeySID: sid, Name: name})
}

func (s *Service) AuthenticatorIcon(ctx context.Context, theme, aaguid string) (string, error) {
	return s.iconUC.Execute(ctx, theme, aaguid)
}
