package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/blink-inc/blink/internal/domain/identity"
	"github.com/blink-inc/blink/internal/shared/authorization"
	"github.com/blink-inc/blink/internal/shared/biztime"
	apperrors "github.com/blink-inc/blink/internal/shared/errors"
	"github.com/blink-inc/blink/internal/shared/logger"
)

type RegisterWithPasswordCommand struct {
	Username string
	Email    string
	Password string
}

// RegisterWithPasswordUseCase creates an identity with the USER role and a
// password credential.
type RegisterWithPasswordUseCase struct {
	identities identity.Repository
	hasher     identity.PasswordHasher
	logger     logger.Interface
}

func NewRegisterWithPasswordUseCase(
	identities identity.Repository,
	hasher identity.PasswordHasher,
	logger logger.Interface,
) *RegisterWithPasswordUseCase {
	return &RegisterWithPasswordUseCase{
		identities: identities,
		hasher:     hasher,
		logger:     logger,
	}
}

func (uc *RegisterWithPasswordUseCase) Execute(ctx context.Context, cmd RegisterWithPasswordCommand) (*identity.Identity, error) {
	if err := identity.ValidatePassword(cmd.Password); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	newIdentity, err := identity.NewIdentity(cmd.Username, cmd.Email, authorization.RolesOf(authorization.RoleUser))
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	hash, err := uc.hasher.Hash(cmd.Password)
	if err != nil {
		uc.logger.Errorw("failed to hash password", "error", err)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	credential, err := identity.NewPasswordCredential(newIdentity.SubjectID(), hash, biztime.NowUTC())
	if err != nil {
		return nil, err
	}

	if err := uc.identities.Create(ctx, newIdentity, credential); err != nil {
		if errors.Is(err, identity.ErrIdentityAlreadyExists) {
			return nil, err
		}
		uc.logger.Errorw("failed to create identity", "username", newIdentity.Username(), "error", err)
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	uc.logger.Infow("identity registered with password", "subject", newIdentity.Subject())
	return newIdentity, nil
}
