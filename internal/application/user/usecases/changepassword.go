package usecases

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/blink-inc/blink/internal/domain/identity"
	"github.com/blink-inc/blink/internal/shared/biztime"
	apperrors "github.com/blink-inc/blink/internal/shared/errors"
	"github.com/blink-inc/blink/internal/shared/logger"
)

type ChangePasswordCommand struct {
	Subject         uuid.UUID
	CurrentPassword string
	NewPassword     string
}

type ChangePasswordUseCase struct {
	identities identity.Repository
	hasher     identity.PasswordHasher
	logger     logger.Interface
}

func NewChangePasswordUseCase(
	identities identity.Repository,
	hasher identity.PasswordHasher,
	logger logger.Interface,
) *ChangePasswordUseCase {
	return &ChangePasswordUseCase{
		identities: identities,
		hasher:     hasher,
		logger:     logger,
	}
}

func (uc *ChangePasswordUseCase) Execute(ctx context.Context, cmd ChangePasswordCommand) error {
	if err := identity.ValidatePassword(cmd.NewPassword); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("invalid new password: %v", err))
	}

	credential, err := uc.identities.FindPasswordCredential(ctx, cmd.Subject)
	if err != nil {
		uc.logger.Errorw("failed to load password credential", "subject", cmd.Subject, "error", err)
		return fmt.Errorf("failed to load password credential: %w", err)
	}
	if credential == nil {
		return apperrors.NewNotFoundError("no password is set for this account")
	}

	if err := uc.hasher.Verify(cmd.CurrentPassword, credential.Hash()); err != nil {
		uc.logger.Warnw("password change rejected", "subject", cmd.Subject)
		return identity.ErrInvalidCredentials
	}

	hash, err := uc.hasher.Hash(cmd.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := uc.identities.UpdatePasswordHash(ctx, cmd.Subject, hash, biztime.NowUTC()); err != nil {
		uc.logger.Errorw("failed to update password", "subject", cmd.Subject, "error", err)
		return fmt.Errorf("failed to update password: %w", err)
	}

	uc.logger.Infow("password changed", "subject", cmd.Subject)
	return nil
}
