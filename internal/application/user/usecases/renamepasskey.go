package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/blink-inc/blink/internal/domain/passkey"
	apperrors "github.com/blink-inc/blink/internal/shared/errors"
	"github.com/blink-inc/blink/internal/shared/id"
	"github.com/blink-inc/blink/internal/shared/logger"
)

type RenamePasskeyCommand struct {
	Subject    uuid.UUID
	PasskeySID string
	Name       string
}

type RenamePasskeyUseCase struct {
	passkeys passkey.Repository
	logger   logger.Interface
}

func NewRenamePasskeyUseCase(passkeys passkey.Repository, logger logger.Interface) *RenamePasskeyUseCase {
	return &RenamePasskeyUseCase{passkeys: passkeys, logger: logger}
}

func (uc *RenamePasskeyUseCase) Execute(ctx context.Context, cmd RenamePasskeyCommand) error {
	if err := id.ValidatePrefix(cmd.PasskeySID, id.PrefixPasskey); err != nil {
		return passkey.ErrCredentialNotFound
	}

	name := strings.TrimSpace(cmd.Name)
	if name == "" || len([]rune(name)) > passkey.MaxDisplayNameLength {
		return apperrors.NewValidationError(fmt.Sprintf("name must be 1 to %d characters", passkey.MaxDisplayNameLength))
	}

	if err := uc.passkeys.Rename(ctx, cmd.PasskeySID, cmd.Subject, name); err != nil {
		if errors.Is(err, passkey.ErrCredentialNotFound) {
			return err
		}
		uc.logger.Errorw("failed to rename passkey", "passkey_sid", cmd.PasskeySID, "error", err)
		return fmt.Errorf("failed to rename passkey: %w", err)
	}
	return nil
}
