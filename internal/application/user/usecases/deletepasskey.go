package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/blink-inc/blink/internal/domain/passkey"
	"github.com/blink-inc/blink/internal/shared/id"
	"github.com/blink-inc/blink/internal/shared/logger"
)

type DeletePasskeyCommand struct {
	Subject    uuid.UUID
	PasskeySID string // pk_xxx format
}

// DeletePasskeyUseCase removes a passkey owned by the caller.
type DeletePasskeyUseCase struct {
	passkeys passkey.Repository
	logger   logger.Interface
}

func NewDeletePasskeyUseCase(passkeys passkey.Repository, logger logger.Interface) *DeletePasskeyUseCase {
	return &DeletePasskeyUseCase{passkeys: passkeys, logger: logger}
}

// Execute deletes in one owner-scoped statement. A passkey owned by someone
// else reads as not found.
func (uc *DeletePasskeyUseCase) Execute(ctx context.Context, cmd DeletePasskeyCommand) error {
	if err := id.ValidatePrefix(cmd.PasskeySID, id.PrefixPasskey); err != nil {
		return passkey.ErrCredentialNotFound
	}

	if err := uc.passkeys.DeleteBySID(ctx, cmd.PasskeySID, cmd.Subject); err != nil {
		if errors.Is(err, passkey.ErrCredentialNotFound) {
			uc.logger.Warnw("passkey deletion matched nothing", "subject", cmd.Subject, "passkey_sid", cmd.PasskeySID)
			return err
		}
		uc.logger.Errorw("failed to delete passkey", "passkey_sid", cmd.PasskeySID, "error", err)
		return fmt.Errorf("failed to delete passkey: %w", err)
	}

	uc.logger.Infow("passkey deleted", "subject", cmd.Subject, "passkey_sid", cmd.PasskeySID)
	return nil
}
