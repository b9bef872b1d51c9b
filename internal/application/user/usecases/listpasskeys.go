package usecases

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/blink-inc/blink/internal/application/user/dto"
	"github.com/blink-inc/blink/internal/domain/passkey"
	"github.com/blink-inc/blink/internal/shared/logger"
	"github.com/blink-inc/blink/internal/shared/mapper"
)

// ListPasskeysUseCase returns an identity's passkeys with authenticator metadata attached.
type ListPasskeysUseCase struct {
	passkeys passkey.Repository
	catalog  passkey.AuthenticatorCatalog
	logger   logger.Interface
}

func NewListPasskeysUseCase(
	passkeys passkey.Repository,
	catalog passkey.AuthenticatorCatalog,
	logger logger.Interface,
) *ListPasskeysUseCase {
	return &ListPasskeysUseCase{
		passkeys: passkeys,
		catalog:  catalog,
		logger:   logger,
	}
}

func (uc *ListPasskeysUseCase) Execute(ctx context.Context, subject uuid.UUID) ([]*dto.PasskeyResponse, error) {
	credentials, err := uc.passkeys.FindAllForIdentity(ctx, subject)
	if err != nil {
		uc.logger.Errorw("failed to list passkeys", "subject", subject, "error", err)
		return nil, fmt.Errorf("failed to list passkeys: %w", err)
	}

	// One lookup per distinct model.
	models := make(map[uuid.UUID]*passkey.AuthenticatorMetadata)
	for _, c := range credentials {
		if _, seen := models[c.AAGUID()]; seen {
			continue
		}
		meta, err := uc.catalog.Resolve(ctx, c.AAGUID().String())
		if err != nil {
			uc.logger.Warnw("failed to resolve authenticator", "aaguid", c.AAGUID(), "error", err)
		}
		models[c.AAGUID()] = meta
	}

	if len(credentials) == 0 {
		return []*dto.PasskeyResponse{}, nil
	}
	return mapper.MapSlice(credentials, func(c *passkey.Credential) *dto.PasskeyResponse {
		return dto.ToPasskeyResponse(c, models[c.AAGUID()])
	}), nil
}
