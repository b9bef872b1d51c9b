package usecases

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/blink-inc/blink/internal/domain/passkey"
	apperrors "github.com/blink-inc/blink/internal/shared/errors"
)

// GetAuthenticatorIconUseCase serves authenticator icons for UI rendering.
type GetAuthenticatorIconUseCase struct {
	catalog passkey.AuthenticatorCatalog
}

func NewGetAuthenticatorIconUseCase(catalog passkey.AuthenticatorCatalog) *GetAuthenticatorIconUseCase {
	return &GetAuthenticatorIconUseCase{catalog: catalog}
}

// Execute returns the icon (usually a data: URI) for theme "light" or "dark".
func (uc *GetAuthenticatorIconUseCase) Execute(ctx context.Context, theme, aaguid string) (string, error) {
	if theme != "light" && theme != "dark" {
		return "", apperrors.NewValidationError("theme must be light or dark")
	}
	if _, err := uuid.Parse(aaguid); err != nil {
		return "", apperrors.NewValidationError("invalid aaguid")
	}

	meta, err := uc.catalog.Resolve(ctx, aaguid)
	if err != nil {
		return "", fmt.Errorf("failed to resolve authenticator: %w", err)
	}
	if meta == nil {
		return "", apperrors.NewNotFoundError("authenticator not found")
	}

	icon := meta.Icon(theme)
	if icon == "" {
		return "", apperrors.NewNotFoundError("authenticator has no icon")
	}
	return icon, nil
}
