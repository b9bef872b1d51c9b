package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/blink-inc/blink/internal/domain/identity"
	"github.com/blink-inc/blink/internal/domain/passkey"
	"github.com/blink-inc/blink/internal/infrastructure/auth"
	"github.com/blink-inc/blink/internal/shared/authorization"
	"github.com/blink-inc/blink/internal/shared/constants"
	apperrors "github.com/blink-inc/blink/internal/shared/errors"
	"github.com/blink-inc/blink/internal/shared/utils"
)

// toAppError maps domain errors onto the client-facing error envelope.
// Verification failures of every kind collapse into one message.
func toAppError(err error) error {
	if apperrors.IsAppError(err) {
		return err
	}

	switch {
	case errors.Is(err, passkey.ErrCeremonyNotFound):
		return apperrors.NewBadRequestError("session not found, please restart the ceremony").WithCause(err)
	case errors.Is(err, passkey.ErrCredentialNotFound):
		return apperrors.NewNotFoundError("passkey not found").WithCause(err)
	case errors.Is(err, passkey.ErrUnknownAuthenticator):
		return apperrors.NewBadRequestError("authenticator is not supported").WithCause(err)
	case errors.Is(err, passkey.ErrCredentialAlreadyRegistered):
		return apperrors.NewConflictError("passkey already registered").WithCause(err)
	case errors.Is(err, passkey.ErrAttestationInvalid),
		errors.Is(err, passkey.ErrAssertionInvalid),
		errors.Is(err, passkey.ErrPossibleCloneOrReplay),
		errors.Is(err, identity.ErrInvalidCredentials):
		return apperrors.NewUnauthorizedError(constants.ErrMsgAuthenticationFail).WithCause(err)
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrUnauthenticated):
		return apperrors.NewUnauthorizedError(constants.ErrMsgUnauthenticated).WithCause(err)
	case errors.Is(err, identity.ErrIdentityNotFound):
		return apperrors.NewNotFoundError("identity not found").WithCause(err)
	case errors.Is(err, identity.ErrIdentityAlreadyExists):
		return apperrors.NewConflictError("identity already exists").WithCause(err)
	case errors.Is(err, passkey.ErrCeremonyUnavailable):
		return apperrors.NewUnavailableError("service temporarily unavailable").WithCause(err)
	}
	return err
}

func respondError(c *gin.Context, err error) {
	utils.ErrorResponseWithError(c, toAppError(err))
}

// subjectFrom returns the authenticated subject set by the auth middleware.
func subjectFrom(c *gin.Context) (uuid.UUID, bool) {
	principal, ok := authorization.PrincipalFrom(c)
	if !ok {
		return uuid.Nil, false
	}
	subject, err := uuid.Parse(principal.Subject)
	if err != nil {
		return uuid.Nil, false
	}
	return subject, true
}
