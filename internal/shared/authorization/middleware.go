package authorization

import (
	"github.com/gin-gonic/gin"

	"github.com/blink-inc/blink/internal/shared/constants"
	apperrors "github.com/blink-inc/blink/internal/shared/errors"
	"github.com/blink-inc/blink/internal/shared/utils"
)

// PrincipalFrom returns the principal stored by the auth middleware, if any.
func PrincipalFrom(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(constants.ContextKeyPrincipal)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok && p != nil
}

// RequireScope aborts with 403 unless the authenticated principal carries scope.
// It must run after the auth middleware.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			utils.ErrorResponseWithError(c, apperrors.NewUnauthorizedError(constants.ErrMsgUnauthenticated))
			c.Abort()
			return
		}
		if !p.HasScope(scope) {
			utils.ErrorResponseWithError(c, apperrors.NewForbiddenError("insufficient scope"))
			c.Abort()
			return
		}
		c.Next()
	}
}
