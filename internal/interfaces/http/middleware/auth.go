package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blink-inc/blink/internal/shared/authorization"
	"github.com/blink-inc/blink/internal/shared/constants"
	"github.com/blink-inc/blink/internal/shared/logger"
	"github.com/blink-inc/blink/internal/shared/utils"
)

// Authorizer turns a raw Authorization header into a principal.
type Authorizer interface {
	Authorize(rawHeader string) (*authorization.Principal, error)
}

type AuthMiddleware struct {
	gate   Authorizer
	logger logger.Interface
}

func NewAuthMiddleware(gate Authorizer, logger logger.Interface) *AuthMiddleware {
	return &AuthMiddleware{
		gate:   gate,
		logger: logger,
	}
}

// RequireAuth rejects the request with a uniform 401 unless it carries a
// valid bearer session token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := m.gate.Authorize(c.GetHeader(constants.HeaderAuthorization))
		if err != nil {
			m.logger.Debugw("request rejected by authorization gate",
				"path", c.Request.URL.Path,
				"error", err,
			)
			utils.ErrorResponse(c, http.StatusUnauthorized, constants.ErrMsgUnauthenticated)
			c.Abort()
			return
		}

		setPrincipal(c, principal)
		c.Next()
	}
}

func setPrincipal(c *gin.Context, principal *authorization.Principal) {
	c.Set(constants.ContextKeyPrincipal, principal)
	c.Set(constants.ContextKeySubject, principal.Subject)
}
