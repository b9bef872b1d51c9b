package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blink-inc/blink/internal/application/user/dto"
	"github.com/blink-inc/blink/internal/shared/constants"
	"github.com/blink-inc/blink/internal/shared/utils"
)

// AuthorizationHandler lets other services check a bearer token.
type AuthorizationHandler struct {
	gate authorizer
}

func NewAuthorizationHandler(gate authorizer) *AuthorizationHandler {
	return &AuthorizationHandler{gate: gate}
}

// Authorize validates the Authorization header and echoes the principal
// @Summary Validate a session token
// @Tags Authorization
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Router /api/auth/authorization [post]
func (h *AuthorizationHandler) Authorize(c *gin.Context) {
	principal, err := h.gate.Authorize(c.GetHeader(constants.HeaderAuthorization))
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, constants.ErrMsgUnauthenticated)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dto.AuthorizationResponse{
		Authorized: true,
		Subject:    principal.Subject,
		Scopes:     principal.Scopes,
	})
}
