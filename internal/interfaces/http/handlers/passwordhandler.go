package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blink-inc/blink/internal/application/user/dto"
	"github.com/blink-inc/blink/internal/shared/constants"
	"github.com/blink-inc/blink/internal/shared/logger"
	"github.com/blink-inc/blink/internal/shared/utils"
)

// PasswordHandler handles password registration, login and change.
type PasswordHandler struct {
	service passwordService
	logger  logger.Interface
}

func NewPasswordHandler(service passwordService, logger logger.Interface) *PasswordHandler {
	return &PasswordHandler{service: service, logger: logger}
}

// Register creates an identity with a password credential
// @Summary Register with password
// @Tags Password
// @Accept json
// @Produce json
// @Param request body dto.RegisterPasswordRequest true "Registration data"
// @Success 201 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /api/auth/password/register [post]
func (h *PasswordHandler) Register(c *gin.Context) {
	var req dto.RegisterPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.service.RegisterWithPassword(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, created, "identity registered")
}

// Login verifies a password and issues a session token
// @Summary Login with password
// @Tags Password
// @Accept json
// @Produce json
// @Param request body dto.LoginPasswordRequest true "Credentials"
// @Success 200 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Router /api/auth/password/login [post]
func (h *PasswordHandler) Login(c *gin.Context) {
	var req dto.LoginPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.service.LoginWithPassword(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", session)
}

// ChangePassword replaces the authenticated identity's password
// @Summary Change password
// @Tags Password
// @Accept json
// @Security BearerAuth
// @Param request body dto.ChangePasswordRequest true "Passwords"
// @Success 204
// @Failure 401 {object} utils.APIResponse
// @Router /api/auth/password [put]
func (h *PasswordHandler) ChangePassword(c *gin.Context) {
	subject, ok := subjectFrom(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, constants.ErrMsgUnauthenticated)
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), subject, req); err != nil {
		respondError(c, err)
		return
	}

	h.logger.Infow("password changed", "subject", subject)
	utils.NoContentResponse(c)
}
