package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/protocol"

	"github.com/blink-inc/blink/internal/application/user/dto"
	"github.com/blink-inc/blink/internal/shared/config"
	"github.com/blink-inc/blink/internal/shared/constants"
	"github.com/blink-inc/blink/internal/shared/logger"
	"github.com/blink-inc/blink/internal/shared/utils"
)

// maxCeremonyBody bounds attestation and assertion payloads.
const maxCeremonyBody = 64 << 10

// PasskeyHandler handles passkey (WebAuthn) related HTTP requests
type PasskeyHandler struct {
	ceremonies   ceremonyManager
	service      passkeyService
	cookieConfig config.CookieConfig
	challengeTTL time.Duration
	logger       logger.Interface
}

func NewPasskeyHandler(
	ceremonies ceremonyManager,
	service passkeyService,
	cookieConfig config.CookieConfig,
	challengeTTL time.Duration,
	logger logger.Interface,
) *PasskeyHandler {
	return &PasskeyHandler{
		ceremonies:   ceremonies,
		service:      service,
		cookieConfig: cookieConfig,
		challengeTTL: challengeTTL,
		logger:       logger,
	}
}

// optionResponse wraps ceremony options for the browser
type optionResponse struct {
	Option any `json:"option"`
}

// registerPasskeyName is read from the registration body next to the credential.
type registerPasskeyName struct {
	Name string `json:"name"`
}

// RegisterOption starts a registration ceremony for the authenticated identity
// @Summary Get webauthn registration options
// @Tags Passkey
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Router /api/auth/passkey/register-option [get]
func (h *PasskeyHandler) RegisterOption(c *gin.Context) {
	subject, ok := subjectFrom(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, constants.ErrMsgUnauthenticated)
		return
	}

	owner, err := h.service.GetIdentity(c.Request.Context(), subject)
	if err != nil {
		respondError(c, err)
		return
	}

	ceremonyID, options, err := h.ceremonies.BeginRegistration(c.Request.Context(), owner)
	if err != nil {
		h.logger.Errorw("failed to begin passkey registration", "subject", subject, "error", err)
		respondError(c, err)
		return
	}

	utils.SetCeremonyCookie(c, h.cookieConfig, constants.CookieRegistrationCeremony, ceremonyID, h.challengeTTL)
	utils.SuccessResponse(c, http.StatusOK, "", optionResponse{Option: options})
}

// Register completes a registration ceremony
// @Summary Register webauthn passkey credential
// @Tags Passkey
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Router /api/auth/passkey/register [post]
func (h *PasskeyHandler) Register(c *gin.Context) {
	subject, ok := subjectFrom(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, constants.ErrMsgUnauthenticated)
		return
	}

	ceremonyID := utils.CeremonyIDFromCookie(c, constants.CookieRegistrationCeremony)
	if ceremonyID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "session not found")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCeremonyBody))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	response, err := protocol.ParseCredentialCreationResponseBytes(body)
	if err != nil {
		h.logger.Debugw("failed to parse credential creation response", "subject", subject, "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid credential response")
		return
	}

	var named registerPasskeyName
	if err := json.Unmarshal(body, &named); err != nil {
		h.logger.Debugw("invalid passkey name in registration body", "subject", subject, "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "name must be a string")
		return
	}

	owner, err := h.service.GetIdentity(c.Request.Context(), subject)
	if err != nil {
		respondError(c, err)
		return
	}

	cred, err := h.ceremonies.CompleteRegistration(c.Request.Context(), ceremonyID, response, owner, named.Name)
	utils.ClearCeremonyCookie(c, h.cookieConfig, constants.CookieRegistrationCeremony)
	if err != nil {
		h.logger.Warnw("passkey registration failed", "subject", subject, "error", err)
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, dto.ToPasskeyResponse(cred, nil), "passkey registered")
}

// AuthOption starts a discoverable authentication ceremony
// @Summary Get webauthn authentication options
// @Tags Passkey
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /api/auth/passkey/auth-option [get]
func (h *PasskeyHandler) AuthOption(c *gin.Context) {
	ceremonyID, options, err := h.ceremonies.BeginAuthentication(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to begin passkey authentication", "error", err)
		respondError(c, err)
		return
	}

	utils.SetCeremonyCookie(c, h.cookieConfig, constants.CookieAuthenticationCeremony, ceremonyID, h.challengeTTL)
	utils.SuccessResponse(c, http.StatusOK, "", optionResponse{Option: options})
}

// Login completes an authentication ceremony and issues a session token
// @Summary Login with webauthn passkey
// @Tags Passkey
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Router /api/auth/passkey/login [post]
func (h *PasskeyHandler) Login(c *gin.Context) {
	ceremonyID := utils.CeremonyIDFromCookie(c, constants.CookieAuthenticationCeremony)
	if ceremonyID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "session not found")
		return
	}

	response, err := protocol.ParseCredentialRequestResponseBody(io.LimitReader(c.Request.Body, maxCeremonyBody))
	if err != nil {
		h.logger.Debugw("failed to parse credential assertion response", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid credential response")
		return
	}

	result, err := h.ceremonies.CompleteAuthentication(c.Request.Context(), ceremonyID, response)
	utils.ClearCeremonyCookie(c, h.cookieConfig, constants.CookieAuthenticationCeremony)
	if err != nil {
		h.logger.Warnw("passkey login failed", "error", err)
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dto.SessionResponse{
		Token:     result.Token.Token,
		ExpiresAt: result.Token.ExpiresAt,
		Subject:   result.Subject,
		Scopes:    result.Scopes,
	})
}

// List returns the authenticated identity's passkeys
// @Summary List passkeys
// @Tags Passkey
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.APIResponse
// @Router /api/auth/passkey [get]
func (h *PasskeyHandler) List(c *gin.Context) {
	subject, ok := subjectFrom(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, constants.ErrMsgUnauthenticated)
		return
	}

	passkeys, err := h.service.ListPasskeys(c.Request.Context(), subject)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", passkeys)
}

// Rename changes a passkey's display name
// @Summary Rename passkey
// @Tags Passkey
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sid path string true "Passkey ID (pk_xxx)"
// @Success 204
// @Router /api/auth/passkey/{sid} [patch]
func (h *PasskeyHandler) Rename(c *gin.Context) {
	subject, ok := subjectFrom(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, constants.ErrMsgUnauthenticated)
		return
	}

	var req dto.RenamePasskeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.RenamePasskey(c.Request.Context(), subject, c.Param("sid"), req.Name); err != nil {
		respondError(c, err)
		return
	}

	utils.NoContentResponse(c)
}

// Delete removes a passkey
// @Summary Delete passkey
// @Tags Passkey
// @Security BearerAuth
// @Param sid path string true "Passkey ID (pk_xxx)"
// @Success 204
// @Router /api/auth/passkey/{sid} [delete]
func (h *PasskeyHandler) Delete(c *gin.Context) {
	subject, ok := subjectFrom(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, constants.ErrMsgUnauthenticated)
		return
	}

	if err := h.service.DeletePasskey(c.Request.Context(), subject, c.Param("sid")); err != nil {
		respondError(c, err)
		return
	}

	h.logger.Infow("passkey deleted", "subject", subject, "passkey_id", c.Param("sid"))
	utils.NoContentResponse(c)
}

// AuthenticatorIcon returns the icon of an authenticator model
// @Summary Get authenticator icon by aaguid
// @Tags Passkey
// @Produce json
// @Param theme path string true "light or dark"
// @Param aaguid path string true "Authenticator AAGUID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/auth/passkey/aaguid/{theme}/{aaguid} [get]
func (h *PasskeyHandler) AuthenticatorIcon(c *gin.Context) {
	icon, err := h.service.AuthenticatorIcon(c.Request.Context(), c.Param("theme"), c.Param("aaguid"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{"icon": icon})
}
