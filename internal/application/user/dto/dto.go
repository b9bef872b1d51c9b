package dto

import (
	"time"

	"github.com/blink-inc/blink/internal/domain/identity"
	"github.com/blink-inc/blink/internal/domain/passkey"
)

// RegisterPasswordRequest represents the request to create an identity with a password
type RegisterPasswordRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// LoginPasswordRequest represents the request to log in with a password
type LoginPasswordRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest represents the request to change the current password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
}

// RenamePasskeyRequest represents the request to rename a passkey
type RenamePasskeyRequest struct {
	Name string `json:"name" binding:"required,max=64"`
}

// IdentityResponse is the public view of an identity
type IdentityResponse struct {
	Subject     string     `json:"subject"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Scopes      []string   `json:"scopes"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// SessionResponse carries a freshly issued session token
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Subject   string    `json:"subject"`
	Scopes    []string  `json:"scopes"`
}

// PasskeyResponse is the public view of a registered passkey
type PasskeyResponse struct {
	ID             string     `json:"id"` // pk_xxx
	Name           string     `json:"name"`
	AAGUID         string     `json:"aaguid"`
	Authenticator  string     `json:"authenticator,omitempty"`
	IconLight      string     `json:"icon_light,omitempty"`
	IconDark       string     `json:"icon_dark,omitempty"`
	BackupEligible bool       `json:"backup_eligible"`
	BackupState    bool       `json:"backup_state"`
	CreatedAt      time.Time  `json:"created_at"`
	LastUsedAt     *time.Time `json:"last_used_at,omitempty"`
}

// AuthorizationResponse echoes the principal behind a valid token
type AuthorizationResponse struct {
	Authorized bool     `json:"authorized"`
	Subject    string   `json:"subject"`
	Scopes     []string `json:"scopes"`
}

func ToIdentityResponse(i *identity.Identity) *IdentityResponse {
	return &IdentityResponse{
		Subject:     i.Subject(),
		Username:    i.Username(),
		Email:       i.Email(),
		Scopes:      i.Scopes(),
		CreatedAt:   i.CreatedAt(),
		LastLoginAt: i.LastLoginAt(),
	}
}

// ToPasskeyResponse maps a credential; meta may be nil for models no longer in the catalog.
func ToPasskeyResponse(c *passkey.Credential, meta *passkey.AuthenticatorMetadata) *PasskeyResponse {
	resp := &PasskeyResponse{
		ID:             c.SID(),
		Name:           c.DisplayName(),
		AAGUID:         c.AAGUID().String(),
		BackupEligible: c.BackupEligible(),
		BackupState:    c.BackupState(),
		CreatedAt:      c.CreatedAt(),
		LastUsedAt:     c.LastUsedAt(),
	}
	if meta != nil {
		resp.Authenticator = meta.Name
		resp.IconLight = meta.IconLight
		resp.IconDark = meta.IconDark
	}
	return resp
}
