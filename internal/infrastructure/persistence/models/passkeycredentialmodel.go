package models

import (
	"time"

	"github.com/blink-inc/blink/internal/shared/constants"
)

// PasskeyCredentialModel represents the database persistence model for passkey credentials
type PasskeyCredentialModel struct {
	ID              uint   `gorm:"primarykey"`
	SID             string `gorm:"uniqueIndex;not null;size:50;column:sid"`
	OwnerSubjectID  string `gorm:"not null;size:36;index;column:owner_subject_id"`
	CredentialID    []byte `gorm:"type:varbinary(1024);not null;uniqueIndex:idx_passkey_credentials_credential_id"`
	PublicKey       []byte `gorm:"type:blob;not null"`
	AttestationType string `gorm:"size:50;default:none"`
	AAGUID          string `gorm:"size:36;column:aaguid"`
	SignCount       uint32 `gorm:"not null;default:0"`
	BackupEligible  bool   `gorm:"default:false"`
	BackupState     bool   `gorm:"default:false"`
	Transports      []byte `gorm:"type:json"` // JSON array of transport hints
	DisplayName     string `gorm:"size:100;default:''"`
	LastUsedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName specifies the table name for GORM
func (PasskeyCredentialModel) TableName() string {
	return constants.TablePasskeyCredentials
}

// AllModels lists every table owned by the service, in migration order.
func AllModels() []any {
	return []any{
		&IdentityModel{},
		&PasswordCredentialModel{},
		&GoogleLinkModel{},
		&PasskeyCredentialModel{},
	}
}
