package models

import (
	"time"

	"github.com/blink-inc/blink/internal/shared/constants"
)

// IdentityModel is the persistence form of identity.Identity.
type IdentityModel struct {
	SubjectID   string `gorm:"primaryKey;size:36;column:subject_id"`
	Username    string `gorm:"uniqueIndex;not null;size:32"`
	Email       string `gorm:"uniqueIndex;not null;size:255"`
	Roles       int    `gorm:"not null;default:1"`
	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (IdentityModel) TableName() string {
	return constants.TableIdentities
}

// PasswordCredentialModel holds at most one bcrypt hash per identity.
type PasswordCredentialModel struct {
	OwnerSubjectID string `gorm:"primaryKey;size:36;column:owner_subject_id"`
	Hash           string `gorm:"not null;size:255"`
	LastChangedAt  time.Time
	LastUsedAt     *time.Time
}

func (PasswordCredentialModel) TableName() string {
	return constants.TablePasswordCredentials
}

// GoogleLinkModel maps a Google account id onto an identity.
type GoogleLinkModel struct {
	GoogleID       string `gorm:"primaryKey;size:255;column:google_id"`
	OwnerSubjectID string `gorm:"not null;size:36;index;column:owner_subject_id"`
	LastUsedAt     *time.Time
	CreatedAt      time.Time
}

func (GoogleLinkModel) TableName() string {
	return constants.TableGoogleLinks
}
