package db

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OwnedBy restricts a query to rows owned by subject.
func OwnedBy(subject uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("owner_subject_id = ?", subject.String())
	}
}

// NewestFirst orders rows by creation time, newest first.
func NewestFirst() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at DESC").Order("id DESC")
	}
}
