package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isDuplicateKey reports unique constraint violations from MySQL or SQLite,
// whether or not the dialector translated them.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
