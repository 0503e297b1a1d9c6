// Package repo is the storage layer. All mutations of the stored refresh
// token value go through here, and rotation is a single conditional UPDATE so
// that two concurrent refresh calls can never both succeed against the same
// prior value.
package repo

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrTokenMismatch means the presented refresh token did not equal the
	// stored value. Covers logout, prior rotation and tampering alike.
	ErrTokenMismatch = errors.New("refresh token mismatch")
)

type Repo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Repo {
	return &Repo{DB: db}
}
