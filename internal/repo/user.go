package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/clipstream/backend/internal/models"
)

func (r *Repo) CreateUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Create(u).Error
}

func (r *Repo) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UserByIdentifier resolves a login identifier that may be a username or an
// email address.
func (r *Repo) UserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).
		Where("username = ? OR email = ?", strings.ToLower(identifier), identifier).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repo) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).
		Where("username = ?", strings.ToLower(username)).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UserExists reports whether a user with the given username or email is
// already registered.
func (r *Repo) UserExists(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", strings.ToLower(username), email).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetRefreshToken overwrites the stored refresh value unconditionally. Login
// uses it to install a fresh value, logout and password change pass nil to
// clear it.
func (r *Repo) SetRefreshToken(ctx context.Context, userID uint, token *string) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("refresh_token", token).Error
}

// RotateRefreshToken replaces the stored refresh value only if it still
// equals the presented one. The check and the write are one statement, so a
// concurrent rotation against the same prior value matches zero rows and
// fails with ErrTokenMismatch.
func (r *Repo) RotateRefreshToken(ctx context.Context, userID uint, presented, next string) error {
	result := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND refresh_token = ?", userID, presented).
		Update("refresh_token", next)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTokenMismatch
	}
	return nil
}

// ReplacePasswordAndRevoke swaps the password hash and clears the stored
// refresh value in one statement, so a password change and the session
// revocation it implies are never observed separately.
func (r *Repo) ReplacePasswordAndRevoke(ctx context.Context, userID uint, hash string) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"password_hash": hash, "refresh_token": nil}).Error
}

func (r *Repo) UpdateAccount(ctx context.Context, userID uint, fullName, email string) (*models.User, error) {
	err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"full_name": fullName, "email": email}).Error
	if err != nil {
		return nil, err
	}
	return r.UserByID(ctx, userID)
}

func (r *Repo) UpdateImage(ctx context.Context, userID uint, column, url string) (*models.User, error) {
	err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update(column, url).Error
	if err != nil {
		return nil, err
	}
	return r.UserByID(ctx, userID)
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
