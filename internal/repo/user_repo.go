// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the local user
// profile, which is joined to the external identity provider by ExternalID.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/domain"
)

// GetUserByExternalID fetches the profile row for an identity-provider
// subject id. Returns ErrNotFound when no profile exists yet.
func GetUserByExternalID(ctx context.Context, db *gorm.DB, externalID string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new profile row. The numeric id is assigned by the
// database and filled in on return.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(u).Error
}

// UpdateUserPreferences overwrites the display preferences of a profile.
// Returns ErrNotFound when the user does not exist.
func UpdateUserPreferences(ctx context.Context, db *gorm.DB, userID int, colorMode, fontSize, fontType string) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"color_mode": colorMode,
			"font_size":  fontSize,
			"font_type":  fontType,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetRecentlyViewedTitle points the profile at the title the user viewed
// last. Returns ErrNotFound when the user does not exist.
func SetRecentlyViewedTitle(ctx context.Context, db *gorm.DB, userID int, titleID string) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", userID).
		Update("recently_viewed_title_id", titleID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
