// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for captured movie
// titles and the per-user "recently viewed" history.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/domain"
)

// ErrNilTitle is returned when CaptureOrUpdateTitle is called without a title.
var ErrNilTitle = errors.New("title must not be nil")

// CaptureOrUpdateTitle upserts captured movie metadata.
//
// The existing record is looked up by case-insensitive, whitespace-trimmed
// name plus exact year. When found, only LastUpdated is refreshed — poster,
// genres, overview and the other captured fields keep their stored values, so
// a later capture from a sparser source never erases data. When not found,
// the incoming record is inserted whole with a fresh id and LastUpdated set.
//
// Returns the persisted title, or ErrNilTitle when title is nil.
func CaptureOrUpdateTitle(ctx context.Context, db *gorm.DB, title *domain.Title) (*domain.Title, error) {
	if title == nil {
		return nil, ErrNilTitle
	}

	name := strings.ToLower(strings.TrimSpace(title.TitleName))
	now := time.Now().UTC()

	var existing domain.Title
	err := db.WithContext(ctx).
		Where("LOWER(TRIM(title_name)) = ? AND year = ?", name, title.Year).
		First(&existing).Error
	switch {
	case err == nil:
		res := db.WithContext(ctx).
			Model(&domain.Title{}).
			Where("id = ?", existing.ID).
			Update("last_updated", now)
		if res.Error != nil {
			return nil, res.Error
		}
		existing.LastUpdated = now
		return &existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		t := *title
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.LastUpdated = now
		if err := db.WithContext(ctx).Create(&t).Error; err != nil {
			return nil, err
		}
		return &t, nil
	default:
		return nil, err
	}
}

// GetTitle fetches a captured title by id, returning ErrNotFound when missing.
func GetTitle(ctx context.Context, db *gorm.DB, id string) (*domain.Title, error) {
	var t domain.Title
	if err := db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// RecordTitleView upserts a view-history entry for (userID, titleID) at the
// given time. Re-viewing a title refreshes its ViewedAt instead of inserting
// a duplicate row, so the history stays one row per title.
func RecordTitleView(ctx context.Context, db *gorm.DB, userID int, titleID string, now time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.RecentlyViewedTitle{}).
		Where("user_id = ? AND title_id = ?", userID, titleID).
		Update("viewed_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	rv := domain.RecentlyViewedTitle{
		ID:       uuid.NewString(),
		UserID:   userID,
		TitleID:  titleID,
		ViewedAt: now,
	}
	return db.WithContext(ctx).Create(&rv).Error
}

// ListRecentlyViewed returns the user's most recently viewed titles, newest
// first, capped at limit (callers default this to 10).
func ListRecentlyViewed(ctx context.Context, db *gorm.DB, userID, limit int) ([]domain.Title, error) {
	var out []domain.Title
	err := db.WithContext(ctx).
		Model(&domain.Title{}).
		Joins("JOIN recently_viewed_titles rv ON rv.title_id = titles.id").
		Where("rv.user_id = ?", userID).
		Order("rv.viewed_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
