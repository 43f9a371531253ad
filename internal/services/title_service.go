// Package services – TitleService
//
// This file implements TitleService, which governs movie-metadata capture and
// the per-user view history. Capture is an upsert keyed by (normalized name,
// year): re-capturing an already known title refreshes its timestamp without
// overwriting stored fields. Marking a title as viewed records a history row
// and moves the profile's most-recently-viewed pointer in one transaction.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/domain"
	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/repo"
)

// recentlyViewedCap bounds the "recently viewed" list returned to clients.
const recentlyViewedCap = 10

// timeNow is a seam for tests that need a deterministic clock.
var timeNow = time.Now

// TitleService implements the use-cases around captured titles.
type TitleService struct {
	DB *gorm.DB
}

// Capture upserts captured movie metadata. A nil title yields ErrNilTitle;
// the name is trimmed before matching so " Dune " and "Dune" are the same
// title.
func (s *TitleService) Capture(ctx context.Context, title *domain.Title) (*domain.Title, error) {
	tr := otel.Tracer("services/TitleService")
	ctx, span := tr.Start(ctx, "Capture")
	defer span.End()

	if title == nil {
		return nil, ErrNilTitle
	}
	title.TitleName = strings.TrimSpace(title.TitleName)
	if title.TitleName == "" {
		return nil, ErrNilTitle
	}
	span.SetAttributes(
		attribute.String("title.name", title.TitleName),
		attribute.Int("title.year", title.Year),
	)

	t, err := repo.CaptureOrUpdateTitle(ctx, s.DB, title)
	if errors.Is(err, repo.ErrNilTitle) {
		return nil, ErrNilTitle
	}
	return t, err
}

// MarkViewed records that the user opened a title: the view-history row is
// upserted and the profile's most-recently-viewed pointer is moved, atomically.
func (s *TitleService) MarkViewed(ctx context.Context, userID int, titleID string) error {
	tr := otel.Tracer("services/TitleService")
	ctx, span := tr.Start(ctx, "MarkViewed",
		trace.WithAttributes(
			attribute.Int("user.id", userID),
			attribute.String("title.id", titleID),
		),
	)
	defer span.End()

	if _, err := repo.GetTitle(ctx, s.DB, titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTitleNotFound
		}
		return err
	}

	now := timeNow().UTC()
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.RecordTitleView(ctx, tx, userID, titleID, now); err != nil {
			return err
		}
		return repo.SetRecentlyViewedTitle(ctx, tx, userID, titleID)
	})
}

// RecentlyViewed returns the user's view history, newest first. limit is
// clamped to the fixed cap; non-positive values use the cap.
func (s *TitleService) RecentlyViewed(ctx context.Context, userID, limit int) ([]domain.Title, error) {
	if limit <= 0 || limit > recentlyViewedCap {
		limit = recentlyViewedCap
	}
	return repo.ListRecentlyViewed(ctx, s.DB, userID, limit)
}
