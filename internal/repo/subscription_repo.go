// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for subscriptions:
// the user/service join table, click tracking, and the usage aggregates built
// on top of the click-event log.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only persistence
// and query composition. Price validation in particular happens in the
// service layer, before any of these functions run.
//
// Error semantics:
//   - When a record is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Functions:
//
//   - ListUserSubscriptions(ctx, db, userID) -> []domain.StreamingService, error
//     Catalog entries the user is subscribed to, ordered by name.
//
//   - ListSubscriptionRecords(ctx, db, userID) -> []domain.UserStreamingService, error
//     Raw join rows with the service association preloaded.
//
//   - ListAvailableStreamingServices(ctx, db, userID) -> []domain.StreamingService, error
//     Catalog entries the user is NOT subscribed to, ordered by name.
//
//   - UpdateUserSubscriptions(ctx, db, userID, prices) -> error
//     Reconciles the stored subscription set against the desired price map.
//
//   - IncrementClickCount(ctx, db, userID, serviceID, now) -> error
//     Bumps the denormalized counter (when subscribed) and appends a
//     ClickEvent unconditionally, in one transaction.
//
//   - MonthlySubscriptionClicks / LifetimeSubscriptionClicks
//     Per-subscription click counts with left-outer semantics over the
//     subscription set.
//
//   - TotalMonthlyCost(ctx, db, userID) -> float64, error
//     Sum of monthly costs treating unknown (null) costs as zero.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// clickWindow is the trailing window used for "monthly" click aggregates.
// It is a rolling 30 days from the caller-supplied reference time, not a
// calendar month.
const clickWindow = 30 * 24 * time.Hour

// ListUserSubscriptions returns the catalog entries the user is currently
// subscribed to, ordered by name ascending. An empty slice means the user has
// no subscriptions.
func ListUserSubscriptions(ctx context.Context, db *gorm.DB, userID int) ([]domain.StreamingService, error) {
	var out []domain.StreamingService
	err := db.WithContext(ctx).
		Model(&domain.StreamingService{}).
		Joins("JOIN user_streaming_services uss ON uss.streaming_service_id = streaming_services.id").
		Where("uss.user_id = ?", userID).
		Order("streaming_services.name ASC").
		Find(&out).Error
	return out, err
}

// ListSubscriptionRecords returns the raw join rows for a user with the
// StreamingService association preloaded, ordered by service id. Used where
// the per-user cost and click counter are needed alongside catalog data.
func ListSubscriptionRecords(ctx context.Context, db *gorm.DB, userID int) ([]domain.UserStreamingService, error) {
	var out []domain.UserStreamingService
	err := db.WithContext(ctx).
		Preload("StreamingService").
		Where("user_id = ?", userID).
		Order("streaming_service_id ASC").
		Find(&out).Error
	return out, err
}

// ListAvailableStreamingServices returns catalog entries the user is NOT
// subscribed to, ordered by name ascending (SQLite BINARY collation, i.e.
// ordinal order). The result reflects the join table at call time; there is
// no caching layer.
func ListAvailableStreamingServices(ctx context.Context, db *gorm.DB, userID int) ([]domain.StreamingService, error) {
	sub := db.Model(&domain.UserStreamingService{}).
		Select("streaming_service_id").
		Where("user_id = ?", userID)

	var out []domain.StreamingService
	err := db.WithContext(ctx).
		Where("id NOT IN (?)", sub).
		Order("name ASC").
		Find(&out).Error
	return out, err
}

// UpdateUserSubscriptions reconciles the stored subscription set for userID
// against the desired price map: a key in prices means "subscribed at this
// cost", an absent key means "not subscribed".
//
// Within a single transaction, against one snapshot of the current rows:
//   - rows whose service id is not a key in prices are deleted;
//   - keys without a row are inserted with the supplied cost;
//   - keys with an existing row have the cost overwritten (even if equal).
//
// Costs are written as-is; range validation is the caller's job and must
// happen before this function runs (a rejected batch must leave the store
// untouched).
func UpdateUserSubscriptions(ctx context.Context, db *gorm.DB, userID int, prices map[int]float64) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current []domain.UserStreamingService
		if err := tx.Where("user_id = ?", userID).Find(&current).Error; err != nil {
			return err
		}

		existing := make(map[int]struct{}, len(current))
		for _, rec := range current {
			existing[rec.StreamingServiceID] = struct{}{}
			if _, keep := prices[rec.StreamingServiceID]; keep {
				continue
			}
			err := tx.
				Where("user_id = ? AND streaming_service_id = ?", userID, rec.StreamingServiceID).
				Delete(&domain.UserStreamingService{}).Error
			if err != nil {
				return err
			}
		}

		for serviceID, cost := range prices {
			c := cost
			if _, ok := existing[serviceID]; ok {
				err := tx.Model(&domain.UserStreamingService{}).
					Where("user_id = ? AND streaming_service_id = ?", userID, serviceID).
					Update("monthly_cost", c).Error
				if err != nil {
					return err
				}
				continue
			}
			row := domain.UserStreamingService{
				UserID:             userID,
				StreamingServiceID: serviceID,
				MonthlyCost:        &c,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// IncrementClickCount records a click on a service link at the given time.
//
// Within a single transaction:
//   - when a subscription row exists for (userID, serviceID), its denormalized
//     click_count is incremented by one; zero affected rows is not an error —
//     the user may have unsubscribed since opening the page;
//   - a ClickEvent is appended unconditionally, so click history stays
//     accurate independent of the current subscription state.
func IncrementClickCount(ctx context.Context, db *gorm.DB, userID, serviceID int, now time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.UserStreamingService{}).
			Where("user_id = ? AND streaming_service_id = ?", userID, serviceID).
			UpdateColumn("click_count", gorm.Expr("click_count + 1"))
		if res.Error != nil {
			return res.Error
		}

		ev := domain.ClickEvent{
			UserID:             userID,
			StreamingServiceID: serviceID,
			ClickedAt:          now,
		}
		return tx.Create(&ev).Error
	})
}

// MonthlySubscriptionClicks returns, for every service the user is currently
// subscribed to, the number of click events within the trailing 30 days of
// now (inclusive lower bound). Services without matching events appear with
// count 0 (LEFT JOIN over the subscription set, not the event log). Results
// are ordered by service name.
func MonthlySubscriptionClicks(ctx context.Context, db *gorm.DB, userID int, now time.Time) ([]domain.SubscriptionClicks, error) {
	return subscriptionClicks(ctx, db, userID, &now)
}

// LifetimeSubscriptionClicks is MonthlySubscriptionClicks without the time
// window: it counts every click event ever recorded for each currently
// subscribed service.
func LifetimeSubscriptionClicks(ctx context.Context, db *gorm.DB, userID int) ([]domain.SubscriptionClicks, error) {
	return subscriptionClicks(ctx, db, userID, nil)
}

// subscriptionClicks builds the shared aggregate. A nil reference time means
// an unbounded window.
func subscriptionClicks(ctx context.Context, db *gorm.DB, userID int, now *time.Time) ([]domain.SubscriptionClicks, error) {
	q := db.WithContext(ctx).
		Table("user_streaming_services AS uss").
		Select("uss.streaming_service_id AS streaming_service_id, ss.name AS service_name, COUNT(ce.id) AS click_count").
		Joins("JOIN streaming_services ss ON ss.id = uss.streaming_service_id").
		Where("uss.user_id = ?", userID).
		Group("uss.streaming_service_id, ss.name").
		Order("ss.name ASC")

	if now != nil {
		cutoff := now.Add(-clickWindow)
		q = q.Joins(
			"LEFT JOIN click_events ce ON ce.user_id = uss.user_id AND ce.streaming_service_id = uss.streaming_service_id AND ce.clicked_at >= ?",
			cutoff,
		)
	} else {
		q = q.Joins(
			"LEFT JOIN click_events ce ON ce.user_id = uss.user_id AND ce.streaming_service_id = uss.streaming_service_id",
		)
	}

	var out []domain.SubscriptionClicks
	err := q.Scan(&out).Error
	return out, err
}

// TotalMonthlyCost sums the per-user monthly cost across all of the user's
// subscriptions. An unknown (null) cost contributes zero to the sum — note
// that this differs deliberately from the cost-per-click rule, where an
// unknown cost suppresses the metric entirely.
func TotalMonthlyCost(ctx context.Context, db *gorm.DB, userID int) (float64, error) {
	var total float64
	err := db.WithContext(ctx).
		Model(&domain.UserStreamingService{}).
		Select("COALESCE(SUM(COALESCE(monthly_cost, 0)), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	return total, err
}
