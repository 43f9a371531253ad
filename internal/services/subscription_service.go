// Package services – SubscriptionService
//
// This file implements SubscriptionService, the application-level component
// that owns subscription reconciliation and usage analytics. It validates
// price batches before any persistence work, delegates set reconciliation and
// click tracking to the repository, and assembles the per-service usage
// summaries (monthly/lifetime clicks, cost per click) consumed by the
// dashboard.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// the user id and, where useful, batch sizes.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/domain"
	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/repo"
)

const (
	// Monthly cost bounds accepted for a subscription price.
	minMonthlyCost = 0
	maxMonthlyCost = 1000
)

// SubscriptionService coordinates subscription state and usage analytics.
type SubscriptionService struct {
	DB *gorm.DB

	// Now returns the reference time for windowed aggregates. Defaults to
	// time.Now; tests override it.
	Now func() time.Time
}

// NewSubscriptionService constructs a SubscriptionService bound to db.
func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{DB: db, Now: time.Now}
}

func (s *SubscriptionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Subscriptions returns the services the user is currently subscribed to,
// ordered by name.
func (s *SubscriptionService) Subscriptions(ctx context.Context, userID int) ([]domain.StreamingService, error) {
	return repo.ListUserSubscriptions(ctx, s.DB, userID)
}

// SubscriptionRecords returns the raw join rows (per-user cost and click
// counter) with catalog data preloaded.
func (s *SubscriptionService) SubscriptionRecords(ctx context.Context, userID int) ([]domain.UserStreamingService, error) {
	return repo.ListSubscriptionRecords(ctx, s.DB, userID)
}

// AvailableServices returns the services the user is NOT subscribed to,
// ordered by name. Used to populate the "add a subscription" selection.
func (s *SubscriptionService) AvailableServices(ctx context.Context, userID int) ([]domain.StreamingService, error) {
	return repo.ListAvailableStreamingServices(ctx, s.DB, userID)
}

// UpdateSubscriptions reconciles the user's subscription set against the
// desired price map: a key means "subscribed at this cost", an absent key
// means "unsubscribe".
//
// The whole batch is validated before anything is written: any price outside
// [0, 1000] rejects the entire update with ErrInvalidMonthlyCost and leaves
// the store untouched (validate-then-apply, never apply-then-validate).
func (s *SubscriptionService) UpdateSubscriptions(ctx context.Context, userID int, prices map[int]float64) error {
	tr := otel.Tracer("services/SubscriptionService")
	ctx, span := tr.Start(ctx, "UpdateSubscriptions",
		trace.WithAttributes(
			attribute.Int("user.id", userID),
			attribute.Int("subscription.count", len(prices)),
		),
	)
	defer span.End()

	for _, cost := range prices {
		if cost < minMonthlyCost || cost > maxMonthlyCost {
			return ErrInvalidMonthlyCost
		}
	}
	return repo.UpdateUserSubscriptions(ctx, s.DB, userID, prices)
}

// TrackClick records a click on a service link. The denormalized counter is
// bumped only when a subscription row exists; the click event is recorded
// regardless, so history survives unsubscribing.
func (s *SubscriptionService) TrackClick(ctx context.Context, userID, serviceID int) error {
	tr := otel.Tracer("services/SubscriptionService")
	ctx, span := tr.Start(ctx, "TrackClick",
		trace.WithAttributes(
			attribute.Int("user.id", userID),
			attribute.Int("service.id", serviceID),
		),
	)
	defer span.End()

	return repo.IncrementClickCount(ctx, s.DB, userID, serviceID, s.now().UTC())
}

// UsageSummary joins the monthly and lifetime click aggregates with the
// per-user price to produce one row per subscribed service.
//
// Cost per click is MonthlyCost / MonthlyClicks, defined only when the user
// clicked at least once in the trailing 30 days AND the cost is known; in
// every other case the field stays nil. Lifetime clicks are reported
// alongside but never feed the division.
func (s *SubscriptionService) UsageSummary(ctx context.Context, userID int) ([]domain.SubscriptionUsage, error) {
	tr := otel.Tracer("services/SubscriptionService")
	ctx, span := tr.Start(ctx, "UsageSummary",
		trace.WithAttributes(attribute.Int("user.id", userID)),
	)
	defer span.End()

	// Events are persisted in UTC, so the window reference must be UTC too or
	// a non-UTC server clock shifts the 30-day boundary by the offset.
	monthly, err := repo.MonthlySubscriptionClicks(ctx, s.DB, userID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	lifetime, err := repo.LifetimeSubscriptionClicks(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	records, err := repo.ListSubscriptionRecords(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}

	lifetimeByID := make(map[int]int, len(lifetime))
	for _, l := range lifetime {
		lifetimeByID[l.StreamingServiceID] = l.ClickCount
	}
	priceByID := make(map[int]*float64, len(records))
	for _, r := range records {
		priceByID[r.StreamingServiceID] = r.MonthlyCost
	}

	out := make([]domain.SubscriptionUsage, 0, len(monthly))
	for _, m := range monthly {
		price := priceByID[m.StreamingServiceID]
		var costPerClick *float64
		if m.ClickCount > 0 && price != nil {
			v := *price / float64(m.ClickCount)
			costPerClick = &v
		}
		out = append(out, domain.SubscriptionUsage{
			StreamingServiceID: m.StreamingServiceID,
			ServiceName:        m.ServiceName,
			MonthlyClicks:      m.ClickCount,
			LifetimeClicks:     lifetimeByID[m.StreamingServiceID],
			MonthlyCost:        price,
			CostPerClick:       costPerClick,
		})
	}
	return out, nil
}

// TotalMonthlyCost sums the user's subscription costs, counting unknown
// (null) costs as zero.
func (s *SubscriptionService) TotalMonthlyCost(ctx context.Context, userID int) (float64, error) {
	return repo.TotalMonthlyCost(ctx, s.DB, userID)
}
