package repo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/domain"
)

// newRepoDB opens a throwaway file-backed SQLite DB, migrates the full schema,
// and seeds the streaming-service catalog.
func newRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repo.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if err := SeedStreamingServices(db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedUser(t *testing.T, db *gorm.DB, externalID string) *domain.User {
	t.Helper()
	u := &domain.User{ExternalID: externalID, FirstName: "Test", LastName: "User"}
	if err := CreateUser(context.Background(), db, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func subscribedIDs(t *testing.T, db *gorm.DB, userID int) map[int]float64 {
	t.Helper()
	recs, err := ListSubscriptionRecords(context.Background(), db, userID)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	out := make(map[int]float64, len(recs))
	for _, r := range recs {
		var c float64
		if r.MonthlyCost != nil {
			c = *r.MonthlyCost
		}
		out[r.StreamingServiceID] = c
	}
	return out
}

func TestSeedStreamingServices_Idempotent(t *testing.T) {
	db := newRepoDB(t)

	// Second seed run must not duplicate or mutate rows.
	if err := SeedStreamingServices(db); err != nil {
		t.Fatalf("re-seed: %v", err)
	}
	var n int64
	if err := db.Model(&domain.StreamingService{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if want := int64(len(CatalogSeed())); n != want {
		t.Fatalf("catalog rows = %d, want %d", n, want)
	}
}

func TestUpdateUserSubscriptions_ReconcilesSet(t *testing.T) {
	db := newRepoDB(t)
	u := seedUser(t, db, "u-reconcile")
	ctx := context.Background()

	// Initial set: Netflix + Hulu.
	if err := UpdateUserSubscriptions(ctx, db, u.ID, map[int]float64{1: 15.49, 2: 7.99}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got := subscribedIDs(t, db, u.ID)
	if len(got) != 2 || got[1] != 15.49 || got[2] != 7.99 {
		t.Fatalf("after first update: %v", got)
	}

	// Reconcile: drop Netflix, reprice Hulu, add Disney+.
	if err := UpdateUserSubscriptions(ctx, db, u.ID, map[int]float64{2: 9.99, 3: 13.99}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got = subscribedIDs(t, db, u.ID)
	if len(got) != 2 || got[2] != 9.99 || got[3] != 13.99 {
		t.Fatalf("after reconcile: %v", got)
	}
	if _, still := got[1]; still {
		t.Fatalf("service 1 should be unsubscribed")
	}

	// Same desired state applied again is a no-op.
	if err := UpdateUserSubscriptions(ctx, db, u.ID, map[int]float64{2: 9.99, 3: 13.99}); err != nil {
		t.Fatalf("idempotent update: %v", err)
	}
	if again := subscribedIDs(t, db, u.ID); len(again) != 2 || again[2] != 9.99 || again[3] != 13.99 {
		t.Fatalf("after idempotent update: %v", again)
	}

	// Empty map unsubscribes everything.
	if err := UpdateUserSubscriptions(ctx, db, u.ID, map[int]float64{}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if left := subscribedIDs(t, db, u.ID); len(left) != 0 {
		t.Fatalf("expected no subscriptions, got %v", left)
	}
}

func TestListAvailable_DisjointFromSubscribed(t *testing.T) {
	db := newRepoDB(t)
	u := seedUser(t, db, "u-available")
	ctx := context.Background()

	if err := UpdateUserSubscriptions(ctx, db, u.ID, map[int]float64{4: 8.99, 7: 5.99}); err != nil {
		t.Fatalf("update: %v", err)
	}

	subs, err := ListUserSubscriptions(ctx, db, u.ID)
	if err != nil {
		t.Fatalf("subscriptions: %v", err)
	}
	avail, err := ListAvailableStreamingServices(ctx, db, u.ID)
	if err != nil {
		t.Fatalf("available: %v", err)
	}

	if len(subs)+len(avail) != len(CatalogSeed()) {
		t.Fatalf("union mismatch: %d subscribed + %d available != %d catalog",
			len(subs), len(avail), len(CatalogSeed()))
	}
	seen := make(map[int]bool, len(subs))
	for _, s := range subs {
		seen[s.ID] = true
	}
	for _, a := range avail {
		if seen[a.ID] {
			t.Fatalf("service %d in both lists", a.ID)
		}
	}

	// Both lists ordered by name ascending.
	for i := 1; i < len(avail); i++ {
		if avail[i-1].Name > avail[i].Name {
			t.Fatalf("available not sorted: %q > %q", avail[i-1].Name, avail[i].Name)
		}
	}
	for i := 1; i < len(subs); i++ {
		if subs[i-1].Name > subs[i].Name {
			t.Fatalf("subscriptions not sorted: %q > %q", subs[i-1].Name, subs[i].Name)
		}
	}
}

func TestIncrementClickCount_SubscribedAndNot(t *testing.T) {
	db := newRepoDB(t)
	u := seedUser(t, db, "u-clicks")
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	if err := UpdateUserSubscriptions(ctx, db, u.ID, map[int]float64{1: 15.49}); err != nil {
		t.Fatalf("update: %v", err)
	}

	// Subscribed service: counter bumps and event recorded.
	if err := IncrementClickCount(ctx, db, u.ID, 1, now); err != nil {
		t.Fatalf("click subscribed: %v", err)
	}
	recs, err := ListSubscriptionRecords(ctx, db, u.ID)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(recs) != 1 || recs[0].ClickCount != 1 {
		t.Fatalf("expected click_count 1, got %+v", recs)
	}

	// Unsubscribed service: no join row appears, but the event still lands.
	if err := IncrementClickCount(ctx, db, u.ID, 9, now); err != nil {
		t.Fatalf("click unsubscribed: %v", err)
	}
	if got := subscribedIDs(t, db, u.ID); len(got) != 1 {
		t.Fatalf("click must not create a subscription: %v", got)
	}
	var events int64
	if err := db.Model(&domain.ClickEvent{}).Where("user_id = ?", u.ID).Count(&events).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if events != 2 {
		t.Fatalf("expected 2 click events, got %d", events)
	}
}

func TestMonthlyVsLifetimeClicks_WindowBoundary(t *testing.T) {
	db := newRepoDB(t)
	u := seedUser(t, db, "u-window")
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	if err := UpdateUserSubscriptions(ctx, db, u.ID, map[int]float64{1: 15.49, 2: 7.99}); err != nil {
		t.Fatalf("update: %v", err)
	}

	// One recent click and one 40 days old, both on Netflix.
	if err := IncrementClickCount(ctx, db, u.ID, 1, now.Add(-time.Hour)); err != nil {
		t.Fatalf("recent click: %v", err)
	}
	if err := IncrementClickCount(ctx, db, u.ID, 1, now.Add(-40*24*time.Hour)); err != nil {
		t.Fatalf("old click: %v", err)
	}

	monthly, err := MonthlySubscriptionClicks(ctx, db, u.ID, now)
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	lifetime, err := LifetimeSubscriptionClicks(ctx, db, u.ID)
	if err != nil {
		t.Fatalf("lifetime: %v", err)
	}

	byID := func(rows []domain.SubscriptionClicks) map[int]int {
		m := make(map[int]int, len(rows))
		for _, r := range rows {
			m[r.StreamingServiceID] = r.ClickCount
		}
		return m
	}
	m, l := byID(monthly), byID(lifetime)

	if m[1] != 1 {
		t.Fatalf("monthly netflix clicks = %d, want 1 (old click outside window)", m[1])
	}
	if l[1] != 2 {
		t.Fatalf("lifetime netflix clicks = %d, want 2", l[1])
	}
	// Hulu has no events but must still appear with zero.
	if c, ok := m[2]; !ok || c != 0 {
		t.Fatalf("monthly hulu row missing or nonzero: %v ok=%v", c, ok)
	}
	if c, ok := l[2]; !ok || c != 0 {
		t.Fatalf("lifetime hulu row missing or nonzero: %v ok=%v", c, ok)
	}

	// Rows come back ordered by service name.
	if len(monthly) != 2 || monthly[0].ServiceName > monthly[1].ServiceName {
		t.Fatalf("monthly rows not sorted by name: %+v", monthly)
	}
}

func TestTotalMonthlyCost_NullCountsAsZero(t *testing.T) {
	db := newRepoDB(t)
	u := seedUser(t, db, "u-total")
	ctx := context.Background()

	cost := 12.50
	rows := []domain.UserStreamingService{
		{UserID: u.ID, StreamingServiceID: 1, MonthlyCost: &cost},
		{UserID: u.ID, StreamingServiceID: 2, MonthlyCost: nil}, // unknown price
	}
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed row: %v", err)
		}
	}

	total, err := TotalMonthlyCost(ctx, db, u.ID)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 12.50 {
		t.Fatalf("total = %v, want 12.50 (null treated as zero)", total)
	}

	// No subscriptions at all: zero, not an error.
	empty := seedUser(t, db, "u-total-empty")
	total, err = TotalMonthlyCost(ctx, db, empty.ID)
	if err != nil || total != 0 {
		t.Fatalf("empty total = %v err=%v, want 0", total, err)
	}
}
