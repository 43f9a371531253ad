package repo

import (
	"context"
	"testing"
	"time"

	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/domain"
)

func TestCaptureOrUpdateTitle_InsertThenRefresh(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	first, err := CaptureOrUpdateTitle(ctx, db, &domain.Title{
		TitleName: "Dune",
		Year:      2021,
		PosterURL: "https://posters.example.com/dune.jpg",
		Genres:    "Sci-Fi, Adventure",
		Overview:  "A noble family becomes embroiled in a war for a desert planet.",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if first.ID == "" || first.LastUpdated.IsZero() {
		t.Fatalf("insert did not assign id/timestamp: %+v", first)
	}

	// Re-capture with different casing, padding, and a sparser payload. The
	// stored fields must survive; only the timestamp moves.
	time.Sleep(5 * time.Millisecond)
	second, err := CaptureOrUpdateTitle(ctx, db, &domain.Title{
		TitleName: "  DUNE  ",
		Year:      2021,
	})
	if err != nil {
		t.Fatalf("re-capture: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("re-capture created a new row: %s != %s", second.ID, first.ID)
	}
	if !second.LastUpdated.After(first.LastUpdated) {
		t.Fatalf("LastUpdated not refreshed: %v !> %v", second.LastUpdated, first.LastUpdated)
	}
	if second.PosterURL != first.PosterURL || second.Overview != first.Overview {
		t.Fatalf("re-capture erased stored fields: %+v", second)
	}

	// Same name, different year is a different title.
	third, err := CaptureOrUpdateTitle(ctx, db, &domain.Title{TitleName: "Dune", Year: 1984})
	if err != nil {
		t.Fatalf("different year: %v", err)
	}
	if third.ID == first.ID {
		t.Fatalf("different year must create a new row")
	}

	var count int64
	if err := db.Model(&domain.Title{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 titles, got %d", count)
	}
}

func TestCaptureOrUpdateTitle_NilTitle(t *testing.T) {
	db := newRepoDB(t)
	if _, err := CaptureOrUpdateTitle(context.Background(), db, nil); err != ErrNilTitle {
		t.Fatalf("expected ErrNilTitle, got %v", err)
	}
}

func TestRecordTitleView_UpsertsAndOrders(t *testing.T) {
	db := newRepoDB(t)
	u := seedUser(t, db, "u-views")
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	var ids []string
	for _, name := range []string{"Arrival", "Blade Runner", "Coherence"} {
		tt, err := CaptureOrUpdateTitle(ctx, db, &domain.Title{TitleName: name, Year: 2016})
		if err != nil {
			t.Fatalf("capture %s: %v", name, err)
		}
		ids = append(ids, tt.ID)
	}

	// View in order A, B, C; then re-view A last.
	for i, id := range ids {
		if err := RecordTitleView(ctx, db, u.ID, id, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("view %d: %v", i, err)
		}
	}
	if err := RecordTitleView(ctx, db, u.ID, ids[0], base.Add(10*time.Hour)); err != nil {
		t.Fatalf("re-view: %v", err)
	}

	// Re-viewing must not duplicate the history row.
	var rows int64
	if err := db.Model(&domain.RecentlyViewedTitle{}).Where("user_id = ?", u.ID).Count(&rows).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 3 {
		t.Fatalf("expected 3 history rows, got %d", rows)
	}

	got, err := ListRecentlyViewed(ctx, db, u.ID, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 titles, got %d", len(got))
	}
	// Newest first: A (re-viewed), C, B.
	if got[0].ID != ids[0] || got[1].ID != ids[2] || got[2].ID != ids[1] {
		t.Fatalf("order unexpected: %s %s %s", got[0].TitleName, got[1].TitleName, got[2].TitleName)
	}

	// Limit applies.
	capped, err := ListRecentlyViewed(ctx, db, u.ID, 2)
	if err != nil {
		t.Fatalf("list capped: %v", err)
	}
	if len(capped) != 2 {
		t.Fatalf("expected 2 titles with limit, got %d", len(capped))
	}
}
