// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver), schema migrations, and the streaming-service
// catalog seed.
package repo

import (
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/domain"
)

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or updates the application schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.StreamingService{},
		&domain.UserStreamingService{},
		&domain.ClickEvent{},
		&domain.Title{},
		&domain.RecentlyViewedTitle{},
	)
}

// SeedStreamingServices inserts the fixed streaming-service catalog. Seeding
// is idempotent: rows are matched by primary key and existing rows are left
// untouched, so a restart never mutates catalog data already in place.
func SeedStreamingServices(db *gorm.DB) error {
	for _, svc := range CatalogSeed() {
		s := svc
		if err := db.Where("id = ?", s.ID).FirstOrCreate(&s).Error; err != nil {
			return err
		}
	}
	return nil
}

// CatalogSeed returns the static streaming-service catalog. Identifiers are
// stable; the dashboard and seed tests rely on them.
func CatalogSeed() []domain.StreamingService {
	return []domain.StreamingService{
		{ID: 1, Name: "Netflix", Region: "US", BaseURL: "https://www.netflix.com/login", LogoURL: "/images/Netflix_Symbol_RGB.png"},
		{ID: 2, Name: "Hulu", Region: "US", BaseURL: "https://auth.hulu.com/web/login", LogoURL: "/images/hulu-Green-digital.png"},
		{ID: 3, Name: "Disney+", Region: "US", BaseURL: "https://www.disneyplus.com/login", LogoURL: "/images/disney_logo_march_2024_050fef2e.png"},
		{ID: 4, Name: "Amazon Prime Video", Region: "US", BaseURL: "https://www.amazon.com/ap/signin", LogoURL: "/images/AmazonPrimeVideo.png"},
		{ID: 5, Name: "Max (formerly HBO Max)", Region: "US", BaseURL: "https://play.max.com/sign-in", LogoURL: "/images/maxlogo.jpg"},
		{ID: 6, Name: "Apple TV+", Region: "US", BaseURL: "https://tv.apple.com/login", LogoURL: "/images/AppleTV-iOS.png"},
		{ID: 7, Name: "Peacock", Region: "US", BaseURL: "https://www.peacocktv.com/signin", LogoURL: "/images/Peacock_'P'.png"},
		{ID: 8, Name: "Paramount+", Region: "US", BaseURL: "https://www.paramountplus.com/account/signin/", LogoURL: "/images/Paramountplus.png"},
		{ID: 9, Name: "Starz", Region: "US", BaseURL: "https://www.starz.com/login", LogoURL: "/images/Starz_Prism_Button_Option_01.png"},
		{ID: 10, Name: "Tubi", Region: "US", BaseURL: "https://tubitv.com/login", LogoURL: "/images/tubitlogo.png"},
		{ID: 11, Name: "Pluto TV", Region: "US", BaseURL: "https://pluto.tv/en/login", LogoURL: "/images/Pluto-TV-Logo.jpg"},
		{ID: 12, Name: "BritBox", Region: "US", BaseURL: "https://www.britbox.com/us/account/signin", LogoURL: "/images/britboxlogo.png"},
		{ID: 13, Name: "AMC+", Region: "US", BaseURL: "https://www.amcplus.com/login", LogoURL: "/images/amcpluslogo.png"},
	}
}
