// Package domain defines the persistence models for user profiles, the
// streaming-service catalog, subscriptions, click history, and captured movie
// titles. These types are mapped with GORM and form the core data layer of
// the subscription-tracker application.
package domain

import "time"

// User is the local application profile for an authenticated principal.
// Identity (credentials, sessions) lives in an external provider; the profile
// is joined to it by ExternalID only.
//
// Fields:
//   - ID: numeric primary key used by all internal foreign keys.
//   - ExternalID: identity-provider subject id; unique, indexed.
//   - FirstName / LastName: display name parts.
//   - ColorMode / FontSize / FontType: display preferences with defaults.
//   - RecentlyViewedTitleID: optional pointer to the most recently viewed title.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type User struct {
	ID                    int       `json:"id"                      gorm:"primaryKey;autoIncrement"`
	ExternalID            string    `json:"external_id"             gorm:"type:varchar(64);not null;uniqueIndex:ux_users_external_id"`
	FirstName             string    `json:"first_name"              gorm:"type:varchar(128);not null"`
	LastName              string    `json:"last_name"               gorm:"type:varchar(128);not null"`
	ColorMode             string    `json:"color_mode"              gorm:"type:varchar(16);not null;default:'Light'"`
	FontSize              string    `json:"font_size"               gorm:"type:varchar(16);not null;default:'Medium'"`
	FontType              string    `json:"font_type"               gorm:"type:varchar(16);not null;default:'Standard'"`
	RecentlyViewedTitleID *string   `json:"recently_viewed_title_id,omitempty" gorm:"type:char(36)"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// StreamingService is one catalog entry. The catalog is reference data seeded
// at startup and never mutated by the application afterwards.
//
// MonthlyCost is the provider's suggested monthly price; the price a user
// actually pays lives on UserStreamingService.
type StreamingService struct {
	ID          int      `json:"id"           gorm:"primaryKey"`
	Name        string   `json:"name"         gorm:"type:varchar(128);not null;index:idx_services_name"`
	Region      string   `json:"region"       gorm:"type:varchar(8)"`
	BaseURL     string   `json:"base_url"     gorm:"type:varchar(512)"`
	LogoURL     string   `json:"logo_url"     gorm:"type:varchar(512)"`
	MonthlyCost *float64 `json:"monthly_cost,omitempty"`
}

// TableName returns the database table name for StreamingService.
func (StreamingService) TableName() string { return "streaming_services" }

// UserStreamingService is the subscription join row. The existence of a row
// for (UserID, StreamingServiceID) is the authoritative "is subscribed"
// record; there is no separate boolean flag.
//
// Fields:
//   - UserID / StreamingServiceID: composite primary key.
//   - MonthlyCost: what this user pays per month. Nil means "cost unknown",
//     which is distinct from zero. Valid values lie in [0, 1000], enforced by
//     the service layer before any write.
//   - ClickCount: denormalized running counter of link clicks; the click_events
//     table remains the source of truth for windowed aggregates.
type UserStreamingService struct {
	UserID             int       `json:"user_id"              gorm:"primaryKey;autoIncrement:false"`
	StreamingServiceID int       `json:"streaming_service_id" gorm:"primaryKey;autoIncrement:false"`
	MonthlyCost        *float64  `json:"monthly_cost,omitempty"`
	ClickCount         int       `json:"click_count"          gorm:"not null;default:0"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	User             User             `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	StreamingService StreamingService `json:"-" gorm:"foreignKey:StreamingServiceID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for UserStreamingService.
func (UserStreamingService) TableName() string { return "user_streaming_services" }

// ClickEvent is one immutable record of a user following a subscription link.
// Rows are append-only: aggregate queries never mutate or delete them, and a
// click is recorded even when the user is no longer subscribed to the service.
type ClickEvent struct {
	ID                 uint      `json:"id"                   gorm:"primaryKey;autoIncrement"`
	UserID             int       `json:"user_id"              gorm:"not null;index:idx_clicks_user_service,priority:1"`
	StreamingServiceID int       `json:"streaming_service_id" gorm:"not null;index:idx_clicks_user_service,priority:2"`
	ClickedAt          time.Time `json:"clicked_at"           gorm:"not null;index:idx_clicks_clicked_at"`
}

// TableName returns the database table name for ClickEvent.
func (ClickEvent) TableName() string { return "click_events" }

// Title is captured movie metadata. Titles are deduplicated by
// (lowercased trimmed name, year) in the repository; a re-capture of an
// existing pair only refreshes LastUpdated and preserves the stored fields.
type Title struct {
	ID                string    `json:"id"                 gorm:"type:char(36);primaryKey"`
	ExternalID        string    `json:"external_id"        gorm:"type:varchar(64)"`
	TitleName         string    `json:"title_name"         gorm:"type:varchar(255);not null;index:idx_titles_name"`
	Year              int       `json:"year"               gorm:"not null"`
	Type              string    `json:"type"               gorm:"type:varchar(32)"`
	PosterURL         string    `json:"poster_url"         gorm:"type:varchar(512)"`
	Genres            string    `json:"genres"             gorm:"type:varchar(255)"`
	Rating            string    `json:"rating"             gorm:"type:varchar(32)"`
	Overview          string    `json:"overview"           gorm:"type:text"`
	StreamingServices string    `json:"streaming_services" gorm:"type:varchar(512)"`
	LastUpdated       time.Time `json:"last_updated"       gorm:"not null"`
}

// TableName returns the database table name for Title.
func (Title) TableName() string { return "titles" }

// RecentlyViewedTitle links a user to a title they opened, with the time of
// the most recent view. Listing is newest-first and capped (default 10).
type RecentlyViewedTitle struct {
	ID       string    `json:"id"        gorm:"type:char(36);primaryKey"`
	UserID   int       `json:"user_id"   gorm:"not null;index:idx_recent_user,priority:1"`
	TitleID  string    `json:"title_id"  gorm:"type:char(36);not null;index:idx_recent_user,priority:2"`
	ViewedAt time.Time `json:"viewed_at" gorm:"not null"`

	User  User  `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Title Title `json:"-" gorm:"foreignKey:TitleID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for RecentlyViewedTitle.
func (RecentlyViewedTitle) TableName() string { return "recently_viewed_titles" }
