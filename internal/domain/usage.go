// Package domain – analytics view models.
//
// These types are produced by repository aggregate queries and the
// subscription service; they are never persisted.
package domain

// SubscriptionClicks is the click count for one subscribed service over some
// window (trailing 30 days or lifetime). A service the user is subscribed to
// always appears in the aggregate result, with ClickCount 0 when no events
// match the window.
type SubscriptionClicks struct {
	StreamingServiceID int    `json:"streaming_service_id"`
	ServiceName        string `json:"service_name"`
	ClickCount         int    `json:"click_count"`
}

// SubscriptionUsage is the per-service usage summary shown on the dashboard.
//
// CostPerClick is MonthlyCost divided by MonthlyClicks and is present only
// when MonthlyClicks > 0 and MonthlyCost is known. A nil MonthlyCost is NOT
// treated as zero here; that rule belongs to the total-cost sum only.
type SubscriptionUsage struct {
	StreamingServiceID int      `json:"streaming_service_id"`
	ServiceName        string   `json:"service_name"`
	MonthlyClicks      int      `json:"monthly_clicks"`
	LifetimeClicks     int      `json:"lifetime_clicks"`
	MonthlyCost        *float64 `json:"monthly_cost,omitempty"`
	CostPerClick       *float64 `json:"cost_per_click,omitempty"`
}
