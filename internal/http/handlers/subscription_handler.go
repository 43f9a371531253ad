// Subscription HTTP handlers.
//
// This file exposes REST endpoints for the user's streaming-service
// subscriptions:
//   - GET  /subscriptions            (current subscriptions with cost/clicks)
//   - GET  /subscriptions/available  (catalog services not yet subscribed)
//   - PUT  /subscriptions            (reconcile the set against a price map)
//   - POST /subscriptions/clicks     (record a click-through)
//   - GET  /subscriptions/usage      (click analytics + total monthly cost)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/domain"
	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/movies"
	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/openai"
	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// SubscriptionService defines the subscription and usage operations consumed
// by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type SubscriptionService interface {
	// Subscriptions returns the services the user subscribes to, by name.
	Subscriptions(ctx context.Context, userID int) ([]domain.StreamingService, error)
	// SubscriptionRecords returns the join rows with catalog data preloaded.
	SubscriptionRecords(ctx context.Context, userID int) ([]domain.UserStreamingService, error)
	// AvailableServices returns the catalog services the user is NOT subscribed to.
	AvailableServices(ctx context.Context, userID int) ([]domain.StreamingService, error)
	// UpdateSubscriptions reconciles the subscription set against a price map.
	UpdateSubscriptions(ctx context.Context, userID int, prices map[int]float64) error
	// TrackClick records one click-through on a service link.
	TrackClick(ctx context.Context, userID, serviceID int) error
	// UsageSummary returns per-service click analytics.
	UsageSummary(ctx context.Context, userID int) ([]domain.SubscriptionUsage, error)
	// TotalMonthlyCost sums subscription costs, null costs counting as zero.
	TotalMonthlyCost(ctx context.Context, userID int) (float64, error)
}

// TitleService defines the captured-title operations consumed by HTTP handlers.
type TitleService interface {
	// Capture upserts captured movie metadata.
	Capture(ctx context.Context, title *domain.Title) (*domain.Title, error)
	// MarkViewed records that the user opened a title.
	MarkViewed(ctx context.Context, userID int, titleID string) error
	// RecentlyViewed returns the user's view history, newest first.
	RecentlyViewed(ctx context.Context, userID, limit int) ([]domain.Title, error)
}

// UserService defines profile operations consumed by HTTP handlers.
type UserService interface {
	// EnsureProfile returns the profile for an external identity, creating a
	// default one on first sight.
	EnsureProfile(ctx context.Context, externalID, firstName, lastName string) (*domain.User, error)
	// UpdatePreferences overwrites the profile's display preferences.
	UpdatePreferences(ctx context.Context, userID int, colorMode, fontSize, fontType string) error
}

// Recommender defines the AI-backed recommendation operations.
type Recommender interface {
	// SimilarMovies returns recommendations similar to the named title.
	SimilarMovies(ctx context.Context, title string) ([]openai.MovieRecommendation, error)
	// ChatResponse answers a free-text query, degrading internally on failure.
	ChatResponse(ctx context.Context, query string) string
}

// MovieSearcher defines the outbound movie-search operation.
type MovieSearcher interface {
	// Search queries the external provider by title.
	Search(ctx context.Context, query string) ([]movies.Movie, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for subscriptions, titles, profiles, search,
// and recommendations. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	subSvc   SubscriptionService
	titleSvc TitleService
	userSvc  UserService
	recSvc   Recommender
	movieSvc MovieSearcher
}

// New constructs and returns a Handlers instance bound to the given services.
func New(subSvc SubscriptionService, titleSvc TitleService, userSvc UserService, recSvc Recommender, movieSvc MovieSearcher) *Handlers {
	return &Handlers{subSvc: subSvc, titleSvc: titleSvc, userSvc: userSvc, recSvc: recSvc, movieSvc: movieSvc}
}

// externalID extracts the authenticated principal's subject id from Gin
// context (set by upstream auth middleware). If absent, it falls back to the
// "X-User-ID" header (tests use it). Empty means unauthenticated.
func externalID(c *gin.Context) string {
	if v, ok := c.Get("externalID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return ""
}

// currentUser resolves the request principal to a local profile, creating the
// profile on first sight. On failure it writes the error response itself and
// returns ok=false; callers must return immediately.
func (h *Handlers) currentUser(c *gin.Context) (*domain.User, bool) {
	ext := externalID(c)
	if ext == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user identity")
		return nil, false
	}
	u, err := h.userSvc.EnsureProfile(c.Request.Context(), ext, "", "")
	if err != nil {
		failInternal(c, ErrCodeInternal, err)
		return nil, false
	}
	return u, true
}

//
// DTOs
//

// SubscriptionResponse is one row of the user's subscription list.
type SubscriptionResponse struct {
	StreamingServiceID int      `json:"streamingServiceId"`
	Name               string   `json:"name"`
	Region             string   `json:"region,omitempty"`
	BaseURL            string   `json:"baseUrl,omitempty"`
	LogoURL            string   `json:"logoUrl,omitempty"`
	MonthlyCost        *float64 `json:"monthlyCost"`
	ClickCount         int      `json:"clickCount"`
}

// UpdateSubscriptionsRequest is the JSON payload for reconciling the
// subscription set. Keys are streaming-service ids, values the monthly price;
// omitting a previously subscribed id unsubscribes it.
type UpdateSubscriptionsRequest struct {
	Prices map[int]float64 `json:"prices"`
}

// TrackClickRequest is the JSON payload for recording a click-through.
type TrackClickRequest struct {
	StreamingServiceID int `json:"streamingServiceId" binding:"required,gt=0"`
}

// UsageResponse wraps the per-service analytics with the cost total.
type UsageResponse struct {
	Usage            []domain.SubscriptionUsage `json:"usage"`
	TotalMonthlyCost float64                    `json:"totalMonthlyCost"`
}

//
// Handlers
//

// ListSubscriptions godoc
// @ID          listSubscriptions
// @Summary     List current subscriptions
// @Description Returns the user's subscribed services with per-user cost and click count.
// @Tags        Subscriptions
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {array}   handlers.SubscriptionResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /subscriptions [get]
func (h *Handlers) ListSubscriptions(c *gin.Context) {
	u, okay := h.currentUser(c)
	if !okay {
		return
	}

	records, err := h.subSvc.SubscriptionRecords(c.Request.Context(), u.ID)
	if err != nil {
		failInternal(c, ErrCodeListFailed, err)
		return
	}

	out := make([]SubscriptionResponse, 0, len(records))
	for _, r := range records {
		out = append(out, SubscriptionResponse{
			StreamingServiceID: r.StreamingServiceID,
			Name:               r.StreamingService.Name,
			Region:             r.StreamingService.Region,
			BaseURL:            r.StreamingService.BaseURL,
			LogoURL:            r.StreamingService.LogoURL,
			MonthlyCost:        r.MonthlyCost,
			ClickCount:         r.ClickCount,
		})
	}
	ok(c, http.StatusOK, out)
}

// ListAvailableServices godoc
// @ID          listAvailableServices
// @Summary     List services available to subscribe to
// @Description Returns catalog services the user is not currently subscribed to, ordered by name.
// @Tags        Subscriptions
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {array}   domain.StreamingService
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /subscriptions/available [get]
func (h *Handlers) ListAvailableServices(c *gin.Context) {
	u, okay := h.currentUser(c)
	if !okay {
		return
	}

	svcs, err := h.subSvc.AvailableServices(c.Request.Context(), u.ID)
	if err != nil {
		failInternal(c, ErrCodeListFailed, err)
		return
	}
	ok(c, http.StatusOK, svcs)
}

// UpdateSubscriptions godoc
// @ID          updateSubscriptions
// @Summary     Reconcile the subscription set
// @Description Replaces the user's subscriptions with the given price map. Present keys subscribe (or reprice), absent keys unsubscribe. Any price outside [0, 1000] rejects the whole batch.
// @Tags        Subscriptions
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.UpdateSubscriptionsRequest  true  "Desired subscription prices"
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     422  {object}  handlers.ErrorResponse  "Price out of range"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /subscriptions [put]
func (h *Handlers) UpdateSubscriptions(c *gin.Context) {
	u, okay := h.currentUser(c)
	if !okay {
		return
	}

	var req UpdateSubscriptionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.Prices == nil {
		req.Prices = map[int]float64{}
	}

	if err := h.subSvc.UpdateSubscriptions(c.Request.Context(), u.ID, req.Prices); err != nil {
		if errors.Is(err, services.ErrInvalidMonthlyCost) {
			fail(c, http.StatusUnprocessableEntity, ErrCodeInvalidPrice, err.Error())
			return
		}
		failInternal(c, ErrCodeUpdateFailed, err)
		return
	}
	noContent(c)
}

// TrackClick godoc
// @ID          trackClick
// @Summary     Record a click-through on a service link
// @Description Increments the per-subscription counter (when subscribed) and appends a click event.
// @Tags        Subscriptions
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.TrackClickRequest  true  "Clicked service"
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /subscriptions/clicks [post]
func (h *Handlers) TrackClick(c *gin.Context) {
	u, okay := h.currentUser(c)
	if !okay {
		return
	}

	var req TrackClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "streamingServiceId required")
		return
	}

	if err := h.subSvc.TrackClick(c.Request.Context(), u.ID, req.StreamingServiceID); err != nil {
		failInternal(c, ErrCodeTrackFailed, err)
		return
	}
	noContent(c)
}

// Usage godoc
// @ID          subscriptionUsage
// @Summary     Per-service usage analytics
// @Description Returns monthly and lifetime clicks, cost per click where defined, and the total monthly cost.
// @Tags        Subscriptions
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {object}  handlers.UsageResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /subscriptions/usage [get]
func (h *Handlers) Usage(c *gin.Context) {
	u, okay := h.currentUser(c)
	if !okay {
		return
	}
	ctx := c.Request.Context()

	usage, err := h.subSvc.UsageSummary(ctx, u.ID)
	if err != nil {
		failInternal(c, ErrCodeListFailed, err)
		return
	}
	total, err := h.subSvc.TotalMonthlyCost(ctx, u.ID)
	if err != nil {
		failInternal(c, ErrCodeListFailed, err)
		return
	}
	ok(c, http.StatusOK, UsageResponse{Usage: usage, TotalMonthlyCost: total})
}
