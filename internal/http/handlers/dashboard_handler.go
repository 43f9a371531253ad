// Dashboard HTTP handler.
//
// GET /dashboard assembles everything the landing page needs in one call:
// the profile's display name, whether any subscriptions exist, the
// subscription cards (name, logo, cost, clicks), the total monthly cost, and
// the recently viewed titles strip.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/domain"
)

// DashboardResponse is the aggregate payload for the landing page.
type DashboardResponse struct {
	UserName         string                 `json:"userName"`
	ColorMode        string                 `json:"colorMode"`
	FontSize         string                 `json:"fontSize"`
	FontType         string                 `json:"fontType"`
	HasSubscriptions bool                   `json:"hasSubscriptions"`
	Subscriptions    []SubscriptionResponse `json:"subscriptions"`
	TotalMonthlyCost float64                `json:"totalMonthlyCost"`
	RecentlyViewed   []domain.Title         `json:"recentlyViewed"`
}

// Dashboard godoc
// @ID          dashboard
// @Summary     Landing-page aggregate
// @Description Returns profile display data, subscription cards, total monthly cost, and recently viewed titles.
// @Tags        Dashboard
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {object}  handlers.DashboardResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /dashboard [get]
func (h *Handlers) Dashboard(c *gin.Context) {
	u, okay := h.currentUser(c)
	if !okay {
		return
	}
	ctx := c.Request.Context()

	records, err := h.subSvc.SubscriptionRecords(ctx, u.ID)
	if err != nil {
		failInternal(c, ErrCodeListFailed, err)
		return
	}
	total, err := h.subSvc.TotalMonthlyCost(ctx, u.ID)
	if err != nil {
		failInternal(c, ErrCodeListFailed, err)
		return
	}
	recent, err := h.titleSvc.RecentlyViewed(ctx, u.ID, 0)
	if err != nil {
		failInternal(c, ErrCodeListFailed, err)
		return
	}

	subs := make([]SubscriptionResponse, 0, len(records))
	for _, r := range records {
		subs = append(subs, SubscriptionResponse{
			StreamingServiceID: r.StreamingServiceID,
			Name:               r.StreamingService.Name,
			Region:             r.StreamingService.Region,
			BaseURL:            r.StreamingService.BaseURL,
			LogoURL:            r.StreamingService.LogoURL,
			MonthlyCost:        r.MonthlyCost,
			ClickCount:         r.ClickCount,
		})
	}

	ok(c, http.StatusOK, DashboardResponse{
		UserName:         strings.TrimSpace(u.FirstName + " " + u.LastName),
		ColorMode:        u.ColorMode,
		FontSize:         u.FontSize,
		FontType:         u.FontType,
		HasSubscriptions: len(subs) > 0,
		Subscriptions:    subs,
		TotalMonthlyCost: total,
		RecentlyViewed:   recent,
	})
}
