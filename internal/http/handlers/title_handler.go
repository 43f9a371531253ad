// Title HTTP handlers.
//
// This file exposes REST endpoints for captured movie metadata and the
// per-user view history:
//   - POST /titles/capture   (upsert metadata from the browse surface)
//   - GET  /titles/recent    (recently viewed, newest first, capped)
//   - POST /titles/{id}/view (record a view)
//
// Capture accepts the PascalCase payload the front end has always sent; the
// stored entity keeps the internal snake_case shape.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/domain"
	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/services"
	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/utils"
)

// CaptureTitleRequest is the JSON payload for capturing title metadata.
// Field names mirror the legacy front-end contract.
type CaptureTitleRequest struct {
	TitleName         string  `json:"TitleName" binding:"required"`
	Year              int     `json:"Year"`
	PosterURL         string  `json:"PosterUrl"`
	Genres            string  `json:"Genres"`
	Rating            string  `json:"Rating"`
	Overview          string  `json:"Overview"`
	StreamingServices string  `json:"StreamingServices"`
	ExternalID        string  `json:"ExternalId"`
	Type              string  `json:"Type"`
}

// CaptureTitle godoc
// @ID          captureTitle
// @Summary     Capture movie metadata
// @Description Upserts a title keyed by (normalized name, year). Re-capturing an existing title refreshes its timestamp and preserves stored fields.
// @Tags        Titles
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.CaptureTitleRequest  true  "Title metadata"
//
// @Success     200  {object}  domain.Title
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /titles/capture [post]
func (h *Handlers) CaptureTitle(c *gin.Context) {
	if _, okay := h.currentUser(c); !okay {
		return
	}

	var req CaptureTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "TitleName required")
		return
	}

	t, err := h.titleSvc.Capture(c.Request.Context(), &domain.Title{
		ExternalID:        req.ExternalID,
		TitleName:         req.TitleName,
		Year:              req.Year,
		Type:              req.Type,
		PosterURL:         req.PosterURL,
		Genres:            req.Genres,
		Rating:            req.Rating,
		Overview:          req.Overview,
		StreamingServices: req.StreamingServices,
	})
	if err != nil {
		if errors.Is(err, services.ErrNilTitle) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		failInternal(c, ErrCodeCaptureFailed, err)
		return
	}
	ok(c, http.StatusOK, t)
}

// RecentTitles godoc
// @ID          recentTitles
// @Summary     Recently viewed titles
// @Description Returns the user's view history, newest first. limit is capped at 10.
// @Tags        Titles
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       limit      query   int     false "Max rows"  minimum(1) maximum(10) default(10)
//
// @Success     200  {array}   domain.Title
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /titles/recent [get]
func (h *Handlers) RecentTitles(c *gin.Context) {
	u, okay := h.currentUser(c)
	if !okay {
		return
	}

	limit := utils.AtoiDefault(c.Query("limit"), 0)
	titles, err := h.titleSvc.RecentlyViewed(c.Request.Context(), u.ID, limit)
	if err != nil {
		failInternal(c, ErrCodeListFailed, err)
		return
	}
	ok(c, http.StatusOK, titles)
}

// MarkTitleViewed godoc
// @ID          markTitleViewed
// @Summary     Record a title view
// @Description Upserts the view-history row for the title and moves the profile's most-recently-viewed pointer.
// @Tags        Titles
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"   example(user123)
// @Param       id         path    string  true  "Title ID (UUID)"         format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Title not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /titles/{id}/view [post]
func (h *Handlers) MarkTitleViewed(c *gin.Context) {
	u, okay := h.currentUser(c)
	if !okay {
		return
	}

	titleID := c.Param("id")
	if _, err := uuid.Parse(titleID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title id must be a UUID")
		return
	}

	if err := h.titleSvc.MarkViewed(c.Request.Context(), u.ID, titleID); err != nil {
		if errors.Is(err, services.ErrTitleNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "title not found")
			return
		}
		failInternal(c, ErrCodeInternal, err)
		return
	}
	noContent(c)
}
