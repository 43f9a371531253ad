// Profile HTTP handlers.
//
// This file exposes the local user profile attached to the external identity:
//   - GET /profile              (profile fields + display preferences)
//   - PUT /profile/preferences  (update display preferences)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/services"
)

// UpdatePreferencesRequest is the JSON payload for updating display
// preferences. Every field is validated against its fixed allowed set.
type UpdatePreferencesRequest struct {
	ColorMode string `json:"colorMode" binding:"required"`
	FontSize  string `json:"fontSize" binding:"required"`
	FontType  string `json:"fontType" binding:"required"`
}

// Profile godoc
// @ID          getProfile
// @Summary     Current user profile
// @Description Returns the local profile for the authenticated principal, creating a default one on first sight.
// @Tags        Profile
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {object}  domain.User
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /profile [get]
func (h *Handlers) Profile(c *gin.Context) {
	u, okay := h.currentUser(c)
	if !okay {
		return
	}
	ok(c, http.StatusOK, u)
}

// UpdatePreferences godoc
// @ID          updatePreferences
// @Summary     Update display preferences
// @Description Overwrites color mode, font size, and font type after validating each value.
// @Tags        Profile
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.UpdatePreferencesRequest  true  "Preferences"
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     422  {object}  handlers.ErrorResponse  "Value outside allowed set"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /profile/preferences [put]
func (h *Handlers) UpdatePreferences(c *gin.Context) {
	u, okay := h.currentUser(c)
	if !okay {
		return
	}

	var req UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "colorMode, fontSize and fontType required")
		return
	}

	err := h.userSvc.UpdatePreferences(c.Request.Context(), u.ID, req.ColorMode, req.FontSize, req.FontType)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidPreference):
			fail(c, http.StatusUnprocessableEntity, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrUserNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		default:
			failInternal(c, ErrCodeUpdateFailed, err)
		}
		return
	}
	noContent(c)
}
