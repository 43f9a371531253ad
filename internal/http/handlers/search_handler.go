// Search and recommendation HTTP handlers.
//
// This file exposes the discovery surface:
//   - GET  /search/movies?query=     (external provider search)
//   - GET  /movies/{title}/similar   (AI "more like this" recommendations)
//   - POST /chat                     (free-text AI chat reply)
//
// Discovery endpoints degrade instead of failing: provider or model outages
// yield empty results (or an apology reply for chat) with HTTP 200, because a
// broken recommendation panel must never take down the page around it.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/http/middleware"
	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/movies"
	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/openai"
)

// ChatRequest is the JSON payload for the free-text chat endpoint.
type ChatRequest struct {
	Query string `json:"query" binding:"required"`
}

// ChatResponse wraps the HTML-formatted chat reply.
type ChatResponse struct {
	Response string `json:"response"`
}

// SearchMovies godoc
// @ID          searchMovies
// @Summary     Search movies by title
// @Description Proxies the external movie-search provider. Blank queries and provider failures return an empty list.
// @Tags        Discovery
// @Produce     json
//
// @Param       query  query  string  false "Title to search for"  example(dune)
//
// @Success     200  {array}  movies.Movie
// @Router      /search/movies [get]
func (h *Handlers) SearchMovies(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		ok(c, http.StatusOK, []movies.Movie{})
		return
	}

	results, err := h.movieSvc.Search(c.Request.Context(), query)
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Str("query", query).
			Msg("movie search failed, returning empty result")
		ok(c, http.StatusOK, []movies.Movie{})
		return
	}
	ok(c, http.StatusOK, results)
}

// SimilarMovies godoc
// @ID          similarMovies
// @Summary     AI recommendations similar to a title
// @Description Asks the model for five similar movies. Model or parse failures return an empty list.
// @Tags        Discovery
// @Produce     json
//
// @Param       title  path  string  true "Reference movie title"  example(Inception)
//
// @Success     200  {array}  openai.MovieRecommendation
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Router      /movies/{title}/similar [get]
func (h *Handlers) SimilarMovies(c *gin.Context) {
	title := strings.TrimSpace(c.Param("title"))
	if title == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title required")
		return
	}

	recs, err := h.recSvc.SimilarMovies(c.Request.Context(), title)
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Str("title", title).
			Msg("similar movies failed, returning empty result")
		ok(c, http.StatusOK, []openai.MovieRecommendation{})
		return
	}
	ok(c, http.StatusOK, recs)
}

// Chat godoc
// @ID          chat
// @Summary     Free-text movie chat
// @Description Answers a movie question with HTML-formatted text; mentioned titles are wrapped in clickable anchors. Failures degrade to an apology reply.
// @Tags        Discovery
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ChatRequest  true  "Chat query"
//
// @Success     200  {object}  handlers.ChatResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Router      /chat [post]
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query required")
		return
	}

	reply := h.recSvc.ChatResponse(c.Request.Context(), req.Query)
	ok(c, http.StatusOK, ChatResponse{Response: reply})
}
