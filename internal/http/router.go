// Package httpapi assembles the HTTP transport: Gin engine, middleware chain,
// and the versioned API routes, with every dependency (DB, AI client, movie
// search client, config) injected by the caller.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/config"
	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/http/handlers"
	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/http/middleware"
	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/movies"
	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/openai"
	"github.com/moviesmadeeasy/go-subscriptions-backend/internal/services"
)

// RegisterRoutes installs the middleware chain and mounts every endpoint on
// the engine. Ordering is deliberate: tracing wraps everything, the request
// id must exist before the logger runs, and recovery sits after the logger so
// a panic is logged with its correlation id. Metrics and gzip come before the
// rate limiter so throttled requests are still counted.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, ai *openai.Service, movieAPI *movies.Client, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // provider keys never reach logs
		},
	}))
	r.Use(middleware.Recovery())

	// 1 MiB request body cap; large enough for any capture payload.
	r.Use(limitBody(1 << 20))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Poster URLs and overview text compress well.
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// Liveness probes and scrapes must not starve behind a drained bucket.
	r.Use(middleware.BypassPaths("/health", "/metrics"))
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	installCORS(r, cfg.CORS)

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	subSvc := services.NewSubscriptionService(db)
	titleSvc := &services.TitleService{DB: db}
	userSvc := &services.UserService{DB: db}
	h := handlers.New(subSvc, titleSvc, userSvc, ai, movieAPI)

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/dashboard", h.Dashboard)

		api.GET("/subscriptions", h.ListSubscriptions)
		api.PUT("/subscriptions", h.UpdateSubscriptions)
		api.GET("/subscriptions/available", h.ListAvailableServices)
		api.POST("/subscriptions/clicks", h.TrackClick)
		api.GET("/subscriptions/usage", h.Usage)

		api.POST("/titles/capture", h.CaptureTitle)
		api.GET("/titles/recent", h.RecentTitles)
		api.POST("/titles/:id/view", h.MarkTitleViewed)

		api.GET("/profile", h.Profile)
		api.PUT("/profile/preferences", h.UpdatePreferences)

		api.GET("/search/movies", h.SearchMovies)
		api.GET("/movies/:title/similar", h.SimilarMovies)
		api.POST("/chat", h.Chat)
	}
}

// CORS defaults shared by both branches of installCORS.
var (
	corsMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"}
	corsExpose  = []string{"X-Request-ID", "Content-Length"}
)

// installCORS wires the CORS posture. Without an allowlist every origin is
// accepted and ACAO is forced to "*" even for requests carrying no Origin
// header, so simple health checks and tests see a consistent response. With
// an allowlist, matching origins are echoed back with Vary: Origin.
func installCORS(r *gin.Engine, cc config.CORSConfig) {
	if len(cc.AllowedOrigins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    corsExpose,
			AllowCredentials: false, // must stay false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
		return
	}

	allowed := make(map[string]struct{}, len(cc.AllowedOrigins))
	for _, o := range cc.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
		}
		c.Next()
	})
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cc.AllowedOrigins,
		AllowMethods:     corsMethods,
		AllowHeaders:     corsHeaders,
		ExposeHeaders:    corsExpose,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
}

// limitBody caps the request body at maxBytes via http.MaxBytesReader, so an
// oversized upload fails at the first body read instead of buffering.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "" and "/" as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
