package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/reelroom/internal/apperr"
	"github.com/lalith-99/reelroom/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// RouterConfig carries everything NewRouter mounts.
type RouterConfig struct {
	Auth       *AuthHandler
	Workspaces *WorkspaceHandler
	Videos     *VideoHandler
	Live       *LiveHandler
	Health     *HealthHandler

	// Verifier resolves bearer tokens for protected routes.
	Verifier middleware.Verifier

	Logger         *zap.Logger
	CORSOrigins    []string
	Secure         *secure.Options
	RateLimitRPS   float64
	RateLimitBurst int

	// TrustedProxies lists the CIDRs or IPs whose X-Forwarded-For header is
	// believed when resolving the client address. Empty trusts none, so the
	// rate limiter keys on the socket peer.
	TrustedProxies []string

	// FilesRoot, when set, is served under /files for the fs blob backend.
	FilesRoot string
}

// NewRouter mounts every route at the root and again under /api.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestLogger(cfg.Logger),
		middleware.Metrics(),
		middleware.CORS(cfg.CORSOrigins),
	)
	if cfg.Secure != nil {
		r.Use(middleware.Secure(*cfg.Secure))
	}
	r.Use(middleware.ErrorHandler(cfg.Logger))

	r.GET("/health", cfg.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.FilesRoot != "" {
		r.StaticFS("/files", http.Dir(cfg.FilesRoot))
	}

	// One limiter shared by both mounts so /api does not double the budget.
	authLimit := middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)
	requireAuth := middleware.RequireAuth(cfg.Verifier)
	optionalAuth := middleware.OptionalAuth(cfg.Verifier)

	mount := func(g *gin.RouterGroup) {
		authGroup := g.Group("/auth")
		authGroup.POST("/register", authLimit, cfg.Auth.Register)
		authGroup.POST("/login", authLimit, cfg.Auth.Login)
		authGroup.GET("/me", requireAuth, cfg.Auth.Me)

		ws := g.Group("/workspace", requireAuth)
		ws.GET("", cfg.Workspaces.List)
		ws.POST("", cfg.Workspaces.Create)
		ws.GET("/:id", cfg.Workspaces.Get)
		ws.POST("/:id/invite", cfg.Workspaces.Invite)

		video := g.Group("/video")
		video.GET("/share/:id", cfg.Videos.Share)
		video.POST("/:id/comments", optionalAuth, cfg.Videos.AddComment)
		if cfg.Live != nil {
			video.GET("/:id/comments/live", optionalAuth, cfg.Live.Stream)
		}

		authed := video.Group("", requireAuth)
		authed.GET("", cfg.Videos.List)
		authed.GET("/:id", cfg.Videos.Get)
		authed.PUT("/:id/privacy", cfg.Videos.SetPrivacy)
		authed.POST("/upload", cfg.Videos.Upload)
		authed.DELETE("/delete/:id", cfg.Videos.Delete)
	}

	mount(&r.RouterGroup)
	mount(r.Group("/api"))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": string(apperr.CodeNotFound), "message": "route not found"})
	})
	return r, nil
}
