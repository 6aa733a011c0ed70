package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mat-portal/internal/shared/config"
	"mat-portal/internal/shared/metrics"
	"mat-portal/internal/shared/server/middleware"
	"mat-portal/internal/shared/server/respond"
	"mat-portal/internal/wizard"
)

// RouterDeps bundles handlers needed by the router.
type RouterDeps struct {
	Config        config.Config
	WizardHandler *wizard.Handler
	UploadLimiter *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())

	if deps.WizardHandler != nil {
		deps.WizardHandler.RegisterRoutes(api)

		svc := deps.WizardHandler.Svc
		files := api.Group("")
		files.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Limiter: deps.UploadLimiter,
			Rule: middleware.RateLimitRule{
				Rate:  deps.Config.UploadRateLimitRPS,
				Burst: deps.Config.UploadRateLimitBurst,
			},
			// Unknown ids share the caller's IP bucket.
			KeyFor: func(c *gin.Context) string {
				id := c.Param("id")
				if svc.Exists(c.Request.Context(), id) {
					return "session:" + id
				}
				return ""
			},
		}))
		deps.WizardHandler.RegisterFileRoutes(files)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
