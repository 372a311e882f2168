package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finops-backend/internal/shared/config"
	"finops-backend/internal/shared/metrics"
	"finops-backend/internal/shared/server/middleware"
	"finops-backend/internal/shared/server/respond"
)

// RouteRegistrar attaches a feature's routes to the API group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries everything NewRouter needs; nil handlers are skipped so
// partial wiring (worker-only builds, tests) stays possible.
type RouterDeps struct {
	Config         config.Config
	IngestHandler  RouteRegistrar
	JobsHandler    RouteRegistrar
	ReportsHandler RouteRegistrar
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.APIKey),
		middleware.RateLimit(rateLimits()),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	for _, h := range []RouteRegistrar{deps.IngestHandler, deps.JobsHandler, deps.ReportsHandler} {
		if h != nil {
			h.RegisterRoutes(api)
		}
	}

	return r
}

// rateLimits keeps status polling cheap while everything else shares a
// tighter default bucket.
func rateLimits() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		DefaultGroup: "DEFAULT",
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodGet && c.FullPath() == "/api/v1/jobs/:id" {
				return "POLLING"
			}
			return "DEFAULT"
		},
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT": {Rate: 5, Burst: 20},
			"POLLING": {Rate: 20, Burst: 60},
		},
	}
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
