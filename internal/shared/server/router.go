package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/documents"
	"resume-tailor/internal/records"
	"resume-tailor/internal/services/health"
	"resume-tailor/internal/settings"
	"resume-tailor/internal/shared/config"
	"resume-tailor/internal/shared/metrics"
	"resume-tailor/internal/shared/server/middleware"
	"resume-tailor/internal/shared/server/respond"
	"resume-tailor/internal/workerproc"
)

const (
	rateGroupGenerate = "GENERATE"
	rateGroupPolling  = "POLLING"
)

// Deps are the handlers the router mounts. Nil handlers are skipped.
type Deps struct {
	Health    *health.Service
	Records   *records.Handler
	Settings  *settings.Handler
	Generate  *workerproc.Handler
	Documents *documents.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		respond.JSON(c, http.StatusOK, deps.Health.Status())
	})
	api.GET("/metrics", metrics.Handler())

	if deps.Records != nil {
		deps.Records.RegisterRoutes(api)
	}
	if deps.Settings != nil {
		deps.Settings.RegisterRoutes(api)
	}
	if deps.Documents != nil {
		deps.Documents.RegisterRoutes(api)
	}
	if deps.Generate != nil {
		deps.Generate.RegisterRoutes(api, generateRateLimit())
	}
	return r
}

func generateRateLimit() gin.HandlerFunc {
	return middleware.RateLimit(middleware.RateLimitConfig{
		DefaultGroup: rateGroupGenerate,
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodGet {
				return rateGroupPolling
			}
			return rateGroupGenerate
		},
		Rules: map[string]middleware.RateLimitRule{
			rateGroupGenerate: {Rate: 1.0 / 10, Burst: 3},
			rateGroupPolling:  {Rate: 5, Burst: 20},
		},
	})
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
