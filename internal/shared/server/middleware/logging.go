package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/telemetry"
)

// JobIDKey is the context key handlers set when a request touches a
// generation job.
const JobIDKey = "jobId"

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
		}
		if id := c.Param("id"); id != "" {
			fields["record_id"] = id
		}
		if jobID := c.GetString(JobIDKey); jobID != "" {
			fields["job_id"] = jobID
		}
		telemetry.Info("request.complete", fields)
	}
}
