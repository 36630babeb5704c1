package workerproc

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/server/middleware"
	"resume-tailor/internal/shared/server/respond"
	"resume-tailor/resume/service"
)

// Handler exposes the generator page over HTTP.
type Handler struct {
	Worker *Worker
}

// RegisterRoutes attaches POST /generate, GET /generate/:id and the
// WebSocket status stream GET /generate/:id/events. Extra handlers (rate
// limiting) run before each.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, extra ...gin.HandlerFunc) {
	rg.POST("/generate", chain(extra, h.submit)...)
	rg.GET("/generate/:id", chain(extra, h.get)...)
	rg.GET("/generate/:id/events", chain(extra, h.events)...)
}

func chain(extra []gin.HandlerFunc, last gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(extra)+1)
	return append(append(out, extra...), last)
}

func (h *Handler) submit(c *gin.Context) {
	var in service.GenerateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(in.JobDescription) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "jobDescription is required", nil)
		return
	}

	job, err := h.Worker.Submit(in)
	switch {
	case errors.Is(err, ErrQueueFull):
		respond.Error(c, http.StatusServiceUnavailable, "queue_full", err.Error(), nil)
		return
	case err != nil:
		respond.Error(c, http.StatusServiceUnavailable, "unavailable", err.Error(), nil)
		return
	}
	c.Set(middleware.JobIDKey, job.ID)
	c.Header("Location", "/api/v1/generate/"+job.ID)
	respond.JSON(c, http.StatusAccepted, gin.H{"jobId": job.ID, "status": job.Status})
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.JobIDKey, id)
	job, err := h.Worker.Get(id)
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
		return
	}
	respond.OK(c, job)
}
