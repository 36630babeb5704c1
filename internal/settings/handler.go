package settings

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/server/respond"
)

// Handler exposes the settings page.
type Handler struct {
	Store *Store
}

// RegisterRoutes attaches GET and PUT /settings.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/settings", h.get)
	rg.PUT("/settings", h.update)
}

func (h *Handler) get(c *gin.Context) {
	s, err := h.Store.Load()
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", err.Error(), nil)
		return
	}
	respond.OK(c, s)
}

func (h *Handler) update(c *gin.Context) {
	var patch Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid settings payload", nil)
		return
	}
	s, err := h.Store.Update(patch)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", err.Error(), nil)
		return
	}
	respond.OK(c, s)
}
