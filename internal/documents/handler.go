package documents

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/server/respond"
	"resume-tailor/resume/model"
)

const maxUploadSize = 10 << 20 // 10MB

// RecordLoader loads a saved application by identifier.
type RecordLoader interface {
	Load(id string) (model.Record, error)
}

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc     *Service
	Records RecordLoader
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, records RecordLoader) *Handler {
	return &Handler{Svc: svc, Records: records}
}

// RegisterRoutes attaches base-résumé and results routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/base-resumes", h.upload)
	rg.GET("/base-resumes", h.listBaseResumes)
	rg.DELETE("/base-resumes/:name", h.deleteBaseResume)
	rg.GET("/results", h.listResults)
	rg.GET("/results/:name", h.download)
	rg.GET("/records/:id/links", h.links)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	doc, err := h.Svc.UploadBaseResume(c.Request.Context(), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, doc)
}

func (h *Handler) listBaseResumes(c *gin.Context) {
	docs, err := h.Svc.ListBaseResumes()
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list base resumes", nil)
		return
	}
	respond.OK(c, gin.H{"items": docs})
}

func (h *Handler) deleteBaseResume(c *gin.Context) {
	if err := h.Svc.DeleteBaseResume(c.Param("name")); err != nil {
		h.serviceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listResults(c *gin.Context) {
	docs, err := h.Svc.ListResults()
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list results", nil)
		return
	}
	respond.OK(c, gin.H{"items": docs})
}

func (h *Handler) download(c *gin.Context) {
	path, err := h.Svc.ResultPath(c.Param("name"))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.FileAttachment(path, c.Param("name"))
}

func (h *Handler) links(c *gin.Context) {
	record, err := h.Records.Load(c.Param("id"))
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "record not found", nil)
		return
	}
	links, err := h.Svc.Links(c.Request.Context(), record)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	if links == nil {
		links = []Link{}
	}
	respond.OK(c, gin.H{"items": links})
}

func (h *Handler) serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
	case errors.Is(err, ErrNoMirror):
		respond.Error(c, http.StatusConflict, "mirror_unavailable", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", err.Error(), nil)
	}
}
