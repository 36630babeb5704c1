package records

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/metrics"
	"resume-tailor/internal/shared/server/respond"
	"resume-tailor/resume/model"
)

const filterDateLayout = "2006-01-02"

// Handler wires HTTP handlers to the store.
type Handler struct {
	Store *Store
	Now   func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(store *Store) *Handler {
	return &Handler{Store: store, Now: time.Now}
}

// RegisterRoutes attaches history, archive and statistics routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/records", h.list)
	rg.POST("/records/archive-expired", h.archiveExpired)
	rg.GET("/records/:id", h.get)
	rg.PUT("/records/:id/favorite", h.favorite)
	rg.POST("/records/:id/archive", h.archive)
	rg.GET("/archive", h.listArchived)
	rg.POST("/archive/:id/restore", h.restore)
	rg.GET("/stats", h.stats)
}

type entryResponse struct {
	ID       string       `json:"id"`
	AgeColor string       `json:"ageColor,omitempty"`
	Record   model.Record `json:"record"`
}

func (h *Handler) toResponses(entries []Entry) []entryResponse {
	now := h.Now()
	out := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		resp := entryResponse{ID: entry.ID, Record: entry.Record}
		if created, err := entry.Record.Created(); err == nil {
			resp.AgeColor = AgeColor(created, now)
		}
		out = append(out, resp)
	}
	return out
}

func parseFilter(c *gin.Context) (Filter, error) {
	f := Filter{
		Query:   c.Query("q"),
		Company: c.Query("company"),
		Model:   c.Query("model"),
	}
	if raw := strings.TrimSpace(c.Query("favorite")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Filter{}, errors.New("favorite must be a boolean")
		}
		f.FavoriteOnly = v
	}
	for key, dst := range map[string]*time.Time{"after": &f.After, "before": &f.Before} {
		raw := strings.TrimSpace(c.Query(key))
		if raw == "" {
			continue
		}
		t, err := time.ParseInLocation(filterDateLayout, raw, time.Local)
		if err != nil {
			return Filter{}, errors.New(key + " must be YYYY-MM-DD")
		}
		if key == "before" {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		*dst = t
	}
	return f, nil
}

func (h *Handler) list(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	entries, err := h.Store.ListAll()
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to list records", nil)
		return
	}
	entries = filter.Apply(entries)
	SortByCreated(entries)
	respond.OK(c, gin.H{"items": h.toResponses(entries)})
}

func (h *Handler) listArchived(c *gin.Context) {
	entries, err := h.Store.ListArchived()
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to list archive", nil)
		return
	}
	SortByCreated(entries)
	respond.OK(c, gin.H{"items": h.toResponses(entries)})
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	record, err := h.Store.Load(id)
	if err != nil {
		h.storeError(c, err)
		return
	}
	respond.OK(c, h.toResponses([]Entry{{ID: id, Record: record}})[0])
}

type favoriteRequest struct {
	Favorite *bool `json:"favorite"`
}

func (h *Handler) favorite(c *gin.Context) {
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Favorite == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "favorite is required", nil)
		return
	}
	id := c.Param("id")
	record, err := h.Store.SetFavorite(id, *req.Favorite)
	if err != nil {
		h.storeError(c, err)
		return
	}
	respond.OK(c, h.toResponses([]Entry{{ID: id, Record: record}})[0])
}

func (h *Handler) archive(c *gin.Context) {
	result, err := h.Store.Archive(c.Param("id"))
	if err != nil {
		h.storeError(c, err)
		return
	}
	respond.OK(c, result)
}

func (h *Handler) restore(c *gin.Context) {
	result, err := h.Store.Restore(c.Param("id"))
	if err != nil {
		h.storeError(c, err)
		return
	}
	respond.OK(c, result)
}

func (h *Handler) archiveExpired(c *gin.Context) {
	moved, err := h.Store.ArchiveExpired(h.Now())
	metrics.AddRecordsArchived(len(moved))
	resp := gin.H{"archived": moved}
	if moved == nil {
		resp["archived"] = []MoveResult{}
	}
	if err != nil {
		resp["errors"] = strings.Split(err.Error(), "\n")
	}
	respond.OK(c, resp)
}

func (h *Handler) stats(c *gin.Context) {
	active, err := h.Store.ListAll()
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to list records", nil)
		return
	}
	archived, err := h.Store.ListArchived()
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to list archive", nil)
		return
	}
	respond.OK(c, ComputeStats(active, archived, h.Now()))
}

func (h *Handler) storeError(c *gin.Context, err error) {
	var moveErr *MoveError
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.As(err, &moveErr) && errors.Is(err, ErrDestinationExists):
		respond.Error(c, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "record not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal", err.Error(), nil)
	}
}
