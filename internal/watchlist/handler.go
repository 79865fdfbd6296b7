package watchlist

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"seriesjp/internal/auth"
	"seriesjp/internal/sync"
	"seriesjp/internal/validate"
	"seriesjp/pkg/models"
)

type Handler struct {
	Repo *Repo
	Hub  *sync.Hub
}

func NewHandler(repo *Repo, hub *sync.Hub) *Handler {
	return &Handler{Repo: repo, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/watchlist", h.list)
	rg.POST("/watchlist", h.add)
	rg.GET("/watchlist/:kind/:id", h.getOne)
	rg.DELETE("/watchlist/:kind/:id", h.remove)
}

type addReq struct {
	ID          int64   `json:"id" validate:"required,gt=0"`
	Kind        string  `json:"kind" validate:"required"`
	Title       string  `json:"title" validate:"required"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
}

func (h *Handler) add(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req addReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if fields := validate.Map(req); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}
	kind := models.NormalizeKind(strings.ToLower(strings.TrimSpace(req.Kind)))
	if kind == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be movie or series"})
		return
	}

	t := models.Title{
		ID:          req.ID,
		Kind:        kind,
		Title:       strings.TrimSpace(req.Title),
		Overview:    req.Overview,
		PosterPath:  req.PosterPath,
		ReleaseDate: req.ReleaseDate,
		VoteAverage: req.VoteAverage,
	}
	created, err := h.Repo.Add(c.Request.Context(), claims.UserID, t)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	saved, err := h.Repo.Get(c.Request.Context(), claims.UserID, kind, req.ID)
	if err != nil || saved == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch saved failed"})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		if h.Hub != nil {
			go h.Hub.Publish(sync.NewEvent(sync.EventWatchlistAdd, claims.UserID, kind, req.ID))
		}
	}
	c.JSON(status, saved)
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	kind := strings.TrimSpace(c.Query("kind"))
	if kind != "" {
		kind = models.NormalizeKind(strings.ToLower(kind))
		if kind == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid kind filter"})
			return
		}
	}

	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)

	items, total, err := h.Repo.List(c.Request.Context(), claims.UserID, kind, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"items":  items,
	})
}

func (h *Handler) remove(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	kind, id, ok := titleParams(c)
	if !ok {
		return
	}

	deleted, err := h.Repo.Delete(c.Request.Context(), claims.UserID, kind, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if h.Hub != nil {
		go h.Hub.Publish(sync.NewEvent(sync.EventWatchlistRemove, claims.UserID, kind, id))
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) getOne(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	kind, id, ok := titleParams(c)
	if !ok {
		return
	}

	e, err := h.Repo.Get(c.Request.Context(), claims.UserID, kind, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if e == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, e)
}

func titleParams(c *gin.Context) (string, int64, bool) {
	kind := models.NormalizeKind(strings.ToLower(c.Param("kind")))
	if kind == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be movie or series"})
		return "", 0, false
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return "", 0, false
	}
	return kind, id, true
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
