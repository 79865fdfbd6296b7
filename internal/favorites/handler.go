package favorites

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
	rg.GET("/favorites", h.list)
	rg.PUT("/favorites/:id", h.put)
	rg.DELETE("/favorites/:id", h.remove)
}

type putReq struct {
	Title     string `json:"title" validate:"required"`
	PosterURL string `json:"poster_url"`
	Type      string `json:"type" validate:"required,oneof=serie pelicula"`
}

func (h *Handler) put(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, titleID, ok := favoriteID(c)
	if !ok {
		return
	}

	var req putReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
	if fields := validate.Map(req); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}

	f := models.Favorite{ID: id, Title: strings.TrimSpace(req.Title), PosterURL: req.PosterURL, Type: req.Type}
	if err := h.Repo.Upsert(c.Request.Context(), claims.UserID, f); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	saved, err := h.Repo.Get(c.Request.Context(), claims.UserID, id)
	if err != nil || saved == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch saved failed"})
		return
	}

	if h.Hub != nil {
		go h.Hub.Publish(sync.NewEvent(sync.EventFavoriteAdd, claims.UserID, kindOf(req.Type), titleID))
	}
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	typ := strings.ToLower(strings.TrimSpace(c.Query("type")))
	if typ != "" && typ != models.FavoriteTypeSeries && typ != models.FavoriteTypeMovie {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be serie or pelicula"})
		return
	}

	items, err := h.Repo.List(c.Request.Context(), claims.UserID, typ)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(items), "items": items})
}

func (h *Handler) remove(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, titleID, ok := favoriteID(c)
	if !ok {
		return
	}

	prev, err := h.Repo.Get(c.Request.Context(), claims.UserID, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	deleted, err := h.Repo.Delete(c.Request.Context(), claims.UserID, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if h.Hub != nil {
		kind := ""
		if prev != nil {
			kind = kindOf(prev.Type)
		}
		go h.Hub.Publish(sync.NewEvent(sync.EventFavoriteRemove, claims.UserID, kind, titleID))
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// favoriteID accepts only the numeric title id.
func favoriteID(c *gin.Context) (string, int64, bool) {
	id := strings.TrimSpace(c.Param("id"))
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a numeric title id"})
		return "", 0, false
	}
	return strconv.FormatInt(n, 10), n, true
}

func kindOf(favType string) string {
	if favType == models.FavoriteTypeMovie {
		return models.KindMovie
	}
	return models.KindSeries
}
