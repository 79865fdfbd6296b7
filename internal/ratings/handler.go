package ratings

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
	rg.GET("/ratings", h.all)
	rg.GET("/ratings/:kind/:id", h.get)
	rg.PUT("/ratings/:kind/:id", h.put)
}

type putReq struct {
	Score int `json:"score" validate:"gte=1,lte=10"`
}

func (h *Handler) put(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	kind, id, ok := titleParams(c)
	if !ok {
		return
	}

	var req putReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if fields := validate.Map(req); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}

	if err := h.Repo.Save(c.Request.Context(), claims.UserID, kind, id, req.Score); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	if h.Hub != nil {
		ev := sync.NewEvent(sync.EventRatingSet, claims.UserID, kind, id)
		ev.Score = req.Score
		go h.Hub.Publish(ev)
	}
	c.JSON(http.StatusOK, models.Rating{UserID: claims.UserID, Kind: kind, TitleID: id, Score: req.Score})
}

func (h *Handler) get(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	kind, id, ok := titleParams(c)
	if !ok {
		return
	}

	rt, err := h.Repo.Load(c.Request.Context(), claims.UserID, kind, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if rt == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, rt)
}

// all answers ?kind=movie|series with the id->score map, otherwise the full list.
func (h *Handler) all(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if k := strings.TrimSpace(c.Query("kind")); k != "" {
		kind := models.NormalizeKind(strings.ToLower(k))
		if kind == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid kind filter"})
			return
		}
		m, err := h.Repo.All(c.Request.Context(), claims.UserID, kind)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
			return
		}
		scores := make(map[string]int, len(m))
		for id, s := range m {
			scores[strconv.FormatInt(id, 10)] = s
		}
		c.JSON(http.StatusOK, gin.H{"kind": kind, "ratings": scores})
		return
	}

	items, err := h.Repo.List(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(items), "items": items})
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
