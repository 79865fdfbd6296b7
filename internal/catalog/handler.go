package catalog

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"seriesjp/internal/tmdb"
)

// Handler serves one title kind; mount it once under /movies and once under /series.
type Handler struct {
	Service *Service
	Kind    string
}

func NewHandler(svc *Service, kind string) *Handler {
	return &Handler{Service: svc, Kind: kind}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/popular", h.popular)                     // GET /movies/popular?page=
	rg.GET("/search", h.search)                       // GET /movies/search?q=&page=
	rg.GET("/:id", h.details)                         // GET /movies/:id
	rg.GET("/:id/recommendations", h.recommendations) // GET /movies/:id/recommendations
	rg.GET("/:id/providers", h.providers)             // GET /movies/:id/providers?region=
}

func (h *Handler) popular(c *gin.Context) {
	feed, err := h.Service.Popular(c.Request.Context(), h.Kind, parseInt(c.Query("page"), 1))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

func (h *Handler) search(c *gin.Context) {
	feed, err := h.Service.Search(c.Request.Context(), h.Kind, c.Query("q"), parseInt(c.Query("page"), 1))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

func (h *Handler) details(c *gin.Context) {
	id, ok := titleID(c)
	if !ok {
		return
	}
	t, err := h.Service.Details(c.Request.Context(), h.Kind, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) recommendations(c *gin.Context) {
	id, ok := titleID(c)
	if !ok {
		return
	}
	p, err := h.Service.Recommendations(c.Request.Context(), h.Kind, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) providers(c *gin.Context) {
	id, ok := titleID(c)
	if !ok {
		return
	}
	rp, err := h.Service.Providers(c.Request.Context(), h.Kind, id, c.Query("region"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rp)
}

func titleID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	var se *tmdb.StatusError
	switch {
	case errors.Is(err, ErrUnknownKind):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &se) && se.Code == http.StatusNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable"})
	}
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
