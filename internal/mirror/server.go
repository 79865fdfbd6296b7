package mirror

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	ginlogrus "github.com/toorop/gin-logrus"

	"seriesjp/internal/tmdb"
	"seriesjp/pkg/models"
)

const recommendationCount = 20

func NewRouter(snap *Snapshot, log *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(ginlogrus.Logger(log), gin.Recovery())

	for prefix, kind := range map[string]string{"/movie": models.KindMovie, "/tv": models.KindSeries} {
		g := router.Group(prefix)
		g.GET("/popular", func(c *gin.Context) { popular(c, snap, kind) })
		g.GET("/:id", func(c *gin.Context) { details(c, snap, kind) })
		g.GET("/:id/recommendations", func(c *gin.Context) { recommendations(c, snap, kind) })
		g.GET("/:id/watch/providers", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "results": gin.H{}})
		})
	}
	router.GET("/search/movie", func(c *gin.Context) { search(c, snap, models.KindMovie) })
	router.GET("/search/tv", func(c *gin.Context) { search(c, snap, models.KindSeries) })

	return router
}

func popular(c *gin.Context, snap *Snapshot, kind string) {
	pages := snap.pages(kind)
	n, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || n < 1 {
		n = 1
	}
	if n > len(pages) {
		writePage(c, kind, models.Page{Page: n, TotalPages: len(pages)})
		return
	}
	p := pages[n-1]
	p.TotalPages = len(pages)
	writePage(c, kind, p)
}

func search(c *gin.Context, snap *Snapshot, kind string) {
	q := strings.ToLower(strings.TrimSpace(c.Query("query")))
	var hits []models.Title
	for _, t := range snap.titles(kind) {
		if q != "" && strings.Contains(strings.ToLower(t.Title), q) {
			hits = append(hits, t)
		}
	}
	writePage(c, kind, models.Page{Page: 1, TotalPages: 1, TotalResults: len(hits), Results: hits})
}

func details(c *gin.Context, snap *Snapshot, kind string) {
	t, ok := find(c, snap, kind)
	if !ok {
		return
	}
	if kind == models.KindMovie {
		c.JSON(http.StatusOK, tmdb.MovieFrom(t))
		return
	}
	c.JSON(http.StatusOK, tmdb.SeriesFrom(t))
}

// recommendations answers with the other popular titles of the same kind.
func recommendations(c *gin.Context, snap *Snapshot, kind string) {
	t, ok := find(c, snap, kind)
	if !ok {
		return
	}
	var out []models.Title
	for _, other := range snap.titles(kind) {
		if other.ID == t.ID {
			continue
		}
		out = append(out, other)
		if len(out) == recommendationCount {
			break
		}
	}
	writePage(c, kind, models.Page{Page: 1, TotalPages: 1, TotalResults: len(out), Results: out})
}

func find(c *gin.Context, snap *Snapshot, kind string) (models.Title, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err == nil {
		for _, t := range snap.titles(kind) {
			if t.ID == id {
				return t, true
			}
		}
	}
	c.JSON(http.StatusNotFound, gin.H{
		"status_code":    34,
		"status_message": "The resource you requested could not be found.",
	})
	return models.Title{}, false
}

func writePage(c *gin.Context, kind string, p models.Page) {
	results := make([]any, 0, len(p.Results))
	for _, t := range p.Results {
		if kind == models.KindMovie {
			results = append(results, tmdb.MovieFrom(t))
		} else {
			results = append(results, tmdb.SeriesFrom(t))
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"page":          p.Page,
		"total_pages":   p.TotalPages,
		"total_results": p.TotalResults,
		"results":       results,
	})
}
