package favorites

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seriesjp/internal/auth"
	"seriesjp/internal/logger"
	"seriesjp/internal/sync"
	"seriesjp/pkg/models"
)

func newRouter(t *testing.T) (*gin.Engine, *sync.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := sync.NewHub(logger.Discard())
	r := gin.New()
	g := r.Group("/users", func(c *gin.Context) {
		c.Set(auth.CtxClaimsKey, &auth.Claims{UserID: "u1"})
	})
	NewHandler(newRepo(t), hub).RegisterRoutes(g)
	return r, hub
}

func call(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPutListRemove(t *testing.T) {
	r, hub := newRouter(t)
	events, stop := hub.Subscribe(4)
	defer stop()

	w := call(r, http.MethodPut, "/users/favorites/550", gin.H{"title": "El club de la lucha", "poster_url": "/p.jpg", "type": "pelicula"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var f models.Favorite
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &f))
	assert.Equal(t, "550", f.ID)

	select {
	case ev := <-events:
		assert.Equal(t, sync.EventFavoriteAdd, ev.Type)
		assert.Equal(t, models.KindMovie, ev.Kind)
		assert.Equal(t, int64(550), ev.TitleID)
	case <-time.After(time.Second):
		t.Fatal("no event")
	}

	w = call(r, http.MethodGet, "/users/favorites", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Total int               `json:"total"`
		Items []models.Favorite `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Total)

	assert.Equal(t, http.StatusOK, call(r, http.MethodDelete, "/users/favorites/550", nil).Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodDelete, "/users/favorites/550", nil).Code)
}

func TestPutRejects(t *testing.T) {
	r, _ := newRouter(t)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPut, "/users/favorites/abc", gin.H{"title": "x", "type": "serie"}).Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPut, "/users/favorites/1", gin.H{"title": "x", "type": "anime"}).Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPut, "/users/favorites/1", gin.H{"type": "serie"}).Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodGet, "/users/favorites?type=anime", nil).Code)
}
