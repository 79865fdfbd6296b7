package comments

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seriesjp/internal/auth"
	"seriesjp/internal/logger"
	"seriesjp/pkg/database/dbtest"
	"seriesjp/pkg/models"
)

var fixedNow = time.Date(2024, 12, 24, 21, 30, 0, 0, time.UTC)

func newRouter(t *testing.T) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewHandler(NewRepo(dbtest.Open(t)), NewLive(2, logger.Discard()), nil)
	h.Now = func() time.Time { return fixedNow }

	r := gin.New()
	h.RegisterPublicRoutes(r.Group(""))
	h.RegisterProtectedRoutes(r.Group("", func(c *gin.Context) {
		c.Set(auth.CtxClaimsKey, &auth.Claims{UserID: "u1", Username: "ana"})
	}))
	return r, h
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

func TestCreateDefaultsUsernameAndStampsDate(t *testing.T) {
	r, _ := newRouter(t)

	w := call(r, http.MethodPost, "/titles/series/1399/comments", gin.H{"score": 9, "text": "  Brutal  "})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var c models.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
	assert.Equal(t, "ana", c.Username)
	assert.Equal(t, "2024-12-24", c.Date)
	assert.Equal(t, "Brutal", c.Text)
	assert.Equal(t, "u1", c.UserID)

	w = call(r, http.MethodPost, "/titles/series/1399/comments", gin.H{"username": "Anita", "score": 4, "text": "meh"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = call(r, http.MethodGet, "/titles/series/1399/comments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Total int              `json:"total"`
		Items []models.Comment `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, "Brutal", body.Items[0].Text)
	assert.Equal(t, "Anita", body.Items[1].Username)
}

func TestCreateValidation(t *testing.T) {
	r, _ := newRouter(t)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPost, "/titles/movie/1/comments", gin.H{"score": 0, "text": "x"}).Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPost, "/titles/movie/1/comments", gin.H{"score": 5, "text": "   "}).Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPost, "/titles/anime/1/comments", gin.H{"score": 5, "text": "x"}).Code)
}

func TestLiveReplaysThenStreams(t *testing.T) {
	r, h := newRouter(t)
	for _, text := range []string{"uno", "dos", "tres"} {
		w := call(r, http.MethodPost, "/titles/movie/550/comments", gin.H{"score": 8, "text": text})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	srv := httptest.NewServer(r)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/titles/movie/550/comments/live"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))

	// replay is capped at the last two
	var got models.Comment
	require.NoError(t, ws.ReadJSON(&got))
	assert.Equal(t, "dos", got.Text)
	require.NoError(t, ws.ReadJSON(&got))
	assert.Equal(t, "tres", got.Text)

	require.Eventually(t, func() bool { return h.Live.Listeners("movie:550") == 1 }, time.Second, 10*time.Millisecond)

	w := call(r, http.MethodPost, "/titles/movie/550/comments", gin.H{"score": 10, "text": "cuatro"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.NoError(t, ws.ReadJSON(&got))
	assert.Equal(t, "cuatro", got.Text)
}

func TestLiveDeliversEachCommentOnceWhileJoining(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewRepo(dbtest.Open(t)), NewLive(100, logger.Discard()), nil)
	r := gin.New()
	h.RegisterPublicRoutes(r.Group(""))
	h.RegisterProtectedRoutes(r.Group("", func(c *gin.Context) {
		c.Set(auth.CtxClaimsKey, &auth.Claims{UserID: "u1", Username: "ana"})
	}))
	srv := httptest.NewServer(r)
	defer srv.Close()

	const total = 30
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < total; i++ {
			call(r, http.MethodPost, "/titles/movie/7/comments", gin.H{"score": 5, "text": strconv.Itoa(i)})
		}
	}()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/titles/movie/7/comments/live"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()
	<-done

	seen := map[string]int{}
	for len(seen) < total {
		_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got models.Comment
		require.NoError(t, ws.ReadJSON(&got), "received %d of %d", len(seen), total)
		seen[got.ID]++
	}
	_ = ws.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var extra models.Comment
	assert.Error(t, ws.ReadJSON(&extra), "no comment should arrive twice")
	for id, n := range seen {
		assert.Equal(t, 1, n, id)
	}
}

func TestNewHandlerDefaultsLive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewRepo(dbtest.Open(t)), nil, nil)
	require.NotNil(t, h.Live)

	r := gin.New()
	h.RegisterPublicRoutes(r.Group(""))
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/titles/series/1/comments/live"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = ws.Close()
}
