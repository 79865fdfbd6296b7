package comments

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"seriesjp/internal/auth"
	"seriesjp/internal/logger"
	"seriesjp/internal/sync"
	"seriesjp/internal/validate"
	"seriesjp/pkg/models"
)

// Handler serves comment history and the live feed. Live is required.
type Handler struct {
	Repo *Repo
	Live *Live
	Hub  *sync.Hub
	Now  func() time.Time
}

func NewHandler(repo *Repo, live *Live, hub *sync.Hub) *Handler {
	if live == nil {
		live = NewLive(0, logger.Discard())
	}
	return &Handler{Repo: repo, Live: live, Hub: hub, Now: time.Now}
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/titles/:kind/:id/comments", h.list)
	rg.GET("/titles/:kind/:id/comments/live", h.live)
}

func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/titles/:kind/:id/comments", h.create)
}

type createReq struct {
	Username string `json:"username" validate:"max=30"`
	Score    int    `json:"score" validate:"gte=1,lte=10"`
	Text     string `json:"text" validate:"required,max=2000"`
}

func (h *Handler) create(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	kind, id, ok := titleParams(c)
	if !ok {
		return
	}

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	req.Username = strings.TrimSpace(req.Username)
	if fields := validate.Map(req); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}

	username := req.Username
	if username == "" {
		username = claims.Username
	}
	now := h.Now().UTC()

	saved, err := h.Live.Post(func() (*models.Comment, error) {
		return h.Repo.Append(c.Request.Context(), models.Comment{
			Kind:      kind,
			TitleID:   id,
			UserID:    claims.UserID,
			Username:  username,
			Score:     req.Score,
			Date:      now.Format(models.CommentDateLayout),
			Text:      req.Text,
			CreatedAt: now,
		})
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}

	if h.Hub != nil {
		ev := sync.NewEvent(sync.EventCommentAdd, claims.UserID, kind, id)
		ev.Score = saved.Score
		go h.Hub.Publish(ev)
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *Handler) list(c *gin.Context) {
	kind, id, ok := titleParams(c)
	if !ok {
		return
	}
	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)

	items, total, err := h.Repo.List(c.Request.Context(), kind, id, limit, offset)
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

// live upgrades to a websocket, replays the latest comments and then streams new ones.
func (h *Handler) live(c *gin.Context) {
	kind, id, ok := titleParams(c)
	if !ok {
		return
	}
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	room := models.TitleKey(kind, id)
	ctx := c.Request.Context()
	err = h.Live.Join(room, ws, func(n int) ([]models.Comment, error) {
		return h.Repo.Recent(ctx, kind, id, n)
	})
	if err != nil {
		_ = ws.Close()
		return
	}

	// read-only feed: wait for the client to go away
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	h.Live.Leave(room, ws)
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
