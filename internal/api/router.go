// Package api assembles the HTTP surface of the server.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	ginlogrus "github.com/toorop/gin-logrus"

	"seriesjp/internal/auth"
	"seriesjp/internal/catalog"
	"seriesjp/internal/comments"
	"seriesjp/internal/favorites"
	"seriesjp/internal/ratelimit"
	"seriesjp/internal/ratings"
	synchub "seriesjp/internal/sync"
	"seriesjp/internal/watchlist"
	"seriesjp/pkg/models"
)

type Deps struct {
	DB      *sqlx.DB
	Hub     *synchub.Hub
	Catalog *catalog.Service
	Tokens  auth.TokenService
	Google  auth.IdentityVerifier
	// per-IP limiter on the credential endpoints; nil disables it
	AuthLimiter *ratelimit.KeyedRateLimiter
	Live        *comments.Live
	Log         *logrus.Logger
}

func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(ginlogrus.Logger(d.Log), gin.Recovery())
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	log := d.Log.WithField("component", "api")
	if d.Hub == nil {
		d.Hub = synchub.NewHub(d.Log.WithField("component", "sync"))
	}
	if d.Live == nil {
		d.Live = comments.NewLive(0, d.Log.WithField("component", "comments"))
	}

	router.GET("/ws", synchub.WSHandler(d.Hub))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := d.Hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := d.DB.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	// Catalog (public)
	catalog.NewHandler(d.Catalog, models.KindMovie).RegisterRoutes(router.Group("/movies"))
	catalog.NewHandler(d.Catalog, models.KindSeries).RegisterRoutes(router.Group("/series"))

	// Auth
	authRepo := auth.NewRepo(d.DB)
	authHandler := auth.NewHandler(authRepo, d.Tokens, d.Google, d.Log.WithField("component", "auth"))
	var limit gin.HandlerFunc
	if d.AuthLimiter != nil {
		limit = ratelimit.Middleware(d.AuthLimiter, log)
	}
	authHandler.RegisterRoutes(router.Group("/auth"), limit)

	requireAuth := auth.AuthMiddleware(d.Tokens, authRepo)

	// Comments: reading is public, writing needs a token
	commentHandler := comments.NewHandler(comments.NewRepo(d.DB), d.Live, d.Hub)
	commentHandler.RegisterPublicRoutes(router.Group(""))
	commentHandler.RegisterProtectedRoutes(router.Group("", requireAuth))

	// Protected routes
	protected := router.Group("/users")
	protected.Use(requireAuth)

	authHandler.RegisterUserRoutes(protected)
	watchlist.NewHandler(watchlist.NewRepo(d.DB), d.Hub).RegisterRoutes(protected)
	favorites.NewHandler(favorites.NewRepo(d.DB), d.Hub).RegisterRoutes(protected)
	ratings.NewHandler(ratings.NewRepo(d.DB), d.Hub).RegisterRoutes(protected)

	return router
}
