package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"seriesjp/internal/api"
	"seriesjp/internal/auth"
	"seriesjp/internal/cache"
	"seriesjp/internal/catalog"
	"seriesjp/internal/comments"
	"seriesjp/internal/logger"
	"seriesjp/internal/ratelimit"
	synchub "seriesjp/internal/sync"
	"seriesjp/internal/tmdb"
	"seriesjp/pkg/database"
	"seriesjp/pkg/utils"
)

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		logger.Log.Fatalf("config: %v", err)
	}
	log := logger.Init(cfg.LogConfig)
	gin.SetMode(gin.ReleaseMode)

	dbCfg := database.DefaultConfig()
	if cfg.DBPath != "" {
		dbCfg.Path = cfg.DBPath
	}
	db, err := database.Open(dbCfg)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	store, err := cache.Open(cfg.CacheDir, cfg.CacheTTL)
	if err != nil {
		log.Fatalf("cache open failed: %v", err)
	}
	defer store.Close()

	if cfg.APIKey == "" {
		log.Warn("SERIESJP_TMDB_API_KEY is empty, catalog calls will fail")
	}
	src := tmdb.New(cfg.APIKey, cfg.BaseURL, cfg.Language, cfg.TMDBRateLimit)
	catalogSvc := catalog.NewService(src, store, cfg.Region, logger.Component("catalog"))

	// Start TCP sync first (so you notice binding errors early)
	hub := synchub.NewHub(logger.Component("sync"))
	tcpSrv := synchub.NewServer(cfg.SyncAddr, hub, logger.Component("sync"))

	var google auth.IdentityVerifier
	if cfg.GoogleClientID != "" {
		google = auth.NewGoogleVerifier(cfg.GoogleClientID, cfg.GoogleJWKSURL)
	} else {
		log.Info("google sign-in disabled (no client id)")
	}

	limiter := ratelimit.New(cfg.AuthRateLimit, 5)
	defer limiter.Stop()

	router := api.NewRouter(api.Deps{
		DB:          db,
		Hub:         hub,
		Catalog:     catalogSvc,
		Tokens:      auth.NewTokenService(cfg.AuthConfig),
		Google:      google,
		AuthLimiter: limiter,
		Live:        comments.NewLive(20, logger.Component("comments")),
		Log:         log,
	})

	// Keep the popular feeds warm so a TMDB outage serves the last good page.
	sched := cron.New(cron.WithLogger(cron.PrintfLogger(logger.Component("cron"))))
	if _, err := sched.AddFunc(cfg.RefreshSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := catalogSvc.Refresh(ctx); err != nil {
			logger.Component("cron").WithError(err).Warn("popular refresh failed")
		}
	}); err != nil {
		log.Fatalf("bad refresh schedule %q: %v", cfg.RefreshSchedule, err)
	}
	sched.Start()

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(ctx); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.WithField("addr", httpSrv.Addr).Info("HTTP API server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infof("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Errorf("server error: %v", err)
	}

	log.Info("shutting down servers")
	<-sched.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("http shutdown error: %v", err)
	}
	stop()

	wg.Wait()
	log.Info("servers stopped")
}
