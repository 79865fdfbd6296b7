package main

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	"seriesjp/internal/auth"
	"seriesjp/internal/cache"
	"seriesjp/internal/catalog"
	"seriesjp/internal/favorites"
	"seriesjp/internal/grpcserver"
	"seriesjp/internal/logger"
	"seriesjp/internal/ratings"
	"seriesjp/internal/tmdb"
	"seriesjp/internal/watchlist"
	"seriesjp/pkg/database"
	"seriesjp/pkg/utils"
)

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		logger.Log.Fatalf("config: %v", err)
	}
	log := logger.Init(cfg.LogConfig)

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

	// The API server owns the on-disk cache directory, so this process keeps its own in memory.
	store, err := cache.Open("", cfg.CacheTTL)
	if err != nil {
		log.Fatalf("cache open failed: %v", err)
	}
	defer store.Close()

	src := tmdb.New(cfg.APIKey, cfg.BaseURL, cfg.Language, cfg.TMDBRateLimit)
	svc := grpcserver.NewServer(
		catalog.NewService(src, store, cfg.Region, logger.Component("catalog")),
		watchlist.NewRepo(db),
		ratings.NewRepo(db),
		favorites.NewRepo(db),
		nil,
		logger.Component("grpc"),
	)
	grpcServer := grpcserver.NewGRPCServer(svc, auth.NewTokenService(cfg.AuthConfig), auth.NewRepo(db))

	listener, err := net.Listen("tcp", cfg.GrpcAddr)
	if err != nil {
		log.Fatalf("grpc listen failed: %v", err)
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Infof("shutdown signal received: %s", sig)
		grpcServer.GracefulStop()
	}()

	log.WithField("addr", cfg.GrpcAddr).Info("gRPC server listening")
	if err := grpcServer.Serve(listener); err != nil {
		log.Fatalf("grpc server stopped: %v", err)
	}
}
