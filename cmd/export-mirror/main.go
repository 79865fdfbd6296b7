package main

import (
	"context"
	"flag"
	"time"

	"seriesjp/internal/logger"
	"seriesjp/internal/mirror"
	"seriesjp/internal/tmdb"
	"seriesjp/pkg/utils"
)

func main() {
	var (
		outPath = flag.String("out", "data/mirror.json", "output JSON path")
		pages   = flag.Int("pages", 3, "popular pages to capture per kind")
	)
	flag.Parse()

	cfg, err := utils.LoadConfig()
	if err != nil {
		logger.Log.Fatalf("config: %v", err)
	}
	log := logger.Init(cfg.LogConfig)
	if cfg.APIKey == "" {
		log.Fatal("SERIESJP_TMDB_API_KEY is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	src := tmdb.New(cfg.APIKey, cfg.BaseURL, cfg.Language, cfg.TMDBRateLimit)
	snap, err := mirror.Capture(ctx, src, *pages)
	if err != nil {
		log.Fatalf("capture failed: %v", err)
	}
	if err := mirror.Save(*outPath, snap); err != nil {
		log.Fatalf("write failed: %v", err)
	}
	log.WithField("path", *outPath).Infof("captured %d pages of movies and series", len(snap.Movies))
}
