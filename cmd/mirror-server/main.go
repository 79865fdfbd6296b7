package main

import (
	"flag"
	"net/http"

	"github.com/gin-gonic/gin"

	"seriesjp/internal/logger"
	"seriesjp/internal/mirror"
	"seriesjp/pkg/utils"
)

// Serves data/mirror.json with catalog API paths; point SERIESJP_TMDB_BASE_URL at it.
func main() {
	var (
		dataPath = flag.String("data", "data/mirror.json", "snapshot written by export-mirror")
		addr     = flag.String("addr", ":9000", "listen address")
	)
	flag.Parse()

	log := logger.Init(utils.LogConfig{LogLevel: "info"})
	gin.SetMode(gin.ReleaseMode)

	snap, err := mirror.Load(*dataPath)
	if err != nil {
		log.Fatalf("load snapshot: %v", err)
	}

	log.WithField("addr", *addr).WithField("saved_at", snap.SavedAt).Info("mirror-server listening")
	log.Fatal(http.ListenAndServe(*addr, mirror.NewRouter(snap, log)))
}
