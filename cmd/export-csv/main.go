package main

import (
	"context"
	"flag"
	"time"

	"github.com/sirupsen/logrus"

	"seriesjp/internal/auth"
	"seriesjp/internal/backup"
	"seriesjp/internal/logger"
	"seriesjp/pkg/database"
	"seriesjp/pkg/utils"
)

func main() {
	var (
		username = flag.String("user", "", "username whose library is exported")
		outDir   = flag.String("out", "data", "output directory for watchlist.csv, favorites.csv and ratings.csv")
	)
	flag.Parse()

	log := logger.Init(utils.LogConfig{LogLevel: "info"})
	if *username == "" {
		log.Fatal("-user is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	u, err := auth.NewRepo(db).GetByUsername(ctx, *username)
	if err != nil {
		log.Fatalf("lookup user: %v", err)
	}
	if u == nil {
		log.Fatalf("no user named %q", *username)
	}

	n, err := backup.Export(ctx, backup.NewRepos(db), u.ID, backup.DefaultFiles(*outDir))
	if err != nil {
		log.Fatalf("export failed: %v", err)
	}
	log.WithFields(logrus.Fields{
		"watchlist": n.Watchlist,
		"favorites": n.Favorites,
		"ratings":   n.Ratings,
		"dir":       *outDir,
	}).Info("library exported")
}
