package models

import (
	"strconv"
	"time"
)

const (
	FavoriteTypeSeries = "serie"
	FavoriteTypeMovie  = "pelicula"
)

type Favorite struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	PosterURL string    `json:"poster_url" db:"poster_url"`
	Type      string    `json:"type" db:"type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PosterBaseURL prefixes TMDB poster paths.
const PosterBaseURL = "https://image.tmdb.org/t/p/w500"

// FavoriteFromTitle snapshots a catalog title the way the favorites list stores it.
func FavoriteFromTitle(t Title) Favorite {
	f := Favorite{
		ID:    strconv.FormatInt(t.ID, 10),
		Title: t.Title,
		Type:  FavoriteTypeSeries,
	}
	if t.Kind == KindMovie {
		f.Type = FavoriteTypeMovie
	}
	if t.PosterPath != "" {
		f.PosterURL = PosterBaseURL + t.PosterPath
	}
	return f
}
