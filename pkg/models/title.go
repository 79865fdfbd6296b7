package models

import "strconv"

const (
	KindMovie  = "movie"
	KindSeries = "series"
)

// Title is a movie or a series as returned by the catalog API.
// For series, Title holds the show name and ReleaseDate the first air date.
type Title struct {
	ID          int64   `json:"id" db:"title_id"`
	Kind        string  `json:"kind" db:"kind"`
	Title       string  `json:"title" db:"title"`
	Overview    string  `json:"overview" db:"overview"`
	PosterPath  string  `json:"poster_path" db:"poster_path"`
	ReleaseDate string  `json:"release_date,omitempty" db:"release_date"`
	VoteAverage float64 `json:"vote_average" db:"vote_average"`
}

// TitleKey identifies a title across kinds ("movie:550").
func TitleKey(kind string, id int64) string {
	return kind + ":" + strconv.FormatInt(id, 10)
}

// NormalizeKind maps user input to KindMovie/KindSeries, or "" if unknown.
func NormalizeKind(s string) string {
	switch s {
	case "movie", "movies", "pelicula", "peliculas":
		return KindMovie
	case "series", "serie", "tv":
		return KindSeries
	default:
		return ""
	}
}

// Page is the paged envelope used by the catalog API.
type Page struct {
	Page         int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
	Results      []Title `json:"results"`
}

type Provider struct {
	ID       int    `json:"provider_id"`
	Name     string `json:"provider_name"`
	LogoPath string `json:"logo_path,omitempty"`
}

// RegionProviders lists where a title can be watched in one region.
type RegionProviders struct {
	Region   string     `json:"region"`
	Link     string     `json:"link,omitempty"`
	Flatrate []Provider `json:"flatrate"`
	Rent     []Provider `json:"rent,omitempty"`
	Buy      []Provider `json:"buy,omitempty"`
}
