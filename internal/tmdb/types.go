package tmdb

import "seriesjp/pkg/models"

type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
}

func (m Movie) ToTitle() models.Title {
	return models.Title{
		ID:          m.ID,
		Kind:        models.KindMovie,
		Title:       m.Title,
		Overview:    m.Overview,
		PosterPath:  m.PosterPath,
		ReleaseDate: m.ReleaseDate,
		VoteAverage: m.VoteAverage,
	}
}

// MovieFrom is the inverse of ToTitle, used to serve titles in catalog format.
func MovieFrom(t models.Title) Movie {
	return Movie{
		ID:          t.ID,
		Title:       t.Title,
		Overview:    t.Overview,
		PosterPath:  t.PosterPath,
		ReleaseDate: t.ReleaseDate,
		VoteAverage: t.VoteAverage,
	}
}

type Series struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
}

func (s Series) ToTitle() models.Title {
	return models.Title{
		ID:          s.ID,
		Kind:        models.KindSeries,
		Title:       s.Name,
		Overview:    s.Overview,
		PosterPath:  s.PosterPath,
		ReleaseDate: s.FirstAirDate,
		VoteAverage: s.VoteAverage,
	}
}

func SeriesFrom(t models.Title) Series {
	return Series{
		ID:           t.ID,
		Name:         t.Title,
		Overview:     t.Overview,
		PosterPath:   t.PosterPath,
		FirstAirDate: t.ReleaseDate,
		VoteAverage:  t.VoteAverage,
	}
}

type pageEnvelope[T any] struct {
	Page         int `json:"page"`
	TotalPages   int `json:"total_pages"`
	TotalResults int `json:"total_results"`
	Results      []T `json:"results"`
}

func toPage[T interface{ ToTitle() models.Title }](env pageEnvelope[T]) *models.Page {
	out := &models.Page{
		Page:         env.Page,
		TotalPages:   env.TotalPages,
		TotalResults: env.TotalResults,
		Results:      make([]models.Title, 0, len(env.Results)),
	}
	for _, r := range env.Results {
		out.Results = append(out.Results, r.ToTitle())
	}
	return out
}

type watchProvidersResponse struct {
	ID      int64                            `json:"id"`
	Results map[string]countryWatchProviders `json:"results"`
}

type countryWatchProviders struct {
	Link     string            `json:"link"`
	Flatrate []models.Provider `json:"flatrate"`
	Rent     []models.Provider `json:"rent"`
	Buy      []models.Provider `json:"buy"`
}
