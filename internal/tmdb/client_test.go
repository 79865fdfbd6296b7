package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seriesjp/pkg/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New("key", srv.URL, "", 0)
}

func TestPopularMoviesSendsKeyAndLanguage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/popular", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "es-ES", r.URL.Query().Get("language"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		w.Write([]byte(`{"page":2,"total_pages":5,"total_results":99,"results":[{"id":550,"title":"El club de la lucha","release_date":"1999-10-15","vote_average":8.4}]}`))
	})

	page, err := c.PopularMovies(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 99, page.TotalResults)
	require.Len(t, page.Results, 1)
	assert.Equal(t, models.Title{
		ID:          550,
		Kind:        models.KindMovie,
		Title:       "El club de la lucha",
		ReleaseDate: "1999-10-15",
		VoteAverage: 8.4,
	}, page.Results[0])
}

func TestSearchSeriesMapsNameAndAirDate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/tv", r.URL.Path)
		assert.Equal(t, "dark", r.URL.Query().Get("query"))
		w.Write([]byte(`{"page":1,"results":[{"id":70523,"name":"Dark","first_air_date":"2017-12-01"}]}`))
	})

	page, err := c.SearchSeries(context.Background(), "dark", 0)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	got := page.Results[0]
	assert.Equal(t, models.KindSeries, got.Kind)
	assert.Equal(t, "Dark", got.Title)
	assert.Equal(t, "2017-12-01", got.ReleaseDate)
}

func TestNonOKStatusReturnsStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Movie(context.Background(), 1)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, "/movie/1", se.Path)
}

func TestProvidersByRegion(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tv/1399/watch/providers", r.URL.Path)
		w.Write([]byte(`{"id":1399,"results":{
			"ES":{"link":"https://example.com/es","flatrate":[{"provider_id":1899,"provider_name":"Max","logo_path":"/max.png"}]},
			"US":{"link":"https://example.com/us","buy":[{"provider_id":2,"provider_name":"Apple TV"}]}}}`))
	})

	got, err := c.SeriesProviders(context.Background(), 1399)
	require.NoError(t, err)
	require.Contains(t, got, "ES")
	assert.Equal(t, "Max", got["ES"].Flatrate[0].Name)
	assert.Equal(t, 1899, got["ES"].Flatrate[0].ID)
	assert.NotNil(t, got["US"].Flatrate)
	assert.Empty(t, got["US"].Flatrate)
	assert.Len(t, got["US"].Buy, 1)
}

func TestCancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.PopularSeries(ctx, 1)
	require.Error(t, err)
}
