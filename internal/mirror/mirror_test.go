package mirror

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seriesjp/internal/tmdb"
	"seriesjp/pkg/models"
)

func fixture() *Snapshot {
	return &Snapshot{
		Movies: []models.Page{
			{Page: 1, TotalResults: 3, Results: []models.Title{
				{ID: 550, Kind: models.KindMovie, Title: "El club de la lucha", ReleaseDate: "1999-10-15"},
				{ID: 13, Kind: models.KindMovie, Title: "Forrest Gump"},
			}},
			{Page: 2, TotalResults: 3, Results: []models.Title{
				{ID: 680, Kind: models.KindMovie, Title: "Pulp Fiction"},
			}},
		},
		Series: []models.Page{
			{Page: 1, TotalResults: 1, Results: []models.Title{
				{ID: 1399, Kind: models.KindSeries, Title: "Juego de tronos", ReleaseDate: "2011-04-17"},
			}},
		},
	}
}

func serve(t *testing.T, snap *Snapshot) *tmdb.Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)
	srv := httptest.NewServer(NewRouter(snap, log))
	t.Cleanup(srv.Close)
	return tmdb.New("k", srv.URL, "", 0)
}

func TestMirrorSpeaksCatalogFormat(t *testing.T) {
	c := serve(t, fixture())
	ctx := context.Background()

	p, err := c.PopularMovies(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, p.TotalPages)
	require.Len(t, p.Results, 1)
	assert.Equal(t, "Pulp Fiction", p.Results[0].Title)

	s, err := c.Series(ctx, 1399)
	require.NoError(t, err)
	assert.Equal(t, "Juego de tronos", s.Title)
	assert.Equal(t, "2011-04-17", s.ReleaseDate)

	hits, err := c.SearchMovies(ctx, "GUMP", 1)
	require.NoError(t, err)
	require.Len(t, hits.Results, 1)
	assert.Equal(t, int64(13), hits.Results[0].ID)

	recs, err := c.MovieRecommendations(ctx, 550)
	require.NoError(t, err)
	assert.Len(t, recs.Results, 2)

	_, err = c.Movie(ctx, 999)
	var se *tmdb.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)

	prov, err := c.MovieProviders(ctx, 550)
	require.NoError(t, err)
	assert.Empty(t, prov)
}

func TestPopularPastLastPage(t *testing.T) {
	c := serve(t, fixture())
	p, err := c.PopularSeries(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, p.Results)
	assert.Equal(t, 1, p.TotalPages)
}

func TestCaptureSaveLoad(t *testing.T) {
	src := serve(t, fixture())
	snap, err := Capture(context.Background(), src, 2)
	require.NoError(t, err)
	require.Len(t, snap.Movies, 2)
	require.Len(t, snap.Series, 2)
	assert.Empty(t, snap.Series[1].Results)

	path := filepath.Join(t.TempDir(), "data", "mirror.json")
	require.NoError(t, Save(path, snap))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, snap.Movies, loaded.Movies)
	assert.WithinDuration(t, snap.SavedAt, loaded.SavedAt, 0)
}
