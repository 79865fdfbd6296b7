package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seriesjp/internal/logger"
	"seriesjp/pkg/models"
)

type fakeSource struct {
	popular   map[string]*models.Page
	search    map[string]*models.Page
	providers map[string]models.RegionProviders
	err       error
	calls     map[string]int
}

func newFake() *fakeSource {
	return &fakeSource{
		popular: map[string]*models.Page{},
		search:  map[string]*models.Page{},
		calls:   map[string]int{},
	}
}

func (f *fakeSource) popularFor(kind string) (*models.Page, error) {
	f.calls["popular:"+kind]++
	if f.err != nil {
		return nil, f.err
	}
	return f.popular[kind], nil
}

func (f *fakeSource) searchFor(kind, q string) (*models.Page, error) {
	f.calls["search:"+kind]++
	if f.err != nil {
		return nil, f.err
	}
	return f.search[kind+":"+q], nil
}

func (f *fakeSource) PopularMovies(_ context.Context, _ int) (*models.Page, error) {
	return f.popularFor(models.KindMovie)
}

func (f *fakeSource) PopularSeries(_ context.Context, _ int) (*models.Page, error) {
	return f.popularFor(models.KindSeries)
}

func (f *fakeSource) SearchMovies(_ context.Context, q string, _ int) (*models.Page, error) {
	return f.searchFor(models.KindMovie, q)
}

func (f *fakeSource) SearchSeries(_ context.Context, q string, _ int) (*models.Page, error) {
	return f.searchFor(models.KindSeries, q)
}

func (f *fakeSource) MovieRecommendations(_ context.Context, id int64) (*models.Page, error) {
	return &models.Page{Page: 1, Results: []models.Title{{ID: id + 1, Kind: models.KindMovie}}}, f.err
}

func (f *fakeSource) SeriesRecommendations(_ context.Context, id int64) (*models.Page, error) {
	return &models.Page{Page: 1, Results: []models.Title{{ID: id + 1, Kind: models.KindSeries}}}, f.err
}

func (f *fakeSource) Movie(_ context.Context, id int64) (*models.Title, error) {
	f.calls["details"]++
	if f.err != nil {
		return nil, f.err
	}
	return &models.Title{ID: id, Kind: models.KindMovie, Title: "movie"}, nil
}

func (f *fakeSource) Series(_ context.Context, id int64) (*models.Title, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Title{ID: id, Kind: models.KindSeries, Title: "series"}, nil
}

func (f *fakeSource) MovieProviders(_ context.Context, _ int64) (map[string]models.RegionProviders, error) {
	return f.providers, f.err
}

func (f *fakeSource) SeriesProviders(_ context.Context, _ int64) (map[string]models.RegionProviders, error) {
	return f.providers, f.err
}

// memStore is a map-backed Store; failing makes every call error.
type memStore struct {
	data    map[string]any
	failing bool
}

func (m *memStore) Get(key string, dest any) (bool, error) {
	if m.failing {
		return false, errors.New("disk on fire")
	}
	v, ok := m.data[key]
	if !ok {
		return false, nil
	}
	switch d := dest.(type) {
	case *models.Page:
		*d = *(v.(*models.Page))
	case *models.Title:
		*d = *(v.(*models.Title))
	case *map[string]models.RegionProviders:
		*d = v.(map[string]models.RegionProviders)
	}
	return true, nil
}

func (m *memStore) Set(key string, value any) error {
	if m.failing {
		return errors.New("disk on fire")
	}
	m.data[key] = value
	return nil
}

func page(titles ...string) *models.Page {
	p := &models.Page{Page: 1, TotalPages: 1, TotalResults: len(titles)}
	for i, t := range titles {
		p.Results = append(p.Results, models.Title{ID: int64(i + 1), Title: t})
	}
	return p
}

func TestPopularReturnsSourceResults(t *testing.T) {
	src := newFake()
	src.popular[models.KindSeries] = page("Dark", "Severance")
	svc := NewService(src, nil, "", logger.Discard())

	feed, err := svc.Popular(context.Background(), models.KindSeries, 1)
	require.NoError(t, err)
	assert.False(t, feed.Stale)
	require.Len(t, feed.Results, 2)
	assert.Equal(t, "Dark", feed.Results[0].Title)
}

func TestPopularFailureKeepsLastGood(t *testing.T) {
	src := newFake()
	src.popular[models.KindMovie] = page("Alien")
	svc := NewService(src, nil, "", logger.Discard())

	_, err := svc.Popular(context.Background(), models.KindMovie, 1)
	require.NoError(t, err)

	src.err = errors.New("timeout")
	feed, err := svc.Popular(context.Background(), models.KindMovie, 1)
	require.NoError(t, err)
	assert.True(t, feed.Stale)
	require.Len(t, feed.Results, 1)
	assert.Equal(t, "Alien", feed.Results[0].Title)
}

func TestPopularFailureWithNothingRemembered(t *testing.T) {
	src := newFake()
	src.err = errors.New("timeout")
	svc := NewService(src, nil, "", logger.Discard())

	_, err := svc.Popular(context.Background(), models.KindMovie, 1)
	require.Error(t, err)
}

func TestPopularUnknownKind(t *testing.T) {
	svc := NewService(newFake(), nil, "", logger.Discard())
	_, err := svc.Popular(context.Background(), "anime", 1)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestBlankSearchFallsBackToPopular(t *testing.T) {
	src := newFake()
	src.popular[models.KindSeries] = page("Dark")
	svc := NewService(src, nil, "", logger.Discard())

	feed, err := svc.Search(context.Background(), models.KindSeries, "   ", 1)
	require.NoError(t, err)
	assert.Equal(t, "Dark", feed.Results[0].Title)
	assert.Equal(t, 0, src.calls["search:series"])
	assert.Equal(t, 1, src.calls["popular:series"])
}

func TestSearchTrimsQuery(t *testing.T) {
	src := newFake()
	src.search["movie:alien"] = page("Alien", "Aliens")
	svc := NewService(src, nil, "", logger.Discard())

	feed, err := svc.Search(context.Background(), models.KindMovie, "  alien ", 1)
	require.NoError(t, err)
	assert.Len(t, feed.Results, 2)
}

func TestSearchErrorPropagates(t *testing.T) {
	src := newFake()
	src.err = errors.New("boom")
	svc := NewService(src, nil, "", logger.Discard())

	_, err := svc.Search(context.Background(), models.KindMovie, "alien", 1)
	require.Error(t, err)
}

func TestCacheServesRepeatCalls(t *testing.T) {
	src := newFake()
	store := &memStore{data: map[string]any{}}
	svc := NewService(src, store, "", logger.Discard())

	for i := 0; i < 3; i++ {
		got, err := svc.Details(context.Background(), models.KindMovie, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(7), got.ID)
	}
	assert.Equal(t, 1, src.calls["details"])
}

func TestCacheFailureIsBypassed(t *testing.T) {
	src := newFake()
	store := &memStore{data: map[string]any{}, failing: true}
	svc := NewService(src, store, "", logger.Discard())

	_, err := svc.Details(context.Background(), models.KindMovie, 7)
	require.NoError(t, err)
	_, err = svc.Details(context.Background(), models.KindMovie, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls["details"])
}

func TestProvidersDefaultRegion(t *testing.T) {
	src := newFake()
	src.providers = map[string]models.RegionProviders{
		"ES": {Link: "es", Flatrate: []models.Provider{{ID: 8, Name: "Netflix"}}},
		"US": {Link: "us"},
	}
	svc := NewService(src, nil, "es", logger.Discard())

	rp, err := svc.Providers(context.Background(), models.KindSeries, 1, "")
	require.NoError(t, err)
	assert.Equal(t, "ES", rp.Region)
	require.Len(t, rp.Flatrate, 1)
	assert.Equal(t, "Netflix", rp.Flatrate[0].Name)

	rp, err = svc.Providers(context.Background(), models.KindSeries, 1, "us")
	require.NoError(t, err)
	assert.Equal(t, "us", rp.Link)
	assert.NotNil(t, rp.Flatrate)
}

func TestProvidersUnknownRegionIsEmpty(t *testing.T) {
	src := newFake()
	src.providers = map[string]models.RegionProviders{}
	svc := NewService(src, nil, "", logger.Discard())

	rp, err := svc.Providers(context.Background(), models.KindMovie, 1, "JP")
	require.NoError(t, err)
	assert.Equal(t, "JP", rp.Region)
	assert.Empty(t, rp.Flatrate)
}

func TestRefreshUpdatesLastGood(t *testing.T) {
	src := newFake()
	src.popular[models.KindMovie] = page("Old")
	src.popular[models.KindSeries] = page("Old")
	store := &memStore{data: map[string]any{}}
	svc := NewService(src, store, "", logger.Discard())

	_, err := svc.Popular(context.Background(), models.KindMovie, 1)
	require.NoError(t, err)

	src.popular[models.KindMovie] = page("New")
	require.NoError(t, svc.Refresh(context.Background()))

	feed, err := svc.Popular(context.Background(), models.KindMovie, 1)
	require.NoError(t, err)
	assert.Equal(t, "New", feed.Results[0].Title)
}

func TestRefreshReportsFailure(t *testing.T) {
	src := newFake()
	src.err = errors.New("down")
	svc := NewService(src, nil, "", logger.Discard())
	assert.Error(t, svc.Refresh(context.Background()))
}
