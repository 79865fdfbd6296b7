package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"seriesjp/pkg/models"
)

var ErrUnknownKind = errors.New("unknown title kind")

// Source is the remote catalog. *tmdb.Client satisfies it.
type Source interface {
	PopularMovies(ctx context.Context, page int) (*models.Page, error)
	PopularSeries(ctx context.Context, page int) (*models.Page, error)
	SearchMovies(ctx context.Context, query string, page int) (*models.Page, error)
	SearchSeries(ctx context.Context, query string, page int) (*models.Page, error)
	MovieRecommendations(ctx context.Context, id int64) (*models.Page, error)
	SeriesRecommendations(ctx context.Context, id int64) (*models.Page, error)
	Movie(ctx context.Context, id int64) (*models.Title, error)
	Series(ctx context.Context, id int64) (*models.Title, error)
	MovieProviders(ctx context.Context, id int64) (map[string]models.RegionProviders, error)
	SeriesProviders(ctx context.Context, id int64) (map[string]models.RegionProviders, error)
}

// Store is an optional response cache. *cache.Cache satisfies it.
type Store interface {
	Get(key string, dest any) (bool, error)
	Set(key string, value any) error
}

// Feed is a page of titles. Stale is set when the remote call failed and
// the last good copy was served instead.
type Feed struct {
	models.Page
	Stale bool `json:"stale"`
}

type Service struct {
	src    Source
	store  Store
	region string
	log    *logrus.Entry

	mu       sync.RWMutex
	lastGood map[string]models.Page
}

func NewService(src Source, store Store, region string, log *logrus.Entry) *Service {
	if region == "" {
		region = "ES"
	}
	return &Service{
		src:      src,
		store:    store,
		region:   strings.ToUpper(region),
		log:      log,
		lastGood: make(map[string]models.Page),
	}
}

func (s *Service) Region() string { return s.region }

func (s *Service) Popular(ctx context.Context, kind string, page int) (*Feed, error) {
	if page < 1 {
		page = 1
	}
	key := fmt.Sprintf("popular:%s:%d", kind, page)

	var cached models.Page
	if s.cacheGet(key, &cached) {
		return &Feed{Page: cached}, nil
	}
	return s.fetchPopular(ctx, kind, page, key)
}

func (s *Service) fetchPopular(ctx context.Context, kind string, page int, key string) (*Feed, error) {
	var (
		p   *models.Page
		err error
	)
	switch kind {
	case models.KindMovie:
		p, err = s.src.PopularMovies(ctx, page)
	case models.KindSeries:
		p, err = s.src.PopularSeries(ctx, page)
	default:
		return nil, ErrUnknownKind
	}

	if err != nil {
		s.log.WithError(err).WithField("kind", kind).Warn("popular fetch failed")
		s.mu.RLock()
		prev, ok := s.lastGood[key]
		s.mu.RUnlock()
		if ok {
			return &Feed{Page: prev, Stale: true}, nil
		}
		return nil, fmt.Errorf("popular %s: %w", kind, err)
	}

	s.mu.Lock()
	s.lastGood[key] = *p
	s.mu.Unlock()
	s.cacheSet(key, p)
	return &Feed{Page: *p}, nil
}

// Search falls back to Popular when the query is blank.
func (s *Service) Search(ctx context.Context, kind, query string, page int) (*Feed, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.Popular(ctx, kind, page)
	}
	if page < 1 {
		page = 1
	}
	key := fmt.Sprintf("search:%s:%s:%d", kind, strings.ToLower(query), page)

	var cached models.Page
	if s.cacheGet(key, &cached) {
		return &Feed{Page: cached}, nil
	}

	var (
		p   *models.Page
		err error
	)
	switch kind {
	case models.KindMovie:
		p, err = s.src.SearchMovies(ctx, query, page)
	case models.KindSeries:
		p, err = s.src.SearchSeries(ctx, query, page)
	default:
		return nil, ErrUnknownKind
	}
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", kind, err)
	}
	s.cacheSet(key, p)
	return &Feed{Page: *p}, nil
}

func (s *Service) Recommendations(ctx context.Context, kind string, id int64) (*models.Page, error) {
	key := fmt.Sprintf("recs:%s:%d", kind, id)

	var cached models.Page
	if s.cacheGet(key, &cached) {
		return &cached, nil
	}

	var (
		p   *models.Page
		err error
	)
	switch kind {
	case models.KindMovie:
		p, err = s.src.MovieRecommendations(ctx, id)
	case models.KindSeries:
		p, err = s.src.SeriesRecommendations(ctx, id)
	default:
		return nil, ErrUnknownKind
	}
	if err != nil {
		return nil, fmt.Errorf("recommendations %s/%d: %w", kind, id, err)
	}
	s.cacheSet(key, p)
	return p, nil
}

func (s *Service) Details(ctx context.Context, kind string, id int64) (*models.Title, error) {
	key := fmt.Sprintf("details:%s:%d", kind, id)

	var cached models.Title
	if s.cacheGet(key, &cached) {
		return &cached, nil
	}

	var (
		t   *models.Title
		err error
	)
	switch kind {
	case models.KindMovie:
		t, err = s.src.Movie(ctx, id)
	case models.KindSeries:
		t, err = s.src.Series(ctx, id)
	default:
		return nil, ErrUnknownKind
	}
	if err != nil {
		return nil, fmt.Errorf("details %s/%d: %w", kind, id, err)
	}
	s.cacheSet(key, t)
	return t, nil
}

// Providers returns where a title streams in region (the configured one when
// empty). A region without data yields an empty entry, not an error.
func (s *Service) Providers(ctx context.Context, kind string, id int64, region string) (*models.RegionProviders, error) {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = s.region
	}
	key := fmt.Sprintf("providers:%s:%d", kind, id)

	var all map[string]models.RegionProviders
	if !s.cacheGet(key, &all) {
		var err error
		switch kind {
		case models.KindMovie:
			all, err = s.src.MovieProviders(ctx, id)
		case models.KindSeries:
			all, err = s.src.SeriesProviders(ctx, id)
		default:
			return nil, ErrUnknownKind
		}
		if err != nil {
			return nil, fmt.Errorf("providers %s/%d: %w", kind, id, err)
		}
		s.cacheSet(key, all)
	}

	rp, ok := all[region]
	if !ok {
		return &models.RegionProviders{Region: region, Flatrate: []models.Provider{}}, nil
	}
	if rp.Flatrate == nil {
		rp.Flatrate = []models.Provider{}
	}
	rp.Region = region
	return &rp, nil
}

// Refresh re-fetches the first popular page of both kinds, skipping the cache.
func (s *Service) Refresh(ctx context.Context) error {
	var errs []error
	for _, kind := range []string{models.KindMovie, models.KindSeries} {
		feed, err := s.fetchPopular(ctx, kind, 1, fmt.Sprintf("popular:%s:%d", kind, 1))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if feed.Stale {
			errs = append(errs, fmt.Errorf("popular %s: still stale", kind))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) cacheGet(key string, dest any) bool {
	if s.store == nil {
		return false
	}
	ok, err := s.store.Get(key, dest)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("cache read failed")
		return false
	}
	return ok
}

func (s *Service) cacheSet(key string, v any) {
	if s.store == nil {
		return
	}
	if err := s.store.Set(key, v); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}
