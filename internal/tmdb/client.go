package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"seriesjp/pkg/models"
)

const DefaultBaseURL = "https://api.themoviedb.org/3"

// StatusError is returned when the catalog API answers with a non-200 status.
type StatusError struct {
	Code int
	Path string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb %s: status %d", e.Path, e.Code)
}

type Client struct {
	APIKey   string
	BaseURL  string
	Language string
	HTTP     *http.Client
	Limiter  *rate.Limiter
}

// New builds a client limited to rps requests per second (0 disables the limit).
func New(apiKey, base, language string, rps float64) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	if language == "" {
		language = "es-ES"
	}
	c := &Client{
		APIKey:   apiKey,
		BaseURL:  base,
		Language: language,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
	}
	if rps > 0 {
		c.Limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
	return c
}

func (c *Client) PopularMovies(ctx context.Context, page int) (*models.Page, error) {
	var env pageEnvelope[Movie]
	if err := c.get(ctx, "/movie/popular", pageParams(page), &env); err != nil {
		return nil, err
	}
	return toPage(env), nil
}

func (c *Client) PopularSeries(ctx context.Context, page int) (*models.Page, error) {
	var env pageEnvelope[Series]
	if err := c.get(ctx, "/tv/popular", pageParams(page), &env); err != nil {
		return nil, err
	}
	return toPage(env), nil
}

func (c *Client) SearchMovies(ctx context.Context, query string, page int) (*models.Page, error) {
	q := pageParams(page)
	q.Set("query", query)
	var env pageEnvelope[Movie]
	if err := c.get(ctx, "/search/movie", q, &env); err != nil {
		return nil, err
	}
	return toPage(env), nil
}

func (c *Client) SearchSeries(ctx context.Context, query string, page int) (*models.Page, error) {
	q := pageParams(page)
	q.Set("query", query)
	var env pageEnvelope[Series]
	if err := c.get(ctx, "/search/tv", q, &env); err != nil {
		return nil, err
	}
	return toPage(env), nil
}

func (c *Client) MovieRecommendations(ctx context.Context, id int64) (*models.Page, error) {
	var env pageEnvelope[Movie]
	if err := c.get(ctx, "/movie/"+strconv.FormatInt(id, 10)+"/recommendations", nil, &env); err != nil {
		return nil, err
	}
	return toPage(env), nil
}

func (c *Client) SeriesRecommendations(ctx context.Context, id int64) (*models.Page, error) {
	var env pageEnvelope[Series]
	if err := c.get(ctx, "/tv/"+strconv.FormatInt(id, 10)+"/recommendations", nil, &env); err != nil {
		return nil, err
	}
	return toPage(env), nil
}

func (c *Client) Movie(ctx context.Context, id int64) (*models.Title, error) {
	var m Movie
	if err := c.get(ctx, "/movie/"+strconv.FormatInt(id, 10), nil, &m); err != nil {
		return nil, err
	}
	t := m.ToTitle()
	return &t, nil
}

func (c *Client) Series(ctx context.Context, id int64) (*models.Title, error) {
	var s Series
	if err := c.get(ctx, "/tv/"+strconv.FormatInt(id, 10), nil, &s); err != nil {
		return nil, err
	}
	t := s.ToTitle()
	return &t, nil
}

// MovieProviders returns watch providers for every region the API knows about.
func (c *Client) MovieProviders(ctx context.Context, id int64) (map[string]models.RegionProviders, error) {
	return c.providers(ctx, "/movie/"+strconv.FormatInt(id, 10)+"/watch/providers")
}

func (c *Client) SeriesProviders(ctx context.Context, id int64) (map[string]models.RegionProviders, error) {
	return c.providers(ctx, "/tv/"+strconv.FormatInt(id, 10)+"/watch/providers")
}

func (c *Client) providers(ctx context.Context, path string) (map[string]models.RegionProviders, error) {
	var resp watchProvidersResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	out := make(map[string]models.RegionProviders, len(resp.Results))
	for region, p := range resp.Results {
		flat := p.Flatrate
		if flat == nil {
			flat = []models.Provider{}
		}
		out[region] = models.RegionProviders{
			Region:   region,
			Link:     p.Link,
			Flatrate: flat,
			Rent:     p.Rent,
			Buy:      p.Buy,
		}
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("tmdb rate limit: %w", err)
		}
	}

	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return fmt.Errorf("tmdb url: %w", err)
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("api_key", c.APIKey)
	q.Set("language", c.Language)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("tmdb request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return &StatusError{Code: res.StatusCode, Path: path}
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("tmdb %s decode: %w", path, err)
	}
	return nil
}

func pageParams(page int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	return q
}
