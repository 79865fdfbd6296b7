package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"seriesjp/pkg/models"
)

type WatchlistPage struct {
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
	Items  []models.WatchlistEntry `json:"items"`
}

func (c *Client) AddToWatchlist(ctx context.Context, t models.Title) (*models.WatchlistEntry, error) {
	var e models.WatchlistEntry
	if err := c.do(ctx, http.MethodPost, "/users/watchlist", t, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) RemoveFromWatchlist(ctx context.Context, kind string, id int64) error {
	return c.do(ctx, http.MethodDelete, "/users/watchlist"+titlePath(kind, id), nil, nil)
}

func (c *Client) Watchlist(ctx context.Context, kind string, limit, offset int) (*WatchlistPage, error) {
	q := url.Values{}
	if kind != "" {
		q.Set("kind", kind)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	path := "/users/watchlist"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var p WatchlistPage
	if err := c.do(ctx, http.MethodGet, path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) PutFavorite(ctx context.Context, f models.Favorite) (*models.Favorite, error) {
	var out models.Favorite
	payload := map[string]string{"title": f.Title, "poster_url": f.PosterURL, "type": f.Type}
	if err := c.do(ctx, http.MethodPut, "/users/favorites/"+url.PathEscape(f.ID), payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveFavorite(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/users/favorites/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Favorites(ctx context.Context) ([]models.Favorite, error) {
	var out struct {
		Items []models.Favorite `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/favorites", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) SetRating(ctx context.Context, kind string, id int64, score int) error {
	return c.do(ctx, http.MethodPut, "/users/ratings"+titlePath(kind, id), map[string]int{"score": score}, nil)
}

// Rating returns 0 when the title has not been rated.
func (c *Client) Rating(ctx context.Context, kind string, id int64) (int, error) {
	var r models.Rating
	err := c.do(ctx, http.MethodGet, "/users/ratings"+titlePath(kind, id), nil, &r)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return r.Score, nil
}

func (c *Client) Ratings(ctx context.Context, kind string) (map[string]int, error) {
	var out struct {
		Ratings map[string]int `json:"ratings"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/ratings?"+url.Values{"kind": {kind}}.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Ratings, nil
}

type CommentPage struct {
	Total int              `json:"total"`
	Items []models.Comment `json:"items"`
}

func (c *Client) Comments(ctx context.Context, kind string, id int64, limit, offset int) (*CommentPage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	path := "/titles" + titlePath(kind, id) + "/comments"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var p CommentPage
	if err := c.do(ctx, http.MethodGet, path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AddComment posts a comment; an empty username falls back to the account name.
func (c *Client) AddComment(ctx context.Context, kind string, id int64, username string, score int, text string) (*models.Comment, error) {
	var out models.Comment
	payload := map[string]any{"username": username, "score": score, "text": text}
	if err := c.do(ctx, http.MethodPost, "/titles"+titlePath(kind, id)+"/comments", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LiveCommentsURL(kind string, id int64) (string, error) {
	return c.WebsocketURL("/titles" + titlePath(kind, id) + "/comments/live")
}
