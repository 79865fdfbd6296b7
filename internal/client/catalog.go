package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"seriesjp/pkg/models"
)

type Feed struct {
	models.Page
	Stale bool `json:"stale"`
}

func (c *Client) Popular(ctx context.Context, kind string, page int) (*Feed, error) {
	var f Feed
	path := catalogPrefix(kind) + "/popular" + pageQuery(url.Values{}, page)
	if err := c.do(ctx, http.MethodGet, path, nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) Search(ctx context.Context, kind, query string, page int) (*Feed, error) {
	var f Feed
	path := catalogPrefix(kind) + "/search" + pageQuery(url.Values{"q": {query}}, page)
	if err := c.do(ctx, http.MethodGet, path, nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) Details(ctx context.Context, kind string, id int64) (*models.Title, error) {
	var t models.Title
	if err := c.do(ctx, http.MethodGet, catalogPrefix(kind)+"/"+strconv.FormatInt(id, 10), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) Recommendations(ctx context.Context, kind string, id int64) (*models.Page, error) {
	var p models.Page
	path := catalogPrefix(kind) + "/" + strconv.FormatInt(id, 10) + "/recommendations"
	if err := c.do(ctx, http.MethodGet, path, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Providers(ctx context.Context, kind string, id int64, region string) (*models.RegionProviders, error) {
	var rp models.RegionProviders
	path := catalogPrefix(kind) + "/" + strconv.FormatInt(id, 10) + "/providers"
	if region != "" {
		path += "?" + url.Values{"region": {region}}.Encode()
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &rp); err != nil {
		return nil, err
	}
	return &rp, nil
}
