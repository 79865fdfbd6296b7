package main

import (
	"context"

	"seriesjp/internal/client"
	"seriesjp/internal/grpcserver"
	"seriesjp/pkg/models"
)

// catalogAPI is the part of the catalog both fronts serve. Title details stay on HTTP.
type catalogAPI interface {
	Popular(ctx context.Context, kind string, page int) (*client.Feed, error)
	Search(ctx context.Context, kind, query string, page int) (*client.Feed, error)
	Recommendations(ctx context.Context, kind string, id int64) (*models.Page, error)
	Providers(ctx context.Context, kind string, id int64, region string) (*models.RegionProviders, error)
}

// grpcCatalog sends catalog reads to the gRPC server instead.
type grpcCatalog struct {
	c *grpcserver.Client
}

func (g grpcCatalog) Popular(ctx context.Context, kind string, page int) (*client.Feed, error) {
	res, err := g.c.Popular(ctx, kind, page)
	if err != nil {
		return nil, err
	}
	return &client.Feed{Page: res.Page, Stale: res.Stale}, nil
}

func (g grpcCatalog) Search(ctx context.Context, kind, query string, page int) (*client.Feed, error) {
	res, err := g.c.Search(ctx, kind, query, page)
	if err != nil {
		return nil, err
	}
	return &client.Feed{Page: res.Page, Stale: res.Stale}, nil
}

func (g grpcCatalog) Recommendations(ctx context.Context, kind string, id int64) (*models.Page, error) {
	return g.c.Recommendations(ctx, kind, id)
}

func (g grpcCatalog) Providers(ctx context.Context, kind string, id int64, region string) (*models.RegionProviders, error) {
	return g.c.Providers(ctx, kind, id, region)
}
