package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"seriesjp/pkg/models"
)

// Client calls both services over one connection, sending Token as bearer
// metadata when set.
type Client struct {
	conn  grpc.ClientConnInterface
	Token string
}

func NewClient(conn grpc.ClientConnInterface, token string) *Client {
	return &Client{conn: conn, Token: token}
}

// Dial opens a plaintext connection that speaks the JSON codec.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}
	return grpc.NewClient(addr, append(base, opts...)...)
}

func (c *Client) invoke(ctx context.Context, service, method string, in, out any) error {
	if c.Token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.Token)
	}
	return c.conn.Invoke(ctx, "/"+service+"/"+method, in, out, grpc.CallContentSubtype(CodecName))
}

func (c *Client) Popular(ctx context.Context, kind string, page int) (*FeedResponse, error) {
	out := new(FeedResponse)
	if err := c.invoke(ctx, CatalogServiceName, "Popular", &PageRequest{Kind: kind, Page: page}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Search(ctx context.Context, kind, query string, page int) (*FeedResponse, error) {
	out := new(FeedResponse)
	if err := c.invoke(ctx, CatalogServiceName, "Search", &SearchRequest{Kind: kind, Query: query, Page: page}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Recommendations(ctx context.Context, kind string, id int64) (*models.Page, error) {
	out := new(models.Page)
	if err := c.invoke(ctx, CatalogServiceName, "Recommendations", &TitleRequest{Kind: kind, ID: id}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Providers(ctx context.Context, kind string, id int64, region string) (*models.RegionProviders, error) {
	out := new(models.RegionProviders)
	if err := c.invoke(ctx, CatalogServiceName, "Providers", &ProvidersRequest{Kind: kind, ID: id, Region: region}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListWatchlist(ctx context.Context, kind string, limit, offset int) (*ListWatchlistResponse, error) {
	out := new(ListWatchlistResponse)
	if err := c.invoke(ctx, LibraryServiceName, "ListWatchlist", &ListWatchlistRequest{Kind: kind, Limit: limit, Offset: offset}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddToWatchlist(ctx context.Context, t models.Title) (*AddToWatchlistResponse, error) {
	out := new(AddToWatchlistResponse)
	if err := c.invoke(ctx, LibraryServiceName, "AddToWatchlist", &t, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RemoveFromWatchlist(ctx context.Context, kind string, id int64) error {
	return c.invoke(ctx, LibraryServiceName, "RemoveFromWatchlist", &TitleRequest{Kind: kind, ID: id}, new(RemoveResponse))
}

func (c *Client) SetRating(ctx context.Context, kind string, id int64, score int) (*models.Rating, error) {
	out := new(models.Rating)
	if err := c.invoke(ctx, LibraryServiceName, "SetRating", &SetRatingRequest{Kind: kind, ID: id, Score: score}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetRating(ctx context.Context, kind string, id int64) (*models.Rating, error) {
	out := new(models.Rating)
	if err := c.invoke(ctx, LibraryServiceName, "GetRating", &TitleRequest{Kind: kind, ID: id}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListFavorites(ctx context.Context, typ string) (*ListFavoritesResponse, error) {
	out := new(ListFavoritesResponse)
	if err := c.invoke(ctx, LibraryServiceName, "ListFavorites", &ListFavoritesRequest{Type: typ}, out); err != nil {
		return nil, err
	}
	return out, nil
}
