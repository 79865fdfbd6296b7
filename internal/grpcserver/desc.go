package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"seriesjp/pkg/models"
)

const (
	CatalogServiceName = "seriesjp.v1.CatalogService"
	LibraryServiceName = "seriesjp.v1.LibraryService"
)

type CatalogServer interface {
	Popular(context.Context, *PageRequest) (*FeedResponse, error)
	Search(context.Context, *SearchRequest) (*FeedResponse, error)
	Recommendations(context.Context, *TitleRequest) (*models.Page, error)
	Providers(context.Context, *ProvidersRequest) (*models.RegionProviders, error)
}

type LibraryServer interface {
	ListWatchlist(context.Context, *ListWatchlistRequest) (*ListWatchlistResponse, error)
	AddToWatchlist(context.Context, *models.Title) (*AddToWatchlistResponse, error)
	RemoveFromWatchlist(context.Context, *TitleRequest) (*RemoveResponse, error)
	SetRating(context.Context, *SetRatingRequest) (*models.Rating, error)
	GetRating(context.Context, *TitleRequest) (*models.Rating, error)
	ListFavorites(context.Context, *ListFavoritesRequest) (*ListFavoritesResponse, error)
}

// unary builds a MethodDesc for a JSON-coded request/response pair, the way
// protoc-gen-go-grpc would for generated messages.
func unary[S, Req, Resp any](service, method string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + service + "/" + method}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var catalogServiceDesc = grpc.ServiceDesc{
	ServiceName: CatalogServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(CatalogServiceName, "Popular", CatalogServer.Popular),
		unary(CatalogServiceName, "Search", CatalogServer.Search),
		unary(CatalogServiceName, "Recommendations", CatalogServer.Recommendations),
		unary(CatalogServiceName, "Providers", CatalogServer.Providers),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "seriesjp/v1/catalog",
}

var libraryServiceDesc = grpc.ServiceDesc{
	ServiceName: LibraryServiceName,
	HandlerType: (*LibraryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(LibraryServiceName, "ListWatchlist", LibraryServer.ListWatchlist),
		unary(LibraryServiceName, "AddToWatchlist", LibraryServer.AddToWatchlist),
		unary(LibraryServiceName, "RemoveFromWatchlist", LibraryServer.RemoveFromWatchlist),
		unary(LibraryServiceName, "SetRating", LibraryServer.SetRating),
		unary(LibraryServiceName, "GetRating", LibraryServer.GetRating),
		unary(LibraryServiceName, "ListFavorites", LibraryServer.ListFavorites),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "seriesjp/v1/library",
}

func RegisterCatalogServer(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&catalogServiceDesc, srv)
}

func RegisterLibraryServer(s grpc.ServiceRegistrar, srv LibraryServer) {
	s.RegisterService(&libraryServiceDesc, srv)
}
