package grpcserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"seriesjp/internal/auth"
	"seriesjp/internal/catalog"
	"seriesjp/internal/favorites"
	"seriesjp/internal/ratings"
	synchub "seriesjp/internal/sync"
	"seriesjp/internal/tmdb"
	"seriesjp/internal/watchlist"
	"seriesjp/pkg/models"
)

type Server struct {
	Catalog   *catalog.Service
	Watchlist *watchlist.Repo
	Ratings   *ratings.Repo
	Favorites *favorites.Repo
	Hub       *synchub.Hub
	Log       *logrus.Entry
}

func NewServer(cat *catalog.Service, wl *watchlist.Repo, rt *ratings.Repo, fav *favorites.Repo, hub *synchub.Hub, log *logrus.Entry) *Server {
	return &Server{Catalog: cat, Watchlist: wl, Ratings: rt, Favorites: fav, Hub: hub, Log: log}
}

// NewGRPCServer wires both services behind the bearer-token interceptor.
func NewGRPCServer(s *Server, tokens auth.TokenService, users *auth.Repo) *grpc.Server {
	gs := grpc.NewServer(grpc.UnaryInterceptor(AuthInterceptor(tokens, users)))
	RegisterCatalogServer(gs, s)
	RegisterLibraryServer(gs, s)
	return gs
}

func (s *Server) Popular(ctx context.Context, req *PageRequest) (*FeedResponse, error) {
	feed, err := s.Catalog.Popular(ctx, catalogKind(req.Kind), req.Page)
	if err != nil {
		return nil, s.catalogError(err)
	}
	return &FeedResponse{Page: feed.Page, Stale: feed.Stale}, nil
}

func (s *Server) Search(ctx context.Context, req *SearchRequest) (*FeedResponse, error) {
	feed, err := s.Catalog.Search(ctx, catalogKind(req.Kind), req.Query, req.Page)
	if err != nil {
		return nil, s.catalogError(err)
	}
	return &FeedResponse{Page: feed.Page, Stale: feed.Stale}, nil
}

func (s *Server) Recommendations(ctx context.Context, req *TitleRequest) (*models.Page, error) {
	if req.ID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	page, err := s.Catalog.Recommendations(ctx, catalogKind(req.Kind), req.ID)
	if err != nil {
		return nil, s.catalogError(err)
	}
	return page, nil
}

func (s *Server) Providers(ctx context.Context, req *ProvidersRequest) (*models.RegionProviders, error) {
	if req.ID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	rp, err := s.Catalog.Providers(ctx, catalogKind(req.Kind), req.ID, req.Region)
	if err != nil {
		return nil, s.catalogError(err)
	}
	return rp, nil
}

func (s *Server) ListWatchlist(ctx context.Context, req *ListWatchlistRequest) (*ListWatchlistResponse, error) {
	claims, err := claimsFrom(ctx)
	if err != nil {
		return nil, err
	}
	kind, err := optionalKind(req.Kind)
	if err != nil {
		return nil, err
	}

	items, total, err := s.Watchlist.List(ctx, claims.UserID, kind, req.Limit, req.Offset)
	if err != nil {
		return nil, status.Error(codes.Internal, "list failed")
	}
	return &ListWatchlistResponse{Total: total, Items: items}, nil
}

func (s *Server) AddToWatchlist(ctx context.Context, req *models.Title) (*AddToWatchlistResponse, error) {
	claims, err := claimsFrom(ctx)
	if err != nil {
		return nil, err
	}
	kind, err := requiredKind(req.Kind)
	if err != nil {
		return nil, err
	}
	if req.ID <= 0 || strings.TrimSpace(req.Title) == "" {
		return nil, status.Error(codes.InvalidArgument, "id and title required")
	}

	t := *req
	t.Kind = kind
	t.Title = strings.TrimSpace(t.Title)
	created, err := s.Watchlist.Add(ctx, claims.UserID, t)
	if err != nil {
		return nil, status.Error(codes.Internal, "save failed")
	}
	saved, err := s.Watchlist.Get(ctx, claims.UserID, kind, t.ID)
	if err != nil || saved == nil {
		return nil, status.Error(codes.Internal, "fetch saved failed")
	}

	if created {
		s.publish(synchub.NewEvent(synchub.EventWatchlistAdd, claims.UserID, kind, t.ID))
	}
	return &AddToWatchlistResponse{Created: created, Entry: *saved}, nil
}

func (s *Server) RemoveFromWatchlist(ctx context.Context, req *TitleRequest) (*RemoveResponse, error) {
	claims, err := claimsFrom(ctx)
	if err != nil {
		return nil, err
	}
	kind, err := requiredKind(req.Kind)
	if err != nil {
		return nil, err
	}

	deleted, err := s.Watchlist.Delete(ctx, claims.UserID, kind, req.ID)
	if err != nil {
		return nil, status.Error(codes.Internal, "delete failed")
	}
	if !deleted {
		return nil, status.Error(codes.NotFound, "not found")
	}
	s.publish(synchub.NewEvent(synchub.EventWatchlistRemove, claims.UserID, kind, req.ID))
	return &RemoveResponse{Deleted: true}, nil
}

func (s *Server) SetRating(ctx context.Context, req *SetRatingRequest) (*models.Rating, error) {
	claims, err := claimsFrom(ctx)
	if err != nil {
		return nil, err
	}
	kind, err := requiredKind(req.Kind)
	if err != nil {
		return nil, err
	}

	if err := s.Ratings.Save(ctx, claims.UserID, kind, req.ID, req.Score); err != nil {
		if errors.Is(err, ratings.ErrScoreRange) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Error(codes.Internal, "save failed")
	}

	ev := synchub.NewEvent(synchub.EventRatingSet, claims.UserID, kind, req.ID)
	ev.Score = req.Score
	s.publish(ev)
	return &models.Rating{UserID: claims.UserID, Kind: kind, TitleID: req.ID, Score: req.Score}, nil
}

func (s *Server) GetRating(ctx context.Context, req *TitleRequest) (*models.Rating, error) {
	claims, err := claimsFrom(ctx)
	if err != nil {
		return nil, err
	}
	kind, err := requiredKind(req.Kind)
	if err != nil {
		return nil, err
	}

	rt, err := s.Ratings.Load(ctx, claims.UserID, kind, req.ID)
	if err != nil {
		return nil, status.Error(codes.Internal, "get failed")
	}
	if rt == nil {
		return nil, status.Error(codes.NotFound, "not found")
	}
	return rt, nil
}

func (s *Server) ListFavorites(ctx context.Context, req *ListFavoritesRequest) (*ListFavoritesResponse, error) {
	claims, err := claimsFrom(ctx)
	if err != nil {
		return nil, err
	}
	typ := strings.ToLower(strings.TrimSpace(req.Type))
	if typ != "" && typ != models.FavoriteTypeSeries && typ != models.FavoriteTypeMovie {
		return nil, status.Error(codes.InvalidArgument, "type must be serie or pelicula")
	}

	items, err := s.Favorites.List(ctx, claims.UserID, typ)
	if err != nil {
		return nil, status.Error(codes.Internal, "list failed")
	}
	return &ListFavoritesResponse{Items: items}, nil
}

func (s *Server) publish(ev synchub.Event) {
	if s.Hub != nil {
		go s.Hub.Publish(ev)
	}
}

func (s *Server) catalogError(err error) error {
	if errors.Is(err, catalog.ErrUnknownKind) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	var se *tmdb.StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return status.Error(codes.NotFound, "not found")
	}
	if s.Log != nil {
		s.Log.WithError(err).Warn("catalog call failed")
	}
	return status.Error(codes.Unavailable, "catalog unavailable")
}

// catalogKind leaves unknown input empty so the catalog rejects it.
func catalogKind(raw string) string {
	return models.NormalizeKind(strings.ToLower(strings.TrimSpace(raw)))
}

func requiredKind(raw string) (string, error) {
	kind := models.NormalizeKind(strings.ToLower(strings.TrimSpace(raw)))
	if kind == "" {
		return "", status.Error(codes.InvalidArgument, "kind must be movie or series")
	}
	return kind, nil
}

func optionalKind(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	return requiredKind(raw)
}
