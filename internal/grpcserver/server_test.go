package grpcserver

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"seriesjp/internal/auth"
	"seriesjp/internal/catalog"
	"seriesjp/internal/favorites"
	"seriesjp/internal/logger"
	"seriesjp/internal/ratings"
	synchub "seriesjp/internal/sync"
	"seriesjp/internal/tmdb"
	"seriesjp/internal/watchlist"
	"seriesjp/pkg/database/dbtest"
	"seriesjp/pkg/models"
)

type fixture struct {
	conn  *grpc.ClientConn
	token string
	hub   *synchub.Hub
}

func setup(t *testing.T) fixture {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/tv/popular":
			_, _ = io.WriteString(w, `{"page":1,"total_pages":3,"total_results":1,"results":[{"id":1399,"name":"Juego de tronos"}]}`)
		case "/movie/550/watch/providers":
			_, _ = io.WriteString(w, `{"id":550,"results":{"ES":{"link":"x","flatrate":[{"provider_id":8,"provider_name":"Netflix"}]}}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(upstream.Close)

	db := dbtest.Open(t)
	dbtest.CreateUser(t, db, "u1")
	users := auth.NewRepo(db)
	tokens := auth.TokenService{Secret: []byte("s"), Issuer: "seriesjp", Duration: time.Hour}
	u, err := users.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	token, _, err := tokens.Sign(u)
	require.NoError(t, err)

	log := logger.Discard()
	hub := synchub.NewHub(log)
	cat := catalog.NewService(tmdb.New("k", upstream.URL, "", 0), nil, "ES", log)
	srv := NewServer(cat, watchlist.NewRepo(db), ratings.NewRepo(db), favorites.NewRepo(db), hub, log)

	lis := bufconn.Listen(1 << 20)
	gs := NewGRPCServer(srv, tokens, users)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return fixture{conn: conn, token: token, hub: hub}
}

func TestCatalogCallsNeedNoToken(t *testing.T) {
	f := setup(t)
	c := NewClient(f.conn, "")
	ctx := context.Background()

	feed, err := c.Popular(ctx, "tv", 1)
	require.NoError(t, err)
	require.Len(t, feed.Results, 1)
	assert.Equal(t, "Juego de tronos", feed.Results[0].Title)
	assert.Equal(t, models.KindSeries, feed.Results[0].Kind)

	rp, err := c.Providers(ctx, models.KindMovie, 550, "es")
	require.NoError(t, err)
	require.Len(t, rp.Flatrate, 1)
	assert.Equal(t, "Netflix", rp.Flatrate[0].Name)
}

func TestCatalogErrors(t *testing.T) {
	f := setup(t)
	c := NewClient(f.conn, "")

	_, err := c.Popular(context.Background(), "anime", 1)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Recommendations(context.Background(), models.KindMovie, 42)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestLibraryRequiresToken(t *testing.T) {
	f := setup(t)
	_, err := NewClient(f.conn, "").ListWatchlist(context.Background(), "", 0, 0)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = NewClient(f.conn, "garbage").ListFavorites(context.Background(), "")
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestWatchlistOverGRPC(t *testing.T) {
	f := setup(t)
	events, cancel := f.hub.Subscribe(4)
	defer cancel()

	c := NewClient(f.conn, f.token)
	ctx := context.Background()

	res, err := c.AddToWatchlist(ctx, models.Title{ID: 1399, Kind: "serie", Title: "Juego de tronos"})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, models.KindSeries, res.Entry.Kind)

	select {
	case ev := <-events:
		assert.Equal(t, synchub.EventWatchlistAdd, ev.Type)
		assert.Equal(t, "u1", ev.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("no watchlist event")
	}

	res, err = c.AddToWatchlist(ctx, models.Title{ID: 1399, Kind: models.KindSeries, Title: "Juego de tronos"})
	require.NoError(t, err)
	assert.False(t, res.Created)

	list, err := c.ListWatchlist(ctx, models.KindSeries, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)

	require.NoError(t, c.RemoveFromWatchlist(ctx, models.KindSeries, 1399))
	err = c.RemoveFromWatchlist(ctx, models.KindSeries, 1399)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestRatingsOverGRPC(t *testing.T) {
	f := setup(t)
	c := NewClient(f.conn, f.token)
	ctx := context.Background()

	_, err := c.GetRating(ctx, models.KindMovie, 550)
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.SetRating(ctx, models.KindMovie, 550, 11)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.SetRating(ctx, models.KindMovie, 550, 7)
	require.NoError(t, err)
	rt, err := c.GetRating(ctx, models.KindMovie, 550)
	require.NoError(t, err)
	assert.Equal(t, 7, rt.Score)
}

func TestListFavoritesOverGRPC(t *testing.T) {
	f := setup(t)
	c := NewClient(f.conn, f.token)

	res, err := c.ListFavorites(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	_, err = c.ListFavorites(context.Background(), "anime")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
