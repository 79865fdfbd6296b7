// Package backup writes a user's library to CSV files and reads it back.
package backup

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"seriesjp/internal/favorites"
	"seriesjp/internal/ratings"
	"seriesjp/internal/watchlist"
	"seriesjp/pkg/models"
)

var (
	watchlistHeader = []string{"kind", "title_id", "title", "overview", "poster_path", "release_date", "vote_average", "added_at"}
	favoritesHeader = []string{"id", "type", "title", "poster_url", "created_at"}
	ratingsHeader   = []string{"kind", "title_id", "score", "updated_at"}
)

type Repos struct {
	Watchlist *watchlist.Repo
	Favorites *favorites.Repo
	Ratings   *ratings.Repo
}

func NewRepos(db *sqlx.DB) Repos {
	return Repos{
		Watchlist: watchlist.NewRepo(db),
		Favorites: favorites.NewRepo(db),
		Ratings:   ratings.NewRepo(db),
	}
}

type Files struct {
	Watchlist string
	Favorites string
	Ratings   string
}

func DefaultFiles(dir string) Files {
	return Files{
		Watchlist: filepath.Join(dir, "watchlist.csv"),
		Favorites: filepath.Join(dir, "favorites.csv"),
		Ratings:   filepath.Join(dir, "ratings.csv"),
	}
}

type Counts struct {
	Watchlist int
	Favorites int
	Ratings   int
}

func Export(ctx context.Context, r Repos, userID string, f Files) (Counts, error) {
	var n Counts

	entries, err := r.Watchlist.All(ctx, userID)
	if err != nil {
		return n, err
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Kind,
			strconv.FormatInt(e.ID, 10),
			e.Title.Title,
			e.Overview,
			e.PosterPath,
			e.ReleaseDate,
			strconv.FormatFloat(e.VoteAverage, 'f', -1, 64),
			e.AddedAt.UTC().Format(time.RFC3339),
		})
	}
	if err := writeCSV(f.Watchlist, watchlistHeader, rows); err != nil {
		return n, fmt.Errorf("write watchlist: %w", err)
	}
	n.Watchlist = len(rows)

	favs, err := r.Favorites.List(ctx, userID, "")
	if err != nil {
		return n, err
	}
	rows = make([][]string, 0, len(favs))
	for _, fav := range favs {
		rows = append(rows, []string{fav.ID, fav.Type, fav.Title, fav.PosterURL, fav.CreatedAt.UTC().Format(time.RFC3339)})
	}
	if err := writeCSV(f.Favorites, favoritesHeader, rows); err != nil {
		return n, fmt.Errorf("write favorites: %w", err)
	}
	n.Favorites = len(rows)

	rts, err := r.Ratings.List(ctx, userID)
	if err != nil {
		return n, err
	}
	rows = make([][]string, 0, len(rts))
	for _, rt := range rts {
		rows = append(rows, []string{rt.Kind, strconv.FormatInt(rt.TitleID, 10), strconv.Itoa(rt.Score), rt.UpdatedAt.UTC().Format(time.RFC3339)})
	}
	if err := writeCSV(f.Ratings, ratingsHeader, rows); err != nil {
		return n, fmt.Errorf("write ratings: %w", err)
	}
	n.Ratings = len(rows)

	return n, nil
}

// Import restores files into userID's library. Missing files are skipped,
// entries already present are left alone and ratings are overwritten. Every
// file is read and checked before the first write, so a bad row leaves the
// library untouched.
func Import(ctx context.Context, r Repos, userID string, f Files) (Counts, error) {
	var n Counts

	p, err := parseFiles(f)
	if err != nil {
		return n, err
	}

	for _, t := range p.watchlist {
		created, err := r.Watchlist.Add(ctx, userID, t)
		if err != nil {
			return n, err
		}
		if created {
			n.Watchlist++
		}
	}
	for _, fav := range p.favorites {
		if err := r.Favorites.Upsert(ctx, userID, fav); err != nil {
			return n, err
		}
		n.Favorites++
	}
	for _, rt := range p.ratings {
		if err := r.Ratings.Save(ctx, userID, rt.Kind, rt.TitleID, rt.Score); err != nil {
			return n, err
		}
		n.Ratings++
	}
	return n, nil
}

// parsed holds the rows of a backup oldest first, ready to insert.
type parsed struct {
	watchlist []models.Title
	favorites []models.Favorite
	ratings   []models.Rating
}

// parseFiles reads the three files. They are written newest first, so rows
// are reversed to keep the original order once inserted.
func parseFiles(f Files) (*parsed, error) {
	var p parsed

	rows, err := readCSV(f.Watchlist, watchlistHeader)
	if err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		id, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("watchlist line %d: bad title_id %q", i+2, row[1])
		}
		kind := models.NormalizeKind(row[0])
		if kind == "" {
			return nil, fmt.Errorf("watchlist line %d: bad kind %q", i+2, row[0])
		}
		vote, _ := strconv.ParseFloat(row[6], 64)
		p.watchlist = append(p.watchlist, models.Title{
			ID:          id,
			Kind:        kind,
			Title:       row[2],
			Overview:    row[3],
			PosterPath:  row[4],
			ReleaseDate: row[5],
			VoteAverage: vote,
		})
	}

	rows, err = readCSV(f.Favorites, favoritesHeader)
	if err != nil {
		return nil, fmt.Errorf("read favorites: %w", err)
	}
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if row[1] != models.FavoriteTypeSeries && row[1] != models.FavoriteTypeMovie {
			return nil, fmt.Errorf("favorites line %d: bad type %q", i+2, row[1])
		}
		if row[0] == "" {
			return nil, fmt.Errorf("favorites line %d: empty id", i+2)
		}
		p.favorites = append(p.favorites, models.Favorite{ID: row[0], Type: row[1], Title: row[2], PosterURL: row[3]})
	}

	rows, err = readCSV(f.Ratings, ratingsHeader)
	if err != nil {
		return nil, fmt.Errorf("read ratings: %w", err)
	}
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		id, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ratings line %d: bad title_id %q", i+2, row[1])
		}
		score, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, fmt.Errorf("ratings line %d: bad score %q", i+2, row[2])
		}
		if score < models.MinScore || score > models.MaxScore {
			return nil, fmt.Errorf("ratings line %d: %w", i+2, ratings.ErrScoreRange)
		}
		kind := models.NormalizeKind(row[0])
		if kind == "" {
			return nil, fmt.Errorf("ratings line %d: bad kind %q", i+2, row[0])
		}
		p.ratings = append(p.ratings, models.Rating{Kind: kind, TitleID: id, Score: score})
	}
	return &p, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return file.Close()
}

// readCSV returns the data rows, or nothing when the file does not exist.
func readCSV(path string, header []string) ([][]string, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(header)

	got, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i, col := range header {
		if got[i] != col {
			return nil, fmt.Errorf("unexpected header %v", got)
		}
	}
	return r.ReadAll()
}
