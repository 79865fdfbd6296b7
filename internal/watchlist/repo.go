package watchlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"seriesjp/pkg/models"
)

type Repo struct {
	DB *sqlx.DB
}

func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{DB: db}
}

const entryColumns = `user_id, kind, title_id, title, overview, poster_path, release_date, vote_average, added_at`

// Add stores t on the user's list. It reports false when the title was already there.
func (r *Repo) Add(ctx context.Context, userID string, t models.Title) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO watchlist (user_id, kind, title_id, title, overview, poster_path, release_date, vote_average)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, kind, title_id) DO NOTHING
	`, userID, t.Kind, t.ID, t.Title, t.Overview, t.PosterPath, t.ReleaseDate, t.VoteAverage)
	if err != nil {
		return false, fmt.Errorf("add watchlist entry: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) Delete(ctx context.Context, userID, kind string, titleID int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM watchlist
		WHERE user_id = ? AND kind = ? AND title_id = ?
	`, userID, kind, titleID)
	if err != nil {
		return false, fmt.Errorf("delete watchlist entry: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// List returns newest first. An empty kind lists both movies and series.
func (r *Repo) List(ctx context.Context, userID, kind string, limit, offset int) ([]models.WatchlistEntry, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	where := `WHERE user_id = ?`
	args := []any{userID}
	if kind != "" {
		where += ` AND kind = ?`
		args = append(args, kind)
	}

	var total int
	if err := r.DB.GetContext(ctx, &total, `SELECT COUNT(*) FROM watchlist `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count watchlist: %w", err)
	}

	out := make([]models.WatchlistEntry, 0, limit)
	err := r.DB.SelectContext(ctx, &out, `
		SELECT `+entryColumns+`
		FROM watchlist
		`+where+`
		ORDER BY added_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list watchlist: %w", err)
	}
	return out, total, nil
}

func (r *Repo) Get(ctx context.Context, userID, kind string, titleID int64) (*models.WatchlistEntry, error) {
	var e models.WatchlistEntry
	err := r.DB.GetContext(ctx, &e, `
		SELECT `+entryColumns+`
		FROM watchlist
		WHERE user_id = ? AND kind = ? AND title_id = ?
	`, userID, kind, titleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get watchlist entry: %w", err)
	}
	return &e, nil
}

// All returns every entry for a user, used by exports.
func (r *Repo) All(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	var out []models.WatchlistEntry
	err := r.DB.SelectContext(ctx, &out, `
		SELECT `+entryColumns+`
		FROM watchlist
		WHERE user_id = ?
		ORDER BY added_at DESC, rowid DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("all watchlist: %w", err)
	}
	return out, nil
}
