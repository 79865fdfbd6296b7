package favorites

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

// Upsert overwrites the whole favorite record stored under (user, f.ID).
func (r *Repo) Upsert(ctx context.Context, userID string, f models.Favorite) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO favorites (user_id, id, title, poster_url, type, created_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, id) DO UPDATE SET
			title = excluded.title,
			poster_url = excluded.poster_url,
			type = excluded.type,
			created_at = CURRENT_TIMESTAMP
	`, userID, f.ID, f.Title, f.PosterURL, f.Type)
	if err != nil {
		return fmt.Errorf("upsert favorite: %w", err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, userID, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return false, fmt.Errorf("delete favorite: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) Get(ctx context.Context, userID, id string) (*models.Favorite, error) {
	var f models.Favorite
	err := r.DB.GetContext(ctx, &f, `
		SELECT id, title, poster_url, type, created_at
		FROM favorites
		WHERE user_id = ? AND id = ?
	`, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get favorite: %w", err)
	}
	return &f, nil
}

// List returns the user's favorites, newest first. typ filters by "serie"/"pelicula" when set.
func (r *Repo) List(ctx context.Context, userID, typ string) ([]models.Favorite, error) {
	q := `SELECT id, title, poster_url, type, created_at FROM favorites WHERE user_id = ?`
	args := []any{userID}
	if typ != "" {
		q += ` AND type = ?`
		args = append(args, typ)
	}
	q += ` ORDER BY created_at DESC, rowid DESC`

	out := []models.Favorite{}
	if err := r.DB.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return out, nil
}
