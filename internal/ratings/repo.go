package ratings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"seriesjp/pkg/models"
)

var ErrScoreRange = fmt.Errorf("score must be between %d and %d", models.MinScore, models.MaxScore)

type Repo struct {
	DB *sqlx.DB
}

func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{DB: db}
}

// Save sets the user's score for a title; the last write wins.
func (r *Repo) Save(ctx context.Context, userID, kind string, titleID int64, score int) error {
	if score < models.MinScore || score > models.MaxScore {
		return ErrScoreRange
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO ratings (user_id, kind, title_id, score, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, kind, title_id) DO UPDATE SET
			score = excluded.score,
			updated_at = CURRENT_TIMESTAMP
	`, userID, kind, titleID, score)
	if err != nil {
		return fmt.Errorf("save rating: %w", err)
	}
	return nil
}

// Load returns nil when the user never rated the title.
func (r *Repo) Load(ctx context.Context, userID, kind string, titleID int64) (*models.Rating, error) {
	var rt models.Rating
	err := r.DB.GetContext(ctx, &rt, `
		SELECT user_id, kind, title_id, score, updated_at
		FROM ratings
		WHERE user_id = ? AND kind = ? AND title_id = ?
	`, userID, kind, titleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load rating: %w", err)
	}
	return &rt, nil
}

// All returns title id -> score for one kind.
func (r *Repo) All(ctx context.Context, userID, kind string) (map[int64]int, error) {
	rows, err := r.DB.QueryxContext(ctx, `
		SELECT title_id, score
		FROM ratings
		WHERE user_id = ? AND kind = ?
	`, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("all ratings: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]int)
	for rows.Next() {
		var (
			id    int64
			score int
		)
		if err := rows.Scan(&id, &score); err != nil {
			return nil, fmt.Errorf("scan rating row: %w", err)
		}
		out[id] = score
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// List returns every rating of the user, most recently changed first.
func (r *Repo) List(ctx context.Context, userID string) ([]models.Rating, error) {
	out := []models.Rating{}
	err := r.DB.SelectContext(ctx, &out, `
		SELECT user_id, kind, title_id, score, updated_at
		FROM ratings
		WHERE user_id = ?
		ORDER BY updated_at DESC, rowid DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return out, nil
}
