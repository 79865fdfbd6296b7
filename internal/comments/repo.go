package comments

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"seriesjp/pkg/models"
)

type Repo struct {
	DB *sqlx.DB
}

func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{DB: db}
}

const commentColumns = `id, kind, title_id, user_id, username, score, date, text, created_at`

// Append stores c under a fresh id. Comments are never edited or removed.
func (r *Repo) Append(ctx context.Context, c models.Comment) (*models.Comment, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("comment id: %w", err)
	}
	c.ID = id

	_, err = r.DB.NamedExecContext(ctx, `
		INSERT INTO comments (`+commentColumns+`)
		VALUES (:id, :kind, :title_id, :user_id, :username, :score, :date, :text, :created_at)
	`, c)
	if err != nil {
		return nil, fmt.Errorf("append comment: %w", err)
	}
	return &c, nil
}

// List returns a title's comments in the order they were written.
func (r *Repo) List(ctx context.Context, kind string, titleID int64, limit, offset int) ([]models.Comment, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.DB.GetContext(ctx, &total, `
		SELECT COUNT(*) FROM comments WHERE kind = ? AND title_id = ?
	`, kind, titleID); err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	out := make([]models.Comment, 0, limit)
	err := r.DB.SelectContext(ctx, &out, `
		SELECT `+commentColumns+`
		FROM comments
		WHERE kind = ? AND title_id = ?
		ORDER BY created_at ASC, rowid ASC
		LIMIT ? OFFSET ?
	`, kind, titleID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	return out, total, nil
}

// Recent returns the last n comments, still oldest first.
func (r *Repo) Recent(ctx context.Context, kind string, titleID int64, n int) ([]models.Comment, error) {
	out := []models.Comment{}
	err := r.DB.SelectContext(ctx, &out, `
		SELECT `+commentColumns+` FROM (
			SELECT `+commentColumns+`, rowid AS seq
			FROM comments
			WHERE kind = ? AND title_id = ?
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		) ORDER BY created_at ASC, seq ASC
	`, kind, titleID, n)
	if err != nil {
		return nil, fmt.Errorf("recent comments: %w", err)
	}
	return out, nil
}
