// Package mirror captures popular catalog pages to a JSON file and serves them
// back with the catalog API's paths and shapes, for offline development.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"seriesjp/pkg/models"
)

type Snapshot struct {
	SavedAt time.Time     `json:"saved_at"`
	Movies  []models.Page `json:"movies"`
	Series  []models.Page `json:"series"`
}

type Popular interface {
	PopularMovies(ctx context.Context, page int) (*models.Page, error)
	PopularSeries(ctx context.Context, page int) (*models.Page, error)
}

// Capture fetches the first pages of both popular lists.
func Capture(ctx context.Context, src Popular, pages int) (*Snapshot, error) {
	if pages <= 0 {
		pages = 1
	}
	snap := &Snapshot{SavedAt: time.Now().UTC()}
	for p := 1; p <= pages; p++ {
		movies, err := src.PopularMovies(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("movies page %d: %w", p, err)
		}
		series, err := src.PopularSeries(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("series page %d: %w", p, err)
		}
		snap.Movies = append(snap.Movies, *movies)
		snap.Series = append(snap.Series, *series)
	}
	return snap, nil
}

func Save(path string, snap *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func Load(path string) (*Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	// validate JSON so a bad file doesn't silently break
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("%s: invalid JSON: %w", path, err)
	}
	return &snap, nil
}

func (s *Snapshot) pages(kind string) []models.Page {
	if kind == models.KindMovie {
		return s.Movies
	}
	return s.Series
}

// titles returns every distinct title of kind, in page order.
func (s *Snapshot) titles(kind string) []models.Title {
	seen := make(map[int64]bool)
	var out []models.Title
	for _, p := range s.pages(kind) {
		for _, t := range p.Results {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			out = append(out, t)
		}
	}
	return out
}
