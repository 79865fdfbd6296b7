package models

import "time"

type WatchlistEntry struct {
	UserID string `json:"user_id" db:"user_id"`
	Title
	AddedAt time.Time `json:"added_at" db:"added_at"`
}
