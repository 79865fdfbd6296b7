package models

import "time"

const (
	MinScore = 1
	MaxScore = 10
)

type Rating struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Kind      string    `json:"kind" db:"kind"`
	TitleID   int64     `json:"title_id" db:"title_id"`
	Score     int       `json:"score" db:"score"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
