package models

import "time"

// CommentDateLayout is the format of Comment.Date.
const CommentDateLayout = "2006-01-02"

type Comment struct {
	ID        string    `json:"id" db:"id"`
	Kind      string    `json:"kind" db:"kind"`
	TitleID   int64     `json:"title_id" db:"title_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Username  string    `json:"username" db:"username"`
	Score     int       `json:"score" db:"score"`
	Date      string    `json:"date" db:"date"`
	Text      string    `json:"text" db:"text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
