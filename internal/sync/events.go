package sync

import "time"

const (
	EventWatchlistAdd    = "watchlist.add"
	EventWatchlistRemove = "watchlist.remove"
	EventFavoriteAdd     = "favorite.add"
	EventFavoriteRemove  = "favorite.remove"
	EventRatingSet       = "rating.set"
	EventCommentAdd      = "comment.add"
)

// Event is one change to a user's library, fanned out to every subscriber.
type Event struct {
	Type    string    `json:"type"`
	UserID  string    `json:"user_id"`
	Kind    string    `json:"kind,omitempty"`
	TitleID int64     `json:"title_id,omitempty"`
	Score   int       `json:"score,omitempty"`
	At      time.Time `json:"at"`
}

func NewEvent(typ, userID, kind string, titleID int64) Event {
	return Event{
		Type:    typ,
		UserID:  userID,
		Kind:    kind,
		TitleID: titleID,
		At:      time.Now().UTC(),
	}
}
