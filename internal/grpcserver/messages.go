package grpcserver

import "seriesjp/pkg/models"

type PageRequest struct {
	Kind string `json:"kind"`
	Page int    `json:"page"`
}

type SearchRequest struct {
	Kind  string `json:"kind"`
	Query string `json:"query"`
	Page  int    `json:"page"`
}

type TitleRequest struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
}

type ProvidersRequest struct {
	Kind   string `json:"kind"`
	ID     int64  `json:"id"`
	Region string `json:"region"`
}

type FeedResponse struct {
	models.Page
	Stale bool `json:"stale"`
}

type ListWatchlistRequest struct {
	Kind   string `json:"kind"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

type ListWatchlistResponse struct {
	Total int                     `json:"total"`
	Items []models.WatchlistEntry `json:"items"`
}

type AddToWatchlistResponse struct {
	Created bool                  `json:"created"`
	Entry   models.WatchlistEntry `json:"entry"`
}

type RemoveResponse struct {
	Deleted bool `json:"deleted"`
}

type SetRatingRequest struct {
	Kind  string `json:"kind"`
	ID    int64  `json:"id"`
	Score int    `json:"score"`
}

type ListFavoritesRequest struct {
	Type string `json:"type"`
}

type ListFavoritesResponse struct {
	Items []models.Favorite `json:"items"`
}
