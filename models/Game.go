package models

// GameSummary is one row of a catalog search
type GameSummary struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	ThumbnailURL *string `json:"thumbnail_url"`
}

// GameDetails is the catalog entry shown when a game is selected
type GameDetails struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}
