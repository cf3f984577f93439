package overlay

import "time"

// TitleDetails is the per-user overlay row for one title. A title the user
// never interacted with has no row; readers treat that as the zero value.
type TitleDetails struct {
	ID                 int64      `json:"id"`
	UserID             int64      `json:"userId"`
	TitleID            int64      `json:"titleId"`
	InLibrary          bool       `json:"inLibrary"`
	Favorite           bool       `json:"favorite"`
	Watchlist          bool       `json:"watchlist"`
	WatchCount         int        `json:"watchCount"`
	Notes              *string    `json:"notes,omitempty"`
	ChosenLocale       *string    `json:"chosenLocale,omitempty"`
	ChosenPosterPath   *string    `json:"chosenPosterPath,omitempty"`
	ChosenBackdropPath *string    `json:"chosenBackdropPath,omitempty"`
	AddedAt            *time.Time `json:"addedAt,omitempty"`
	LastWatchedAt      *time.Time `json:"lastWatchedAt,omitempty"`
	LastViewedAt       *time.Time `json:"lastViewedAt,omitempty"`
}

// SeasonDetails is the per-user overlay row for one season.
type SeasonDetails struct {
	ID         int64 `json:"id"`
	UserID     int64 `json:"userId"`
	SeasonID   int64 `json:"seasonId"`
	WatchCount int   `json:"watchCount"`
}

// EpisodeDetails is the per-user overlay row for one episode.
type EpisodeDetails struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"userId"`
	EpisodeID     int64      `json:"episodeId"`
	WatchCount    int        `json:"watchCount"`
	LastWatchedAt *time.Time `json:"lastWatchedAt,omitempty"`
}

// Patch lists every settable overlay field as an optional value. Nil fields
// are left untouched; set fields are merged one by one. An empty string
// clears the corresponding text field.
type Patch struct {
	InLibrary          *bool   `json:"inLibrary,omitempty"`
	Favorite           *bool   `json:"favorite,omitempty"`
	Watchlist          *bool   `json:"watchlist,omitempty"`
	WatchCount         *int    `json:"watchCount,omitempty"`
	Notes              *string `json:"notes,omitempty"`
	ChosenLocale       *string `json:"chosenLocale,omitempty"`
	ChosenPosterPath   *string `json:"chosenPosterPath,omitempty"`
	ChosenBackdropPath *string `json:"chosenBackdropPath,omitempty"`
}

// Empty reports whether the patch sets no fields.
func (p Patch) Empty() bool {
	return p.InLibrary == nil && p.Favorite == nil && p.Watchlist == nil &&
		p.WatchCount == nil && p.Notes == nil && p.ChosenLocale == nil &&
		p.ChosenPosterPath == nil && p.ChosenBackdropPath == nil
}
