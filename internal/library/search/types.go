package search

import (
	"time"

	"github.com/reelvault/reelvault/internal/catalog"
)

// WatchStatus classifies a title's viewing progress. It is derived from
// title- and episode-level watch counts at query time, never stored.
type WatchStatus string

const (
	WatchStatusNotWatched WatchStatus = "not_watched"
	WatchStatusPartial    WatchStatus = "partial"
	WatchStatusCompleted  WatchStatus = "completed"
)

// Valid reports whether the watch status is a known value.
func (w WatchStatus) Valid() bool {
	switch w {
	case WatchStatusNotWatched, WatchStatusPartial, WatchStatusCompleted:
		return true
	}
	return false
}

// Request is the structured search query. Zero values mean "no filter".
// Results are scoped to the user's library unless FullCatalog is set or an
// explicit InLibrary filter overrides the scope.
type Request struct {
	Query           string             `json:"query"`
	MediaType       *catalog.MediaType `json:"mediaType,omitempty"`
	FullCatalog     bool               `json:"fullCatalog"`
	InLibrary       *bool              `json:"inLibrary,omitempty"`
	Favorite        *bool              `json:"favorite,omitempty"`
	Watchlist       *bool              `json:"watchlist,omitempty"`
	WatchStatus     *WatchStatus       `json:"watchStatus,omitempty"`
	YearFrom        *int               `json:"yearFrom,omitempty"`
	YearTo          *int               `json:"yearTo,omitempty"`
	Released        *bool              `json:"released,omitempty"`
	MinTmdbScore    *float64           `json:"minTmdbScore,omitempty"`
	MinImdbScore    *float64           `json:"minImdbScore,omitempty"`
	IncludeGenreIDs []int64            `json:"includeGenreIds,omitempty"`
	ExcludeGenreIDs []int64            `json:"excludeGenreIds,omitempty"`
	ExcludeTitleIDs []int64            `json:"excludeTitleIds,omitempty"`
	SortBy          string             `json:"sortBy,omitempty"`
	SortDirection   string             `json:"sortDirection,omitempty"`
	Page            int                `json:"page"`
	PageSize        int                `json:"pageSize"`
}

// Result is one search hit: the catalog title with its locale-resolved text
// and assets, the user's overlay fields, and for series the season and
// episode counts with specials excluded.
type Result struct {
	Title        *catalog.Title       `json:"title"`
	Name         string               `json:"name"`
	Tagline      *string              `json:"tagline,omitempty"`
	Overview     *string              `json:"overview,omitempty"`
	PosterPath   *string              `json:"posterPath,omitempty"`
	BackdropPath *string              `json:"backdropPath,omitempty"`
	LogoPath     *string              `json:"logoPath,omitempty"`
	InLibrary    bool                 `json:"inLibrary"`
	Favorite     bool                 `json:"favorite"`
	Watchlist    bool                 `json:"watchlist"`
	WatchCount   int                  `json:"watchCount"`
	LastViewedAt *time.Time           `json:"lastViewedAt,omitempty"`
	SeasonCount  int                  `json:"seasonCount"`
	EpisodeCount int                  `json:"episodeCount"`
	Genres       []*catalog.Genre     `json:"genres"`
	AgeRatings   []*catalog.AgeRating `json:"ageRatings,omitempty"`
}

// Response is one page of results with consistent totals: TotalItems counts
// every row matching the filters before pagination.
type Response struct {
	Results    []*Result `json:"results"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	TotalItems int       `json:"totalItems"`
	TotalPages int       `json:"totalPages"`
}
