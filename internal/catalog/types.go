package catalog

import "time"

// MediaType distinguishes movies from series.
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeSeries MediaType = "series"
)

// Valid reports whether the media type is one of the known values.
func (m MediaType) Valid() bool {
	return m == MediaTypeMovie || m == MediaTypeSeries
}

// ImageCategory is the asset category of a stored image.
type ImageCategory string

const (
	ImagePoster   ImageCategory = "poster"
	ImageBackdrop ImageCategory = "backdrop"
	ImageLogo     ImageCategory = "logo"
	ImageStill    ImageCategory = "still"
)

// Title is one movie or series in the catalog. Mutable fields are merged on
// re-ingestion; the tmdb_id natural key never changes.
type Title struct {
	ID               int64      `json:"id"`
	TmdbID           int        `json:"tmdbId"`
	ImdbID           *string    `json:"imdbId,omitempty"`
	MediaType        MediaType  `json:"mediaType"`
	OriginalTitle    string     `json:"originalTitle"`
	OriginalLanguage *string    `json:"originalLanguage,omitempty"`
	OriginCountries  []string   `json:"originCountries,omitempty"`
	Homepage         *string    `json:"homepage,omitempty"`
	ReleaseDate      *time.Time `json:"releaseDate,omitempty"`
	RuntimeMinutes   *int       `json:"runtimeMinutes,omitempty"`
	Budget           *int64     `json:"budget,omitempty"`
	Revenue          *int64     `json:"revenue,omitempty"`
	Status           *string    `json:"status,omitempty"`
	TmdbScore        float64    `json:"tmdbScore"`
	TmdbVotes        int        `json:"tmdbVotes"`
	ImdbScore        *float64   `json:"imdbScore,omitempty"`
	ImdbVotes        *int       `json:"imdbVotes,omitempty"`
	Popularity       float64    `json:"popularity"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// TitleTranslation holds the localized text and the locale-specific default
// asset paths for one (title, language) pair.
type TitleTranslation struct {
	ID           int64   `json:"id"`
	TitleID      int64   `json:"titleId"`
	Language     string  `json:"language"`
	Name         string  `json:"name"`
	Tagline      *string `json:"tagline,omitempty"`
	Overview     *string `json:"overview,omitempty"`
	PosterPath   *string `json:"posterPath,omitempty"`
	BackdropPath *string `json:"backdropPath,omitempty"`
	LogoPath     *string `json:"logoPath,omitempty"`
}

// Season is one season of a series, keyed by (title, season number).
type Season struct {
	ID           int64      `json:"id"`
	TitleID      int64      `json:"titleId"`
	SeasonNumber int        `json:"seasonNumber"`
	AirDate      *time.Time `json:"airDate,omitempty"`
	EpisodeCount int        `json:"episodeCount"`
	TmdbScore    float64    `json:"tmdbScore"`
}

// SeasonTranslation is the localized text for one (season, language) pair.
type SeasonTranslation struct {
	ID         int64   `json:"id"`
	SeasonID   int64   `json:"seasonId"`
	Language   string  `json:"language"`
	Name       string  `json:"name"`
	Overview   *string `json:"overview,omitempty"`
	PosterPath *string `json:"posterPath,omitempty"`
}

// Episode is one episode, keyed by (season, episode number).
type Episode struct {
	ID             int64      `json:"id"`
	SeasonID       int64      `json:"seasonId"`
	EpisodeNumber  int        `json:"episodeNumber"`
	AirDate        *time.Time `json:"airDate,omitempty"`
	RuntimeMinutes *int       `json:"runtimeMinutes,omitempty"`
	TmdbScore      float64    `json:"tmdbScore"`
	TmdbVotes      int        `json:"tmdbVotes"`
}

// EpisodeTranslation is the localized text for one (episode, language) pair.
type EpisodeTranslation struct {
	ID        int64   `json:"id"`
	EpisodeID int64   `json:"episodeId"`
	Language  string  `json:"language"`
	Name      string  `json:"name"`
	Overview  *string `json:"overview,omitempty"`
}

// Genre is a provider-defined genre, keyed by its external id.
type Genre struct {
	ID     int64  `json:"id"`
	TmdbID int    `json:"tmdbId"`
	Name   string `json:"name"`
}

// AgeRating is one certification per (title, country).
type AgeRating struct {
	ID      int64  `json:"id"`
	TitleID int64  `json:"titleId"`
	Country string `json:"country"`
	Rating  string `json:"rating"`
}

// Image is provider image metadata, content-addressed by file path. A nil
// Language means the image carries no language tag at all, which best-asset
// selection treats as its own matchable bucket.
type Image struct {
	ID          int64         `json:"id"`
	FilePath    string        `json:"filePath"`
	Category    ImageCategory `json:"category"`
	Language    *string       `json:"language,omitempty"`
	Country     *string       `json:"country,omitempty"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	VoteAverage float64       `json:"voteAverage"`
	VoteCount   int           `json:"voteCount"`
}

// ImageLink ties an image to a title and optionally to one of its seasons or
// episodes. One physical image may serve many entities.
type ImageLink struct {
	ID        int64  `json:"id"`
	ImageID   int64  `json:"imageId"`
	TitleID   int64  `json:"titleId"`
	SeasonID  *int64 `json:"seasonId,omitempty"`
	EpisodeID *int64 `json:"episodeId,omitempty"`
}
