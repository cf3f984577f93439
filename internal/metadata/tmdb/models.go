package tmdb

// MovieDetails is the movie payload from TMDB, with images, release dates
// and external ids appended in one request.
type MovieDetails struct {
	ID               int                   `json:"id"`
	Title            string                `json:"title"`
	OriginalTitle    string                `json:"original_title"`
	OriginalLanguage string                `json:"original_language"`
	OriginCountry    []string              `json:"origin_country"`
	Overview         string                `json:"overview"`
	Tagline          string                `json:"tagline"`
	Homepage         string                `json:"homepage"`
	ReleaseDate      string                `json:"release_date"`
	Runtime          int                   `json:"runtime"`
	Budget           int64                 `json:"budget"`
	Revenue          int64                 `json:"revenue"`
	Status           string                `json:"status"`
	VoteAverage      float64               `json:"vote_average"`
	VoteCount        int                   `json:"vote_count"`
	Popularity       float64               `json:"popularity"`
	Genres           []Genre               `json:"genres"`
	Images           *Images               `json:"images,omitempty"`
	ReleaseDates     *ReleaseDatesResponse `json:"release_dates,omitempty"`
	ExternalIDs      *ExternalIDs          `json:"external_ids,omitempty"`
}

// SeriesDetails is the series payload from TMDB, with images, content
// ratings and external ids appended in one request.
type SeriesDetails struct {
	ID               int                     `json:"id"`
	Name             string                  `json:"name"`
	OriginalName     string                  `json:"original_name"`
	OriginalLanguage string                  `json:"original_language"`
	OriginCountry    []string                `json:"origin_country"`
	Overview         string                  `json:"overview"`
	Tagline          string                  `json:"tagline"`
	Homepage         string                  `json:"homepage"`
	FirstAirDate     string                  `json:"first_air_date"`
	Status           string                  `json:"status"`
	VoteAverage      float64                 `json:"vote_average"`
	VoteCount        int                     `json:"vote_count"`
	Popularity       float64                 `json:"popularity"`
	EpisodeRunTime   []int                   `json:"episode_run_time"`
	Genres           []Genre                 `json:"genres"`
	Seasons          []SeasonSummary         `json:"seasons"`
	Images           *Images                 `json:"images,omitempty"`
	ContentRatings   *ContentRatingsResponse `json:"content_ratings,omitempty"`
	ExternalIDs      *ExternalIDs            `json:"external_ids,omitempty"`
}

// SeasonSummary is the per-season stub embedded in series details.
type SeasonSummary struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	AirDate      string  `json:"air_date"`
	EpisodeCount int     `json:"episode_count"`
	PosterPath   *string `json:"poster_path"`
	SeasonNumber int     `json:"season_number"`
	VoteAverage  float64 `json:"vote_average"`
}

// SeasonDetails is the payload from /tv/{id}/season/{number}.
type SeasonDetails struct {
	ID           int              `json:"id"`
	Name         string           `json:"name"`
	Overview     string           `json:"overview"`
	AirDate      string           `json:"air_date"`
	SeasonNumber int              `json:"season_number"`
	VoteAverage  float64          `json:"vote_average"`
	Episodes     []EpisodeDetails `json:"episodes"`
	Images       *Images          `json:"images,omitempty"`
}

// EpisodeDetails is the episode payload embedded in season details.
type EpisodeDetails struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Overview      string  `json:"overview"`
	AirDate       string  `json:"air_date"`
	EpisodeNumber int     `json:"episode_number"`
	SeasonNumber  int     `json:"season_number"`
	StillPath     *string `json:"still_path"`
	Runtime       int     `json:"runtime"`
	VoteAverage   float64 `json:"vote_average"`
	VoteCount     int     `json:"vote_count"`
}

// Genre represents a genre from TMDB.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Images holds the image candidate lists keyed by category.
type Images struct {
	Posters   []ImageResult `json:"posters"`
	Backdrops []ImageResult `json:"backdrops"`
	Logos     []ImageResult `json:"logos"`
	Stills    []ImageResult `json:"stills"`
}

// ImageResult represents a single image candidate. Iso6391 is empty for
// untagged images.
type ImageResult struct {
	FilePath    string  `json:"file_path"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	Iso6391     string  `json:"iso_639_1"`
}

// ExternalIDs contains external ids from TMDB.
type ExternalIDs struct {
	ImdbID     string `json:"imdb_id"`
	TvdbID     int    `json:"tvdb_id"`
	WikidataID string `json:"wikidata_id"`
}

// ReleaseDatesResponse is the appended release_dates block for movies.
type ReleaseDatesResponse struct {
	Results []ReleaseDatesByRegion `json:"results"`
}

// ReleaseDatesByRegion contains release dates for one country.
type ReleaseDatesByRegion struct {
	Iso31661     string        `json:"iso_3166_1"`
	ReleaseDates []ReleaseDate `json:"release_dates"`
}

// ReleaseDate is a single certification-bearing release entry.
type ReleaseDate struct {
	Certification string `json:"certification"`
	Iso6391       string `json:"iso_639_1"`
	ReleaseDate   string `json:"release_date"`
	Type          int    `json:"type"`
}

// ContentRatingsResponse is the appended content_ratings block for series.
type ContentRatingsResponse struct {
	Results []ContentRating `json:"results"`
}

// ContentRating is one per-country series certification.
type ContentRating struct {
	Iso31661 string `json:"iso_3166_1"`
	Rating   string `json:"rating"`
}

// SearchMultiResponse is the response from TMDB multi search.
type SearchMultiResponse struct {
	Page         int                 `json:"page"`
	Results      []SearchMultiResult `json:"results"`
	TotalPages   int                 `json:"total_pages"`
	TotalResults int                 `json:"total_results"`
}

// SearchMultiResult is one movie or series hit from multi search.
type SearchMultiResult struct {
	ID           int     `json:"id"`
	MediaType    string  `json:"media_type"`
	Title        string  `json:"title,omitempty"`
	Name         string  `json:"name,omitempty"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	FirstAirDate string  `json:"first_air_date,omitempty"`
	PosterPath   *string `json:"poster_path"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Popularity   float64 `json:"popularity"`
}

// ErrorResponse is an error body from the TMDB API.
type ErrorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Success       bool   `json:"success"`
}
