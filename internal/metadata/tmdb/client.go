// Package tmdb is the external catalog fetcher. It returns typed payloads
// and maps provider failures onto the error taxonomy the ingestion pipeline
// expects.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrAPIKeyMissing = errors.New("TMDB API key is not configured")
	ErrNotFound      = errors.New("not found in TMDB")
	ErrUnauthorized  = errors.New("TMDB API key rejected")
	ErrRateLimited   = errors.New("TMDB API rate limited")
	ErrUpstream      = errors.New("TMDB API error")
)

// Retryable reports whether a fetch failure is worth retrying later, as
// opposed to being fatal for the requested id.
func Retryable(err error) bool {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrAPIKeyMissing) {
		return false
	}
	return true
}

const defaultBaseURL = "https://api.themoviedb.org/3"

// Config holds TMDB client configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client is a TMDB API client.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		logger:     logger.With().Str("component", "tmdb").Logger(),
	}
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// GetMovie fetches a movie with images, release dates and external ids
// appended. Images are pre-filtered by the given language list; locale
// selects the translated text fields.
func (c *Client) GetMovie(ctx context.Context, tmdbID int, locale string, imageLanguages []string) (*MovieDetails, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/movie/%d", c.config.BaseURL, tmdbID)
	params := c.baseParams(locale, imageLanguages)
	params.Set("append_to_response", "images,release_dates,external_ids")

	var details MovieDetails
	if err := c.doRequest(ctx, endpoint, params, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// GetSeries fetches a series with images, content ratings and external ids
// appended.
func (c *Client) GetSeries(ctx context.Context, tmdbID int, locale string, imageLanguages []string) (*SeriesDetails, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/tv/%d", c.config.BaseURL, tmdbID)
	params := c.baseParams(locale, imageLanguages)
	params.Set("append_to_response", "images,content_ratings,external_ids")

	var details SeriesDetails
	if err := c.doRequest(ctx, endpoint, params, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// GetSeason fetches one season of a series with episode details and images.
func (c *Client) GetSeason(ctx context.Context, seriesTmdbID, seasonNumber int, locale string, imageLanguages []string) (*SeasonDetails, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/tv/%d/season/%d", c.config.BaseURL, seriesTmdbID, seasonNumber)
	params := c.baseParams(locale, imageLanguages)
	params.Set("append_to_response", "images")

	var details SeasonDetails
	if err := c.doRequest(ctx, endpoint, params, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// SearchMulti searches movies and series in one query.
func (c *Client) SearchMulti(ctx context.Context, query string, page int) (*SearchMultiResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}
	if page < 1 {
		page = 1
	}

	endpoint := fmt.Sprintf("%s/search/multi", c.config.BaseURL)
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("include_adult", "false")

	var response SearchMultiResponse
	if err := c.doRequest(ctx, endpoint, params, &response); err != nil {
		return nil, err
	}

	// Multi search mixes in people; keep only movie and tv hits.
	filtered := response.Results[:0]
	for _, r := range response.Results {
		if r.MediaType == "movie" || r.MediaType == "tv" {
			filtered = append(filtered, r)
		}
	}
	response.Results = filtered

	c.logger.Debug().
		Str("query", query).
		Int("results", len(response.Results)).
		Msg("multi search completed")

	return &response, nil
}

// GetImageURL returns the full URL for a TMDB image path.
func (c *Client) GetImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	if size == "" {
		size = "original"
	}
	return fmt.Sprintf("https://image.tmdb.org/t/p/%s%s", size, path)
}

func (c *Client) baseParams(locale string, imageLanguages []string) url.Values {
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	if locale != "" {
		params.Set("language", locale)
	}
	if len(imageLanguages) > 0 {
		params.Set("include_image_language", strings.Join(imageLanguages, ","))
	}
	return params
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	reqURL := endpoint
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", endpoint).Msg("HTTP request failed")
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	// Handle error responses
	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("message", errResp.StatusMessage).
				Msg("TMDB API error")
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusUnauthorized:
			return ErrUnauthorized
		case http.StatusTooManyRequests:
			return ErrRateLimited
		default:
			return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
