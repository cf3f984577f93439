package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reelvault/reelvault/internal/catalog"
	"github.com/reelvault/reelvault/internal/library/ingest"
	"github.com/reelvault/reelvault/internal/library/overlay"
	"github.com/reelvault/reelvault/internal/library/search"
	"github.com/reelvault/reelvault/internal/metadata/tmdb"
	"github.com/reelvault/reelvault/internal/preferences"
)

// serviceError maps service sentinel errors to HTTP responses. Unknown
// errors become a 500 with the message intact.
func serviceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, catalog.ErrTitleNotFound),
		errors.Is(err, catalog.ErrSeasonNotFound),
		errors.Is(err, catalog.ErrEpisodeNotFound),
		errors.Is(err, tmdb.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, catalog.ErrConflict):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, search.ErrInvalidRequest),
		errors.Is(err, overlay.ErrInvalidPatch),
		errors.Is(err, ingest.ErrUnsupportedMediaType),
		errors.Is(err, preferences.ErrUnknownKey),
		errors.Is(err, preferences.ErrInvalidValue):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, tmdb.ErrRateLimited):
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	case errors.Is(err, tmdb.ErrUnauthorized), errors.Is(err, tmdb.ErrAPIKeyMissing), errors.Is(err, tmdb.ErrUpstream):
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
