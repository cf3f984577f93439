package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// searchMetadata proxies a free-text lookup against the metadata provider,
// for finding titles not yet in the catalog.
func (s *Server) searchMetadata(c echo.Context) error {
	query := c.QueryParam("query")
	if query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	page := 1
	if raw := c.QueryParam("page"); raw != "" {
		var err error
		if page, err = strconv.Atoi(raw); err != nil || page < 1 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid page"})
		}
	}

	resp, err := s.tmdbClient.SearchMulti(c.Request().Context(), query, page)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}
