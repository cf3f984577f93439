package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reelvault/reelvault/internal/library/search"
)

func (s *Server) searchTitles(c echo.Context) error {
	var req search.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	resp, err := s.searchService.Search(c.Request().Context(), userID(c), req)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}
