package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type updateSettingRequest struct {
	Value string `json:"value"`
}

func (s *Server) getSettings(c echo.Context) error {
	settings, err := s.prefsService.All(c.Request().Context(), userID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, settings)
}

func (s *Server) updateSetting(c echo.Context) error {
	key := c.Param("key")

	var req updateSettingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if err := s.prefsService.Set(c.Request().Context(), userID(c), key, req.Value); err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"key": key, "value": req.Value})
}
