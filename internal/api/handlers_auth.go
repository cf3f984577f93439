package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reelvault/reelvault/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	token, err := s.authService.Login(c.Request().Context(), req.Username)
	if err != nil {
		if errors.Is(err, auth.ErrUsernameRequired) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{"token": token})
}
