package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reelvault/reelvault/internal/scheduler"
)

func (s *Server) listTasks(c echo.Context) error {
	if s.scheduler == nil {
		return c.JSON(http.StatusOK, []scheduler.TaskInfo{})
	}
	return c.JSON(http.StatusOK, s.scheduler.ListTasks())
}

func (s *Server) runTask(c echo.Context) error {
	if s.scheduler == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "task not found"})
	}

	err := s.scheduler.RunNow(c.Param("id"))
	switch {
	case errors.Is(err, scheduler.ErrTaskNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, scheduler.ErrTaskRunning):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case err != nil:
		return serviceError(c, err)
	}

	return c.JSON(http.StatusAccepted, map[string]string{"status": "started"})
}
