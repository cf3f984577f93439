package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/reelvault/reelvault/internal/calendar"
)

// getCalendar returns library release events in a date range. The range
// defaults to the coming 30 days.
func (s *Server) getCalendar(c echo.Context) error {
	ctx := c.Request().Context()

	start := time.Now().Truncate(24 * time.Hour)
	if raw := c.QueryParam("start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid start date"})
		}
		start = parsed
	}

	end := start.AddDate(0, 0, 30)
	if raw := c.QueryParam("end"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid end date"})
		}
		end = parsed
	}

	if end.Before(start) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "end date before start date"})
	}

	events, err := s.calendarService.Events(ctx, userID(c), start, end)
	if err != nil {
		return serviceError(c, err)
	}
	if events == nil {
		events = []calendar.Event{}
	}

	return c.JSON(http.StatusOK, events)
}
