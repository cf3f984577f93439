package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/reelvault/reelvault/internal/catalog"
	"github.com/reelvault/reelvault/internal/library/overlay"
)

type addTitleRequest struct {
	TmdbID    int               `json:"tmdbId"`
	MediaType catalog.MediaType `json:"mediaType"`
}

// titleDetail is the composed response for a single title: catalog data,
// locale-resolved text, and the caller's overlay state.
type titleDetail struct {
	Title       *catalog.Title            `json:"title"`
	Translation *catalog.TitleTranslation `json:"translation,omitempty"`
	Genres      []*catalog.Genre          `json:"genres"`
	AgeRatings  []*catalog.AgeRating      `json:"ageRatings,omitempty"`
	Seasons     []*seasonDetail           `json:"seasons,omitempty"`
	UserDetails *overlay.TitleDetails     `json:"userDetails"`
	Locale      string                    `json:"locale"`
}

type seasonDetail struct {
	Season   *catalog.Season    `json:"season"`
	Episodes []*catalog.Episode `json:"episodes"`
}

func (s *Server) addTitle(c echo.Context) error {
	ctx := c.Request().Context()

	var req addTitleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.TmdbID <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "tmdbId is required"})
	}

	title, err := s.ingestService.IngestTitle(ctx, userID(c), req.TmdbID, req.MediaType)
	if err != nil {
		return serviceError(c, err)
	}

	// Adding a title puts it in the caller's library.
	inLibrary := true
	if _, err := s.overlayService.Apply(ctx, userID(c), title.ID, overlay.Patch{InLibrary: &inLibrary}); err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusCreated, title)
}

func (s *Server) getTitle(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	title, err := s.store.GetTitle(ctx, id)
	if err != nil {
		return serviceError(c, err)
	}

	lctx := s.resolver.ResolveForTitle(ctx, userID(c), id)

	detail := &titleDetail{Title: title, Locale: lctx.Locale}

	// Walk the language chain until a translation exists.
	for _, lang := range lctx.Languages {
		tr, err := s.store.GetTitleTranslation(ctx, id, lang)
		if err == nil {
			detail.Translation = tr
			break
		}
		if !errors.Is(err, catalog.ErrTitleNotFound) {
			return serviceError(c, err)
		}
	}

	if detail.Genres, err = s.store.ListGenres(ctx, id); err != nil {
		return serviceError(c, err)
	}
	if detail.AgeRatings, err = s.store.ListAgeRatings(ctx, id); err != nil {
		return serviceError(c, err)
	}

	if title.MediaType == catalog.MediaTypeSeries {
		seasons, err := s.store.ListSeasons(ctx, id)
		if err != nil {
			return serviceError(c, err)
		}
		for _, season := range seasons {
			episodes, err := s.store.ListEpisodes(ctx, season.ID)
			if err != nil {
				return serviceError(c, err)
			}
			detail.Seasons = append(detail.Seasons, &seasonDetail{Season: season, Episodes: episodes})
		}
	}

	if detail.UserDetails, err = s.overlayService.Get(ctx, userID(c), id); err != nil {
		return serviceError(c, err)
	}

	if err := s.overlayService.TouchViewed(ctx, userID(c), id); err != nil {
		s.logger.Warn().Err(err).Int64("titleId", id).Msg("failed to record title view")
	}

	return c.JSON(http.StatusOK, detail)
}

func (s *Server) removeTitle(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	if err := s.overlayService.RemoveFromLibrary(ctx, userID(c), id); err != nil {
		return serviceError(c, err)
	}

	s.hub.Broadcast("title:removed", map[string]int64{"titleId": id, "userId": userID(c)})

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) refreshTitle(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	title, err := s.ingestService.RefreshTitle(ctx, userID(c), id)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, title)
}

func (s *Server) patchTitleFlags(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	var patch overlay.Patch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	details, err := s.overlayService.Apply(ctx, userID(c), id, patch)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, details)
}

type markWatchedRequest struct {
	Watched *bool `json:"watched"`
}

func (s *Server) markEpisodeWatched(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	req := markWatchedRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	watched := true
	if req.Watched != nil {
		watched = *req.Watched
	}

	details, err := s.overlayService.MarkEpisodeWatched(ctx, userID(c), id, watched)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, details)
}

func (s *Server) markSeasonWatched(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	req := markWatchedRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	watched := true
	if req.Watched != nil {
		watched = *req.Watched
	}

	details, err := s.overlayService.MarkSeasonWatched(ctx, userID(c), id, watched)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, details)
}

func (s *Server) similarTitles(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 1 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid limit"})
		}
	}

	resp, err := s.searchService.SimilarTitles(ctx, userID(c), id, limit)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}
