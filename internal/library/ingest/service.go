// Package ingest fetches titles from the external catalog and idempotently
// upserts the full entity graph: title, translations, seasons, episodes,
// images, genre links and age ratings.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reelvault/reelvault/internal/catalog"
	"github.com/reelvault/reelvault/internal/catalog/assets"
	"github.com/reelvault/reelvault/internal/locale"
	"github.com/reelvault/reelvault/internal/metadata/tmdb"
)

var ErrUnsupportedMediaType = errors.New("unsupported media type")

// Fetcher is the external catalog collaborator. *tmdb.Client satisfies it.
type Fetcher interface {
	GetMovie(ctx context.Context, tmdbID int, locale string, imageLanguages []string) (*tmdb.MovieDetails, error)
	GetSeries(ctx context.Context, tmdbID int, locale string, imageLanguages []string) (*tmdb.SeriesDetails, error)
	GetSeason(ctx context.Context, seriesTmdbID, seasonNumber int, locale string, imageLanguages []string) (*tmdb.SeasonDetails, error)
}

// EventBroadcaster pushes catalog change events to connected clients.
type EventBroadcaster interface {
	Broadcast(msgType string, payload any)
}

// Service is the ingestion pipeline.
type Service struct {
	store    *catalog.Store
	fetcher  Fetcher
	resolver *locale.Resolver
	hub      EventBroadcaster
	logger   zerolog.Logger
}

// NewService creates an ingestion service. hub may be nil when no event
// fan-out is wanted.
func NewService(store *catalog.Store, fetcher Fetcher, resolver *locale.Resolver, hub EventBroadcaster, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		fetcher:  fetcher,
		resolver: resolver,
		hub:      hub,
		logger:   logger.With().Str("component", "ingest").Logger(),
	}
}

// IngestTitle fetches one title and persists its entity graph, returning
// the stored title. Re-running with unchanged upstream data is a no-op
// beyond refreshed mutable fields.
//
// Movies commit in a single transaction. Series commit the title first,
// then each season in its own transaction, sequentially; a season failure
// is logged and skipped so partial progress stays durable, and a retry of
// the same call resumes by re-upserting everything. Cancellation is honored
// at season boundaries.
func (s *Service) IngestTitle(ctx context.Context, userID int64, tmdbID int, mediaType catalog.MediaType) (*catalog.Title, error) {
	if !mediaType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, mediaType)
	}

	run := uuid.NewString()[:8]
	log := s.logger.With().Str("run", run).Int("tmdbId", tmdbID).Str("mediaType", string(mediaType)).Logger()

	// An existing title may carry a per-user locale override.
	var lctx locale.Context
	existing, err := s.store.GetTitleByTmdbID(ctx, tmdbID)
	switch {
	case err == nil:
		lctx = s.resolver.ResolveForTitle(ctx, userID, existing.ID)
	case errors.Is(err, catalog.ErrTitleNotFound):
		lctx = s.resolver.ResolveForUser(ctx, userID)
	default:
		return nil, err
	}

	log.Info().Str("locale", lctx.Locale).Msg("ingesting title")

	var title *catalog.Title
	switch mediaType {
	case catalog.MediaTypeMovie:
		title, err = s.ingestMovie(ctx, tmdbID, lctx)
	case catalog.MediaTypeSeries:
		title, err = s.ingestSeries(ctx, tmdbID, lctx, log)
	}
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		event := "title:added"
		if existing != nil {
			event = "title:updated"
		}
		s.hub.Broadcast(event, title)
	}

	log.Info().Int64("titleId", title.ID).Msg("title ingested")
	return title, nil
}

// RefreshTitle re-ingests an already-stored title by internal id.
func (s *Service) RefreshTitle(ctx context.Context, userID, titleID int64) (*catalog.Title, error) {
	title, err := s.store.GetTitle(ctx, titleID)
	if err != nil {
		return nil, err
	}
	return s.IngestTitle(ctx, userID, title.TmdbID, title.MediaType)
}

func (s *Service) ingestMovie(ctx context.Context, tmdbID int, lctx locale.Context) (*catalog.Title, error) {
	details, err := s.fetcher.GetMovie(ctx, tmdbID, lctx.Locale, lctx.ImageLanguages())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch movie %d: %w", tmdbID, err)
	}

	title := movieToTitle(details)
	images := collectImages(details.Images)
	ratings := movieAgeRatings(details.ReleaseDates)

	err = s.store.WithTx(ctx, func(tx *catalog.Store) error {
		if err := tx.UpsertTitle(ctx, title); err != nil {
			return err
		}
		if err := s.upsertTitleAssets(ctx, tx, title.ID, images); err != nil {
			return err
		}
		if err := s.upsertTranslation(ctx, tx, title.ID, lctx, details.Title, details.Tagline, details.Overview, images); err != nil {
			return err
		}
		if err := s.upsertGenres(ctx, tx, title.ID, details.Genres); err != nil {
			return err
		}
		return s.upsertAgeRatings(ctx, tx, title.ID, ratings)
	})
	if err != nil {
		return nil, err
	}
	return title, nil
}

func (s *Service) ingestSeries(ctx context.Context, tmdbID int, lctx locale.Context, log zerolog.Logger) (*catalog.Title, error) {
	details, err := s.fetcher.GetSeries(ctx, tmdbID, lctx.Locale, lctx.ImageLanguages())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch series %d: %w", tmdbID, err)
	}

	title := seriesToTitle(details)
	images := collectImages(details.Images)
	ratings := seriesAgeRatings(details.ContentRatings)

	err = s.store.WithTx(ctx, func(tx *catalog.Store) error {
		if err := tx.UpsertTitle(ctx, title); err != nil {
			return err
		}
		if err := s.upsertTitleAssets(ctx, tx, title.ID, images); err != nil {
			return err
		}
		if err := s.upsertTranslation(ctx, tx, title.ID, lctx, details.Name, details.Tagline, details.Overview, images); err != nil {
			return err
		}
		if err := s.upsertGenres(ctx, tx, title.ID, details.Genres); err != nil {
			return err
		}
		return s.upsertAgeRatings(ctx, tx, title.ID, ratings)
	})
	if err != nil {
		return nil, err
	}

	// One fetch and one transaction per season. Later failures never roll
	// back earlier seasons; the retry path is re-invoking ingestion.
	for _, summary := range details.Seasons {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.ingestSeason(ctx, title, summary, lctx); err != nil {
			log.Warn().Err(err).
				Int("season", summary.SeasonNumber).
				Msg("season ingestion failed, skipping")
		}
	}

	return title, nil
}

func (s *Service) ingestSeason(ctx context.Context, title *catalog.Title, summary tmdb.SeasonSummary, lctx locale.Context) error {
	details, err := s.fetcher.GetSeason(ctx, title.TmdbID, summary.SeasonNumber, lctx.Locale, lctx.ImageLanguages())
	if err != nil {
		return fmt.Errorf("failed to fetch season %d: %w", summary.SeasonNumber, err)
	}

	return s.store.WithTx(ctx, func(tx *catalog.Store) error {
		season := &catalog.Season{
			TitleID:      title.ID,
			SeasonNumber: details.SeasonNumber,
			AirDate:      parseAirDate(details.AirDate),
			EpisodeCount: len(details.Episodes),
			TmdbScore:    details.VoteAverage,
		}
		if err := tx.UpsertSeason(ctx, season); err != nil {
			return err
		}

		images := collectImages(details.Images)
		for _, img := range images {
			if err := tx.UpsertImage(ctx, img); err != nil {
				return err
			}
			if err := tx.LinkImage(ctx, &catalog.ImageLink{
				ImageID:  img.ID,
				TitleID:  title.ID,
				SeasonID: &season.ID,
			}); err != nil {
				return err
			}
		}

		posters := byCategory(images, catalog.ImagePoster)
		tr := &catalog.SeasonTranslation{
			SeasonID:   season.ID,
			Language:   lctx.Language(),
			Name:       details.Name,
			Overview:   strPtr(details.Overview),
			PosterPath: assets.SelectBestPath(posters, lctx.PosterPreference()),
		}
		if tr.PosterPath == nil && summary.PosterPath != nil {
			tr.PosterPath = summary.PosterPath
		}
		if err := tx.UpsertSeasonTranslation(ctx, tr); err != nil {
			return err
		}

		for _, ep := range details.Episodes {
			episode := &catalog.Episode{
				SeasonID:      season.ID,
				EpisodeNumber: ep.EpisodeNumber,
				AirDate:       parseAirDate(ep.AirDate),
				TmdbScore:     ep.VoteAverage,
				TmdbVotes:     ep.VoteCount,
			}
			if ep.Runtime > 0 {
				runtime := ep.Runtime
				episode.RuntimeMinutes = &runtime
			}
			if err := tx.UpsertEpisode(ctx, episode); err != nil {
				return err
			}

			epTr := &catalog.EpisodeTranslation{
				EpisodeID: episode.ID,
				Language:  lctx.Language(),
				Name:      ep.Name,
				Overview:  strPtr(ep.Overview),
			}
			if err := tx.UpsertEpisodeTranslation(ctx, epTr); err != nil {
				return err
			}

			if ep.StillPath != nil && *ep.StillPath != "" {
				still := &catalog.Image{
					FilePath: *ep.StillPath,
					Category: catalog.ImageStill,
				}
				if err := tx.UpsertImage(ctx, still); err != nil {
					return err
				}
				if err := tx.LinkImage(ctx, &catalog.ImageLink{
					ImageID:   still.ID,
					TitleID:   title.ID,
					SeasonID:  &season.ID,
					EpisodeID: &episode.ID,
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *Service) upsertTitleAssets(ctx context.Context, tx *catalog.Store, titleID int64, images []*catalog.Image) error {
	for _, img := range images {
		if err := tx.UpsertImage(ctx, img); err != nil {
			return err
		}
		if err := tx.LinkImage(ctx, &catalog.ImageLink{ImageID: img.ID, TitleID: titleID}); err != nil {
			return err
		}
	}
	return nil
}

// upsertTranslation stores the localized text for the resolved locale and
// fills the locale-specific default asset paths from the just-stored image
// candidates.
func (s *Service) upsertTranslation(ctx context.Context, tx *catalog.Store, titleID int64, lctx locale.Context, name, tagline, overview string, images []*catalog.Image) error {
	tr := &catalog.TitleTranslation{
		TitleID:      titleID,
		Language:     lctx.Language(),
		Name:         name,
		Tagline:      strPtr(tagline),
		Overview:     strPtr(overview),
		PosterPath:   assets.SelectBestPath(byCategory(images, catalog.ImagePoster), assets.Preference(catalog.ImagePoster, lctx)),
		BackdropPath: assets.SelectBestPath(byCategory(images, catalog.ImageBackdrop), assets.Preference(catalog.ImageBackdrop, lctx)),
		LogoPath:     assets.SelectBestPath(byCategory(images, catalog.ImageLogo), assets.Preference(catalog.ImageLogo, lctx)),
	}
	return tx.UpsertTitleTranslation(ctx, tr)
}

func (s *Service) upsertGenres(ctx context.Context, tx *catalog.Store, titleID int64, genres []tmdb.Genre) error {
	for _, g := range genres {
		genre := &catalog.Genre{TmdbID: g.ID, Name: g.Name}
		if err := tx.UpsertGenre(ctx, genre); err != nil {
			return err
		}
		if err := tx.LinkTitleGenre(ctx, titleID, genre.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) upsertAgeRatings(ctx context.Context, tx *catalog.Store, titleID int64, ratings map[string]string) error {
	for country, rating := range ratings {
		r := &catalog.AgeRating{TitleID: titleID, Country: country, Rating: rating}
		if err := tx.UpsertAgeRating(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// StaleCutoff is a helper for the scheduled refresh task: titles whose
// metadata is older than the given age are due for re-ingestion.
func StaleCutoff(maxAge time.Duration) time.Time {
	return time.Now().UTC().Add(-maxAge)
}
