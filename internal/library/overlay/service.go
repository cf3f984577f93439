// Package overlay manages per-user state layered over the shared catalog:
// library membership, favorites, watch progress, notes and locale or image
// overrides. Every write is a single-row upsert keyed by (user, entity).
package overlay

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelvault/reelvault/internal/catalog"
	"github.com/reelvault/reelvault/internal/locale"
)

var ErrInvalidPatch = errors.New("invalid overlay patch")

// Service reads and writes overlay rows.
type Service struct {
	db     *sql.DB
	store  *catalog.Store
	logger zerolog.Logger
}

// NewService creates an overlay service.
func NewService(db *sql.DB, store *catalog.Store, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		store:  store,
		logger: logger.With().Str("component", "overlay").Logger(),
	}
}

// Get returns the overlay row for (user, title). A missing row comes back
// as the zero-value overlay, not an error.
func (s *Service) Get(ctx context.Context, userID, titleID int64) (*TitleDetails, error) {
	row := s.db.QueryRowContext(ctx, selectTitleDetails+
		` WHERE user_id = ? AND title_id = ?`, userID, titleID)

	d, err := rowToTitleDetails(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &TitleDetails{UserID: userID, TitleID: titleID}, nil
		}
		return nil, fmt.Errorf("failed to get overlay: %w", err)
	}
	return d, nil
}

// Apply merges a patch into the overlay row for (user, title), creating the
// row if needed, and returns the merged state. Setting a positive watch
// count on a series cascades to all its released episodes.
func (s *Service) Apply(ctx context.Context, userID, titleID int64, patch Patch) (*TitleDetails, error) {
	if patch.ChosenLocale != nil && *patch.ChosenLocale != "" && !locale.Valid(*patch.ChosenLocale) {
		return nil, fmt.Errorf("%w: bad locale %q", ErrInvalidPatch, *patch.ChosenLocale)
	}

	title, err := s.store.GetTitle(ctx, titleID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureRow(ctx, userID, titleID); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	var sets []string
	var args []any
	set := func(clause string, v any) {
		sets = append(sets, clause)
		args = append(args, v)
	}

	if patch.InLibrary != nil {
		set("in_library = ?", boolToInt(*patch.InLibrary))
		if *patch.InLibrary {
			sets = append(sets, "added_at = COALESCE(added_at, ?)")
			args = append(args, now)
		}
	}
	if patch.Favorite != nil {
		set("favorite = ?", boolToInt(*patch.Favorite))
	}
	if patch.Watchlist != nil {
		set("watchlist = ?", boolToInt(*patch.Watchlist))
	}
	if patch.WatchCount != nil {
		set("watch_count = ?", *patch.WatchCount)
		if *patch.WatchCount > 0 {
			set("last_watched_at = ?", now)
		}
	}
	if patch.Notes != nil {
		set("notes = ?", emptyToNil(*patch.Notes))
	}
	if patch.ChosenLocale != nil {
		set("chosen_locale = ?", emptyToNil(*patch.ChosenLocale))
	}
	if patch.ChosenPosterPath != nil {
		set("chosen_poster_path = ?", emptyToNil(*patch.ChosenPosterPath))
	}
	if patch.ChosenBackdropPath != nil {
		set("chosen_backdrop_path = ?", emptyToNil(*patch.ChosenBackdropPath))
	}

	if len(sets) > 0 {
		query := "UPDATE user_title_details SET " + strings.Join(sets, ", ") +
			" WHERE user_id = ? AND title_id = ?"
		args = append(args, userID, titleID)
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("failed to apply overlay patch: %w", err)
		}
	}

	if patch.WatchCount != nil && *patch.WatchCount > 0 && title.MediaType == catalog.MediaTypeSeries {
		if err := s.markReleasedEpisodesWatched(ctx, userID, titleID); err != nil {
			return nil, err
		}
	}

	s.logger.Debug().Int64("user", userID).Int64("title", titleID).Msg("overlay patched")
	return s.Get(ctx, userID, titleID)
}

// RemoveFromLibrary clears the library, favorite and watchlist flags while
// keeping watch history and the catalog rows themselves.
func (s *Service) RemoveFromLibrary(ctx context.Context, userID, titleID int64) error {
	if _, err := s.store.GetTitle(ctx, titleID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE user_title_details
		SET in_library = 0, favorite = 0, watchlist = 0
		WHERE user_id = ? AND title_id = ?`, userID, titleID)
	if err != nil {
		return fmt.Errorf("failed to remove from library: %w", err)
	}
	return nil
}

// TouchViewed lazily creates the overlay row and stamps last_viewed_at.
// Called from the title read path.
func (s *Service) TouchViewed(ctx context.Context, userID, titleID int64) error {
	if err := s.ensureRow(ctx, userID, titleID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE user_title_details SET last_viewed_at = ?
		WHERE user_id = ? AND title_id = ?`,
		time.Now().UTC().Format(time.RFC3339), userID, titleID)
	if err != nil {
		return fmt.Errorf("failed to stamp last viewed: %w", err)
	}
	return nil
}

// ChosenLocale returns the user's per-title locale override, empty when
// unset. Satisfies the locale resolver's override source.
func (s *Service) ChosenLocale(ctx context.Context, userID, titleID int64) (string, error) {
	var chosen sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT chosen_locale FROM user_title_details
		WHERE user_id = ? AND title_id = ?`, userID, titleID).Scan(&chosen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get chosen locale: %w", err)
	}
	return chosen.String, nil
}

// MarkSeasonWatched sets a season's watch count for the user. Marking a
// season watched also marks each of its released episodes watched; marking
// it unwatched resets only the season row, episode history stays.
func (s *Service) MarkSeasonWatched(ctx context.Context, userID, seasonID int64, watched bool) (*SeasonDetails, error) {
	season, err := s.store.GetSeason(ctx, seasonID)
	if err != nil {
		return nil, err
	}

	count := 0
	if watched {
		count = 1
	}

	d := &SeasonDetails{UserID: userID, SeasonID: seasonID, WatchCount: count}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO user_season_details (user_id, season_id, watch_count)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, season_id) DO UPDATE SET
			watch_count = excluded.watch_count
		RETURNING id`,
		userID, seasonID, count).Scan(&d.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark season watched: %w", err)
	}

	if watched {
		if err := s.markSeasonEpisodesWatched(ctx, userID, season.ID); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// MarkEpisodeWatched sets an episode's watch count for the user. watched
// false resets the count to zero.
func (s *Service) MarkEpisodeWatched(ctx context.Context, userID, episodeID int64, watched bool) (*EpisodeDetails, error) {
	if _, err := s.store.GetEpisode(ctx, episodeID); err != nil {
		return nil, err
	}

	count := 0
	var watchedAt any
	if watched {
		count = 1
		watchedAt = time.Now().UTC().Format(time.RFC3339)
	}

	d := &EpisodeDetails{UserID: userID, EpisodeID: episodeID, WatchCount: count}
	var last sql.NullString
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO user_episode_details (user_id, episode_id, watch_count, last_watched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, episode_id) DO UPDATE SET
			watch_count = excluded.watch_count,
			last_watched_at = COALESCE(excluded.last_watched_at, last_watched_at)
		RETURNING id, last_watched_at`,
		userID, episodeID, count, watchedAt).Scan(&d.ID, &last)
	if err != nil {
		return nil, fmt.Errorf("failed to mark episode watched: %w", err)
	}
	d.LastWatchedAt = parseTimePtr(last)
	return d, nil
}

func (s *Service) ensureRow(ctx context.Context, userID, titleID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO user_title_details (user_id, title_id)
		VALUES (?, ?)`, userID, titleID)
	if err != nil {
		return fmt.Errorf("failed to create overlay row: %w", err)
	}
	return nil
}

func (s *Service) markReleasedEpisodesWatched(ctx context.Context, userID, titleID int64) error {
	ids, err := s.store.ListReleasedEpisodeIDs(ctx, titleID, time.Now())
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for _, episodeID := range ids {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO user_episode_details (user_id, episode_id, watch_count, last_watched_at)
			VALUES (?, ?, 1, ?)
			ON CONFLICT(user_id, episode_id) DO UPDATE SET
				watch_count = MAX(user_episode_details.watch_count, 1),
				last_watched_at = COALESCE(user_episode_details.last_watched_at, excluded.last_watched_at)`,
			userID, episodeID, now)
		if err != nil {
			return fmt.Errorf("failed to cascade watch count: %w", err)
		}
	}
	return nil
}

func (s *Service) markSeasonEpisodesWatched(ctx context.Context, userID, seasonID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_episode_details (user_id, episode_id, watch_count, last_watched_at)
		SELECT ?, e.id, 1, ?
		FROM episodes e
		WHERE e.season_id = ? AND e.air_date IS NOT NULL AND e.air_date <= ?
		ON CONFLICT(user_id, episode_id) DO UPDATE SET
			watch_count = MAX(user_episode_details.watch_count, 1),
			last_watched_at = COALESCE(user_episode_details.last_watched_at, excluded.last_watched_at)`,
		userID, time.Now().UTC().Format(time.RFC3339),
		seasonID, time.Now().Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("failed to cascade season watch: %w", err)
	}
	return nil
}

const selectTitleDetails = `
	SELECT id, user_id, title_id, in_library, favorite, watchlist, watch_count,
	       notes, chosen_locale, chosen_poster_path, chosen_backdrop_path,
	       added_at, last_watched_at, last_viewed_at
	FROM user_title_details`

type rowScanner interface {
	Scan(dest ...any) error
}

func rowToTitleDetails(row rowScanner) (*TitleDetails, error) {
	d := &TitleDetails{}
	var inLibrary, favorite, watchlist int
	var notes, chosenLocale, poster, backdrop sql.NullString
	var addedAt, lastWatched, lastViewed sql.NullString

	err := row.Scan(&d.ID, &d.UserID, &d.TitleID, &inLibrary, &favorite,
		&watchlist, &d.WatchCount, &notes, &chosenLocale, &poster, &backdrop,
		&addedAt, &lastWatched, &lastViewed)
	if err != nil {
		return nil, err
	}

	d.InLibrary = inLibrary != 0
	d.Favorite = favorite != 0
	d.Watchlist = watchlist != 0
	d.Notes = nullToPtr(notes)
	d.ChosenLocale = nullToPtr(chosenLocale)
	d.ChosenPosterPath = nullToPtr(poster)
	d.ChosenBackdropPath = nullToPtr(backdrop)
	d.AddedAt = parseTimePtr(addedAt)
	d.LastWatchedAt = parseTimePtr(lastWatched)
	d.LastViewedAt = parseTimePtr(lastViewed)
	return d, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullToPtr(s sql.NullString) *string {
	if !s.Valid || s.String == "" {
		return nil
	}
	v := s.String
	return &v
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	for _, format := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(format, s.String); err == nil {
			return &t
		}
	}
	return nil
}

