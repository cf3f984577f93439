// Package calendar builds a release calendar over the caller's library:
// movie release dates and episode air dates inside a date range, annotated
// with the user's watch state.
package calendar

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelvault/reelvault/internal/locale"
)

// Event is a single dated entry. Movie events carry only the title fields;
// episode events add the series position. A batch drop of three or more
// episodes on one day is collapsed into a single season event whose
// EpisodeCount says how many episodes landed.
type Event struct {
	TitleID   int64  `json:"titleId"`
	Name      string `json:"name"`
	MediaType string `json:"mediaType"` // "movie" or "episode"
	Date      string `json:"date"`      // YYYY-MM-DD
	Watched   bool   `json:"watched"`

	EpisodeID     int64  `json:"episodeId,omitempty"`
	SeasonNumber  int    `json:"seasonNumber,omitempty"`
	EpisodeNumber int    `json:"episodeNumber,omitempty"`
	EpisodeName   string `json:"episodeName,omitempty"`
	EpisodeCount  int    `json:"episodeCount,omitempty"`
}

// Service reads calendar events for one user's library.
type Service struct {
	db       *sql.DB
	resolver *locale.Resolver
	logger   zerolog.Logger
}

// NewService creates a calendar service.
func NewService(db *sql.DB, resolver *locale.Resolver, logger zerolog.Logger) *Service {
	return &Service{
		db:       db,
		resolver: resolver,
		logger:   logger.With().Str("component", "calendar").Logger(),
	}
}

const dateFormat = "2006-01-02"

// Events returns all movie releases and episode air dates between start and
// end, inclusive, for titles in the user's library.
func (s *Service) Events(ctx context.Context, userID int64, start, end time.Time) ([]Event, error) {
	lang := s.resolver.ResolveForUser(ctx, userID).Language()

	events, err := s.movieEvents(ctx, userID, lang, start, end)
	if err != nil {
		return nil, err
	}

	episodeEvents, err := s.episodeEvents(ctx, userID, lang, start, end)
	if err != nil {
		return nil, err
	}
	events = append(events, episodeEvents...)

	s.logger.Debug().
		Int64("user", userID).
		Str("start", start.Format(dateFormat)).
		Str("end", end.Format(dateFormat)).
		Int("events", len(events)).
		Msg("calendar events resolved")

	return events, nil
}

func (s *Service) movieEvents(ctx context.Context, userID int64, lang string, start, end time.Time) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, COALESCE(tr.name, t.original_title), t.release_date,
		       IFNULL(utd.watch_count, 0)
		FROM titles t
		JOIN user_title_details utd ON utd.title_id = t.id AND utd.user_id = ? AND utd.in_library = 1
		LEFT JOIN title_translations tr ON tr.title_id = t.id AND tr.language = ?
		WHERE t.media_type = 'movie'
		  AND t.release_date IS NOT NULL
		  AND t.release_date BETWEEN ? AND ?
		ORDER BY t.release_date, t.id`,
		userID, lang, start.Format(dateFormat), end.Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to query movie events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var watchCount int
		if err := rows.Scan(&e.TitleID, &e.Name, &e.Date, &watchCount); err != nil {
			return nil, fmt.Errorf("failed to scan movie event: %w", err)
		}
		e.MediaType = "movie"
		e.Watched = watchCount > 0
		events = append(events, e)
	}
	return events, rows.Err()
}

type episodeRow struct {
	titleID       int64
	titleName     string
	episodeID     int64
	seasonNumber  int
	episodeNumber int
	episodeName   string
	date          string
	watched       bool
}

type dropKey struct {
	titleID      int64
	seasonNumber int
	date         string
}

func (s *Service) episodeEvents(ctx context.Context, userID int64, lang string, start, end time.Time) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, COALESCE(tr.name, t.original_title),
		       e.id, se.season_number, e.episode_number,
		       COALESCE(etr.name, ''), e.air_date,
		       IFNULL(ued.watch_count, 0)
		FROM episodes e
		JOIN seasons se ON se.id = e.season_id
		JOIN titles t ON t.id = se.title_id
		JOIN user_title_details utd ON utd.title_id = t.id AND utd.user_id = ? AND utd.in_library = 1
		LEFT JOIN title_translations tr ON tr.title_id = t.id AND tr.language = ?
		LEFT JOIN episode_translations etr ON etr.episode_id = e.id AND etr.language = ?
		LEFT JOIN user_episode_details ued ON ued.episode_id = e.id AND ued.user_id = ?
		WHERE e.air_date IS NOT NULL
		  AND e.air_date BETWEEN ? AND ?
		ORDER BY e.air_date, t.id, se.season_number, e.episode_number`,
		userID, lang, lang, userID, start.Format(dateFormat), end.Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to query episode events: %w", err)
	}
	defer rows.Close()

	var all []episodeRow
	byDrop := make(map[dropKey][]episodeRow)
	for rows.Next() {
		var r episodeRow
		var watchCount int
		if err := rows.Scan(&r.titleID, &r.titleName, &r.episodeID, &r.seasonNumber,
			&r.episodeNumber, &r.episodeName, &r.date, &watchCount); err != nil {
			return nil, fmt.Errorf("failed to scan episode event: %w", err)
		}
		r.watched = watchCount > 0
		all = append(all, r)
		key := dropKey{titleID: r.titleID, seasonNumber: r.seasonNumber, date: r.date}
		byDrop[key] = append(byDrop[key], r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Walk the ordered rows, emitting each batch drop once.
	const seasonDropThreshold = 3
	emitted := make(map[dropKey]bool)
	var events []Event
	for _, r := range all {
		key := dropKey{titleID: r.titleID, seasonNumber: r.seasonNumber, date: r.date}
		drop := byDrop[key]
		if len(drop) >= seasonDropThreshold {
			if emitted[key] {
				continue
			}
			emitted[key] = true
			events = append(events, seasonEvent(key, drop))
			continue
		}
		events = append(events, episodeEvent(r))
	}
	return events, nil
}

func episodeEvent(r episodeRow) Event {
	name := r.episodeName
	if name == "" {
		name = fmt.Sprintf("Episode %d", r.episodeNumber)
	}
	return Event{
		TitleID:       r.titleID,
		Name:          r.titleName,
		MediaType:     "episode",
		Date:          r.date,
		Watched:       r.watched,
		EpisodeID:     r.episodeID,
		SeasonNumber:  r.seasonNumber,
		EpisodeNumber: r.episodeNumber,
		EpisodeName:   name,
	}
}

// seasonEvent collapses a same-day batch into one entry. The drop counts as
// watched only when every episode in it is.
func seasonEvent(key dropKey, drop []episodeRow) Event {
	watched := true
	for _, r := range drop {
		if !r.watched {
			watched = false
			break
		}
	}
	return Event{
		TitleID:      key.titleID,
		Name:         drop[0].titleName,
		MediaType:    "episode",
		Date:         key.date,
		Watched:      watched,
		EpisodeID:    drop[0].episodeID,
		SeasonNumber: key.seasonNumber,
		EpisodeName:  fmt.Sprintf("Season %d", key.seasonNumber),
		EpisodeCount: len(drop),
	}
}
