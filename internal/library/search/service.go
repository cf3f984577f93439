// Package search builds and executes parameterized catalog queries blending
// global metadata with per-user overlay state.
package search

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
	"github.com/reelvault/reelvault/internal/preferences"
)

var ErrInvalidRequest = errors.New("invalid search request")

// sortColumns whitelists sort keys onto order expressions. "random" is
// handled separately.
var sortColumns = map[string]string{
	"tmdb_score":   "t.tmdb_score",
	"imdb_score":   "t.imdb_score",
	"popularity":   "t.popularity",
	"vote_count":   "t.tmdb_votes",
	"name":         "COALESCE(tr.name, t.original_title)",
	"runtime":      "t.runtime_minutes",
	"release_date": "t.release_date",
	"last_viewed":  "utd.last_viewed_at",
}

// Config bounds pagination. Sourced from application configuration once at
// construction.
type Config struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Service executes catalog searches for one user at a time.
type Service struct {
	db       *sql.DB
	store    *catalog.Store
	resolver *locale.Resolver
	prefs    *preferences.Service
	cfg      Config
	logger   zerolog.Logger
}

// NewService creates a search service.
func NewService(db *sql.DB, store *catalog.Store, resolver *locale.Resolver, prefs *preferences.Service, cfg Config, logger zerolog.Logger) *Service {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 50
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}
	return &Service{
		db:       db,
		store:    store,
		resolver: resolver,
		prefs:    prefs,
		cfg:      cfg,
		logger:   logger.With().Str("component", "search").Logger(),
	}
}

// Search returns one page of titles matching the request, with the total
// count taken after all filters and before pagination.
func (s *Service) Search(ctx context.Context, userID int64, req Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = s.cfg.DefaultPageSize
	}
	if pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}

	lctx := s.resolver.ResolveForUser(ctx, userID)

	q := &builder{}
	// The overlay join is scoped to the user so overlay predicates never
	// exclude titles lacking a row. The translation join prefers the
	// language of the row's per-title chosen locale, falling back to the
	// first language of the user's chain.
	q.from = `FROM titles t
		LEFT JOIN user_title_details utd ON utd.title_id = t.id AND utd.user_id = ?
		LEFT JOIN title_translations tr ON tr.title_id = t.id AND tr.language = COALESCE(
			CASE
				WHEN utd.chosen_locale IS NULL OR utd.chosen_locale = '' THEN NULL
				WHEN instr(utd.chosen_locale, '-') > 0 THEN substr(utd.chosen_locale, 1, instr(utd.chosen_locale, '-') - 1)
				ELSE utd.chosen_locale
			END, ?)`
	q.fromArgs = []any{userID, lctx.Language()}

	s.applyFilters(q, userID, req)

	// Count before pagination, after every filter.
	var total int
	countQuery := "SELECT COUNT(*) " + q.from + q.whereClause()
	if err := s.db.QueryRowContext(ctx, countQuery, q.args()...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count search results: %w", err)
	}

	orderBy, err := s.resolveSort(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	query := selectResults + " " + q.from + q.whereClause() + orderBy + " LIMIT ? OFFSET ?"
	args := append(q.args(), pageSize, (page-1)*pageSize)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer rows.Close()

	results := []*Result{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search rows failed: %w", err)
	}

	for _, r := range results {
		if r.Genres, err = s.store.ListGenres(ctx, r.Title.ID); err != nil {
			return nil, err
		}
		if r.AgeRatings, err = s.store.ListAgeRatings(ctx, r.Title.ID); err != nil {
			return nil, err
		}
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	s.logger.Debug().
		Int64("user", userID).
		Int("total", total).
		Int("page", page).
		Msg("search executed")

	return &Response{
		Results:    results,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

// SimilarTitles returns full-catalog titles sharing at least one genre with
// the source title, most popular first.
func (s *Service) SimilarTitles(ctx context.Context, userID, titleID int64, limit int) (*Response, error) {
	genres, err := s.store.ListGenres(ctx, titleID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetTitle(ctx, titleID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.cfg.MaxPageSize {
		limit = 20
	}

	genreIDs := make([]int64, len(genres))
	for i, g := range genres {
		genreIDs[i] = g.ID
	}
	if len(genreIDs) == 0 {
		return &Response{Results: []*Result{}, Page: 1, PageSize: limit}, nil
	}

	return s.Search(ctx, userID, Request{
		FullCatalog:     true,
		IncludeGenreIDs: genreIDs,
		ExcludeTitleIDs: []int64{titleID},
		SortBy:          "popularity",
		SortDirection:   "desc",
		PageSize:        limit,
	})
}

func (s *Service) applyFilters(q *builder, userID int64, req Request) {
	switch {
	case req.InLibrary != nil:
		q.where("IFNULL(utd.in_library, 0) = ?", boolToInt(*req.InLibrary))
	case !req.FullCatalog:
		q.where("IFNULL(utd.in_library, 0) = 1")
	}

	if req.MediaType != nil {
		q.where("t.media_type = ?", string(*req.MediaType))
	}
	if req.Query != "" {
		pattern := "%" + req.Query + "%"
		q.where("(tr.name LIKE ? OR t.original_title LIKE ?)", pattern, pattern)
	}
	if req.YearFrom != nil {
		q.where("t.release_date >= ?", fmt.Sprintf("%04d-01-01", *req.YearFrom))
	}
	if req.YearTo != nil {
		q.where("t.release_date <= ?", fmt.Sprintf("%04d-12-31", *req.YearTo))
	}
	if req.Released != nil {
		if *req.Released {
			q.where("t.release_date IS NOT NULL AND t.release_date <= date('now')")
		} else {
			q.where("(t.release_date IS NULL OR t.release_date > date('now'))")
		}
	}
	if req.MinTmdbScore != nil {
		q.where("t.tmdb_score >= ?", *req.MinTmdbScore)
	}
	if req.MinImdbScore != nil {
		q.where("t.imdb_score >= ?", *req.MinImdbScore)
	}
	if req.Favorite != nil {
		q.where("IFNULL(utd.favorite, 0) = ?", boolToInt(*req.Favorite))
	}
	if req.Watchlist != nil {
		q.where("IFNULL(utd.watchlist, 0) = ?", boolToInt(*req.Watchlist))
	}
	if len(req.IncludeGenreIDs) > 0 {
		q.where("EXISTS (SELECT 1 FROM title_genres tg WHERE tg.title_id = t.id AND tg.genre_id IN ("+
			placeholders(len(req.IncludeGenreIDs))+"))", int64Args(req.IncludeGenreIDs)...)
	}
	if len(req.ExcludeGenreIDs) > 0 {
		q.where("NOT EXISTS (SELECT 1 FROM title_genres tg WHERE tg.title_id = t.id AND tg.genre_id IN ("+
			placeholders(len(req.ExcludeGenreIDs))+"))", int64Args(req.ExcludeGenreIDs)...)
	}
	if len(req.ExcludeTitleIDs) > 0 {
		q.where("t.id NOT IN ("+placeholders(len(req.ExcludeTitleIDs))+")", int64Args(req.ExcludeTitleIDs)...)
	}

	if req.WatchStatus != nil {
		s.applyWatchStatus(q, userID, *req.WatchStatus)
	}
}

// applyWatchStatus adds the derived watch-status predicate. An episode
// missing an overlay row counts as unwatched. Movies have no episodes, so
// the predicates collapse to the title-level watch count.
func (s *Service) applyWatchStatus(q *builder, userID int64, status WatchStatus) {
	anyWatched := `EXISTS (
		SELECT 1 FROM episodes e
		JOIN seasons se ON se.id = e.season_id
		JOIN user_episode_details ued ON ued.episode_id = e.id AND ued.user_id = ?
		WHERE se.title_id = t.id AND ued.watch_count > 0)`

	anyReleased := `EXISTS (
		SELECT 1 FROM episodes e
		JOIN seasons se ON se.id = e.season_id
		WHERE se.title_id = t.id AND e.air_date IS NOT NULL AND e.air_date <= date('now'))`

	releasedUnwatched := `EXISTS (
		SELECT 1 FROM episodes e
		JOIN seasons se ON se.id = e.season_id
		LEFT JOIN user_episode_details ued ON ued.episode_id = e.id AND ued.user_id = ?
		WHERE se.title_id = t.id AND e.air_date IS NOT NULL AND e.air_date <= date('now')
		  AND IFNULL(ued.watch_count, 0) = 0)`

	switch status {
	case WatchStatusNotWatched:
		q.where("IFNULL(utd.watch_count, 0) = 0 AND NOT "+anyWatched, userID)
	case WatchStatusPartial:
		q.where("IFNULL(utd.watch_count, 0) = 0 AND "+anyWatched, userID)
	case WatchStatusCompleted:
		// A title with no released episodes is not completed by vacuity;
		// it needs either a title-level watch or released episodes all
		// watched.
		q.where("(IFNULL(utd.watch_count, 0) > 0 OR ("+anyReleased+" AND NOT "+releasedUnwatched+"))", userID)
	}
}

// resolveSort maps the request sort onto an ORDER BY clause. A missing key
// or direction falls back to the user's saved preference, then the system
// default; the preference lookup happens only when actually needed.
func (s *Service) resolveSort(ctx context.Context, userID int64, req Request) (string, error) {
	sortBy := req.SortBy
	direction := strings.ToLower(req.SortDirection)
	if sortBy == "" || sortBy == "default" || direction == "" || direction == "default" {
		savedBy, savedDir := s.prefs.SortPreference(ctx, userID)
		if sortBy == "" || sortBy == "default" {
			sortBy = savedBy
		}
		if direction == "" || direction == "default" {
			direction = savedDir
		}
	}

	if sortBy == "random" {
		return " ORDER BY RANDOM()", nil
	}

	column, ok := sortColumns[sortBy]
	if !ok {
		return "", fmt.Errorf("%w: unknown sort key %q", ErrInvalidRequest, sortBy)
	}
	switch direction {
	case "asc":
		direction = "ASC"
	case "desc":
		direction = "DESC"
	default:
		return "", fmt.Errorf("%w: bad sort direction %q", ErrInvalidRequest, direction)
	}

	// Stable tiebreak keeps pagination consistent across requests.
	return fmt.Sprintf(" ORDER BY %s %s, t.id ASC", column, direction), nil
}

func validateRequest(req Request) error {
	if req.MediaType != nil && !req.MediaType.Valid() {
		return fmt.Errorf("%w: bad media type %q", ErrInvalidRequest, *req.MediaType)
	}
	if req.WatchStatus != nil && !req.WatchStatus.Valid() {
		return fmt.Errorf("%w: bad watch status %q", ErrInvalidRequest, *req.WatchStatus)
	}
	if req.Page < 0 || req.PageSize < 0 {
		return fmt.Errorf("%w: negative pagination", ErrInvalidRequest)
	}
	if req.YearFrom != nil && req.YearTo != nil && *req.YearFrom > *req.YearTo {
		return fmt.Errorf("%w: year range inverted", ErrInvalidRequest)
	}
	return nil
}

// selectResults projects the title row, the joined translation and overlay
// fields, and per-row season/episode counts with specials excluded.
const selectResults = `SELECT
	t.id, t.tmdb_id, t.imdb_id, t.media_type, t.original_title,
	t.original_language, t.origin_countries, t.homepage, t.release_date,
	t.runtime_minutes, t.budget, t.revenue, t.status, t.tmdb_score,
	t.tmdb_votes, t.imdb_score, t.imdb_votes, t.popularity, t.created_at,
	t.updated_at,
	COALESCE(tr.name, t.original_title) AS display_name,
	tr.tagline, tr.overview, tr.poster_path, tr.backdrop_path, tr.logo_path,
	IFNULL(utd.in_library, 0), IFNULL(utd.favorite, 0),
	IFNULL(utd.watchlist, 0), IFNULL(utd.watch_count, 0), utd.last_viewed_at,
	(SELECT COUNT(*) FROM seasons se
		WHERE se.title_id = t.id AND se.season_number > 0),
	(SELECT COUNT(*) FROM episodes e JOIN seasons se ON se.id = e.season_id
		WHERE se.title_id = t.id AND se.season_number > 0)`

func scanResult(rows *sql.Rows) (*Result, error) {
	r := &Result{Title: &catalog.Title{}}
	t := r.Title

	var (
		imdbID, origLang, countries, homepage sql.NullString
		releaseDate, status, created, updated sql.NullString
		runtime, budget, revenue, imdbVotes   sql.NullInt64
		imdbScore                             sql.NullFloat64
		mediaType                             string
		tagline, overview                     sql.NullString
		poster, backdrop, logo, lastViewed    sql.NullString
		inLibrary, favorite, watchlist        int
	)

	err := rows.Scan(&t.ID, &t.TmdbID, &imdbID, &mediaType, &t.OriginalTitle,
		&origLang, &countries, &homepage, &releaseDate, &runtime, &budget,
		&revenue, &status, &t.TmdbScore, &t.TmdbVotes, &imdbScore, &imdbVotes,
		&t.Popularity, &created, &updated,
		&r.Name, &tagline, &overview, &poster, &backdrop, &logo,
		&inLibrary, &favorite, &watchlist, &r.WatchCount, &lastViewed,
		&r.SeasonCount, &r.EpisodeCount)
	if err != nil {
		return nil, err
	}

	t.MediaType = catalog.MediaType(mediaType)
	t.ImdbID = nullToPtr(imdbID)
	t.OriginalLanguage = nullToPtr(origLang)
	if countries.String != "" {
		t.OriginCountries = strings.Split(countries.String, ",")
	}
	t.Homepage = nullToPtr(homepage)
	t.ReleaseDate = parseDatePtr(releaseDate.String)
	t.Status = nullToPtr(status)
	if runtime.Valid {
		v := int(runtime.Int64)
		t.RuntimeMinutes = &v
	}
	if budget.Valid {
		t.Budget = &budget.Int64
	}
	if revenue.Valid {
		t.Revenue = &revenue.Int64
	}
	if imdbScore.Valid {
		t.ImdbScore = &imdbScore.Float64
	}
	if imdbVotes.Valid {
		v := int(imdbVotes.Int64)
		t.ImdbVotes = &v
	}
	if v := parseDatePtr(created.String); v != nil {
		t.CreatedAt = *v
	}
	if v := parseDatePtr(updated.String); v != nil {
		t.UpdatedAt = *v
	}

	r.Tagline = nullToPtr(tagline)
	r.Overview = nullToPtr(overview)
	r.PosterPath = nullToPtr(poster)
	r.BackdropPath = nullToPtr(backdrop)
	r.LogoPath = nullToPtr(logo)
	r.InLibrary = inLibrary != 0
	r.Favorite = favorite != 0
	r.Watchlist = watchlist != 0
	if v := parseDatePtr(lastViewed.String); v != nil {
		r.LastViewedAt = v
	}
	return r, nil
}

// builder accumulates WHERE clauses and their arguments in order.
type builder struct {
	from      string
	fromArgs  []any
	wheres    []string
	whereArgs []any
}

func (b *builder) where(clause string, args ...any) {
	b.wheres = append(b.wheres, clause)
	b.whereArgs = append(b.whereArgs, args...)
}

func (b *builder) whereClause() string {
	if len(b.wheres) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.wheres, " AND ")
}

func (b *builder) args() []any {
	out := make([]any, 0, len(b.fromArgs)+len(b.whereArgs))
	out = append(out, b.fromArgs...)
	return append(out, b.whereArgs...)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func int64Args(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullToPtr(s sql.NullString) *string {
	if !s.Valid || s.String == "" {
		return nil
	}
	v := s.String
	return &v
}

func parseDatePtr(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, format := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(format, s); err == nil {
			return &t
		}
	}
	return nil
}
