package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Sentinel errors for catalog lookups and writes.
var (
	ErrTitleNotFound   = errors.New("title not found")
	ErrSeasonNotFound  = errors.New("season not found")
	ErrEpisodeNotFound = errors.New("episode not found")
	// ErrConflict indicates an upsert hit a constraint its natural key did
	// not anticipate. Fatal for the operation.
	ErrConflict = errors.New("catalog constraint conflict")
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store persists the normalized catalog. All writes are keyed by natural
// keys and merge on conflict, so re-running any write is idempotent.
type Store struct {
	db     *sql.DB
	q      querier
	logger zerolog.Logger
}

// NewStore creates a catalog store over the given database.
func NewStore(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		q:      db,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

// WithTx runs fn inside a transaction, with every store method bound to it.
// Rolls back on error or panic, commits otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if _, ok := s.q.(*sql.Tx); ok {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	bound := &Store{db: s.db, q: tx, logger: s.logger}
	if err := fn(bound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpsertTitle inserts or merges a title on its tmdb_id natural key and fills
// in the row id and timestamps. The natural key and media type are never
// updated on conflict.
func (s *Store) UpsertTitle(ctx context.Context, t *Title) error {
	row := s.q.QueryRowContext(ctx, `
		INSERT INTO titles (
			tmdb_id, imdb_id, media_type, original_title, original_language,
			origin_countries, homepage, release_date, runtime_minutes,
			budget, revenue, status, tmdb_score, tmdb_votes, imdb_score,
			imdb_votes, popularity
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tmdb_id) DO UPDATE SET
			imdb_id = excluded.imdb_id,
			original_title = excluded.original_title,
			original_language = excluded.original_language,
			origin_countries = excluded.origin_countries,
			homepage = excluded.homepage,
			release_date = excluded.release_date,
			runtime_minutes = excluded.runtime_minutes,
			budget = excluded.budget,
			revenue = excluded.revenue,
			status = excluded.status,
			tmdb_score = excluded.tmdb_score,
			tmdb_votes = excluded.tmdb_votes,
			imdb_score = excluded.imdb_score,
			imdb_votes = excluded.imdb_votes,
			popularity = excluded.popularity,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at`,
		t.TmdbID, t.ImdbID, string(t.MediaType), t.OriginalTitle, t.OriginalLanguage,
		joinCountries(t.OriginCountries), t.Homepage, fmtDate(t.ReleaseDate),
		t.RuntimeMinutes, t.Budget, t.Revenue, t.Status, t.TmdbScore, t.TmdbVotes,
		t.ImdbScore, t.ImdbVotes, t.Popularity,
	)

	var created, updated sql.NullString
	if err := row.Scan(&t.ID, &created, &updated); err != nil {
		return fmt.Errorf("failed to upsert title: %w", wrapConstraint(err))
	}
	t.CreatedAt = parseTimestamp(created.String)
	t.UpdatedAt = parseTimestamp(updated.String)
	return nil
}

// GetTitle returns a title by internal id.
func (s *Store) GetTitle(ctx context.Context, id int64) (*Title, error) {
	row := s.q.QueryRowContext(ctx, selectTitle+` WHERE id = ?`, id)
	t, err := rowToTitle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTitleNotFound
		}
		return nil, fmt.Errorf("failed to get title: %w", err)
	}
	return t, nil
}

// GetTitleByTmdbID returns a title by its external catalog id.
func (s *Store) GetTitleByTmdbID(ctx context.Context, tmdbID int) (*Title, error) {
	row := s.q.QueryRowContext(ctx, selectTitle+` WHERE tmdb_id = ?`, tmdbID)
	t, err := rowToTitle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTitleNotFound
		}
		return nil, fmt.Errorf("failed to get title by tmdb id: %w", err)
	}
	return t, nil
}

// ListStaleTitles returns titles whose metadata was last merged before the
// cutoff, oldest first.
func (s *Store) ListStaleTitles(ctx context.Context, cutoff time.Time, limit int) ([]*Title, error) {
	rows, err := s.q.QueryContext(ctx,
		selectTitle+` WHERE updated_at < ? ORDER BY updated_at ASC LIMIT ?`,
		cutoff.UTC().Format(timestampFormat), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale titles: %w", err)
	}
	defer rows.Close()

	var titles []*Title
	for rows.Next() {
		t, err := rowToTitle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// UpsertTitleTranslation inserts or merges one (title, language) row.
func (s *Store) UpsertTitleTranslation(ctx context.Context, tr *TitleTranslation) error {
	row := s.q.QueryRowContext(ctx, `
		INSERT INTO title_translations (
			title_id, language, name, tagline, overview,
			poster_path, backdrop_path, logo_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(title_id, language) DO UPDATE SET
			name = excluded.name,
			tagline = excluded.tagline,
			overview = excluded.overview,
			poster_path = excluded.poster_path,
			backdrop_path = excluded.backdrop_path,
			logo_path = excluded.logo_path
		RETURNING id`,
		tr.TitleID, tr.Language, tr.Name, tr.Tagline, tr.Overview,
		tr.PosterPath, tr.BackdropPath, tr.LogoPath,
	)
	if err := row.Scan(&tr.ID); err != nil {
		return fmt.Errorf("failed to upsert title translation: %w", wrapConstraint(err))
	}
	return nil
}

// GetTitleTranslation returns the translation row for one language, or
// ErrTitleNotFound if none exists.
func (s *Store) GetTitleTranslation(ctx context.Context, titleID int64, language string) (*TitleTranslation, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, title_id, language, name, tagline, overview,
		       poster_path, backdrop_path, logo_path
		FROM title_translations WHERE title_id = ? AND language = ?`,
		titleID, language)

	tr := &TitleTranslation{}
	var tagline, overview, poster, backdrop, logo sql.NullString
	err := row.Scan(&tr.ID, &tr.TitleID, &tr.Language, &tr.Name,
		&tagline, &overview, &poster, &backdrop, &logo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTitleNotFound
		}
		return nil, fmt.Errorf("failed to get title translation: %w", err)
	}
	tr.Tagline = nullToPtr(tagline)
	tr.Overview = nullToPtr(overview)
	tr.PosterPath = nullToPtr(poster)
	tr.BackdropPath = nullToPtr(backdrop)
	tr.LogoPath = nullToPtr(logo)
	return tr, nil
}

// UpsertSeason inserts or merges a season on (title, season number).
func (s *Store) UpsertSeason(ctx context.Context, season *Season) error {
	row := s.q.QueryRowContext(ctx, `
		INSERT INTO seasons (title_id, season_number, air_date, episode_count, tmdb_score)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(title_id, season_number) DO UPDATE SET
			air_date = excluded.air_date,
			episode_count = excluded.episode_count,
			tmdb_score = excluded.tmdb_score
		RETURNING id`,
		season.TitleID, season.SeasonNumber, fmtDate(season.AirDate),
		season.EpisodeCount, season.TmdbScore,
	)
	if err := row.Scan(&season.ID); err != nil {
		return fmt.Errorf("failed to upsert season: %w", wrapConstraint(err))
	}
	return nil
}

func (s *Store) GetSeason(ctx context.Context, id int64) (*Season, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, title_id, season_number, air_date, episode_count, tmdb_score
		FROM seasons WHERE id = ?`, id)

	season := &Season{}
	var airDate sql.NullString
	err := row.Scan(&season.ID, &season.TitleID, &season.SeasonNumber,
		&airDate, &season.EpisodeCount, &season.TmdbScore)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeasonNotFound
		}
		return nil, fmt.Errorf("failed to get season: %w", err)
	}
	season.AirDate = parseDate(airDate.String)
	return season, nil
}

// ListSeasons returns a title's seasons ordered by season number.
func (s *Store) ListSeasons(ctx context.Context, titleID int64) ([]*Season, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, title_id, season_number, air_date, episode_count, tmdb_score
		FROM seasons WHERE title_id = ? ORDER BY season_number`, titleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seasons: %w", err)
	}
	defer rows.Close()

	var seasons []*Season
	for rows.Next() {
		season := &Season{}
		var airDate sql.NullString
		if err := rows.Scan(&season.ID, &season.TitleID, &season.SeasonNumber,
			&airDate, &season.EpisodeCount, &season.TmdbScore); err != nil {
			return nil, fmt.Errorf("failed to scan season: %w", err)
		}
		season.AirDate = parseDate(airDate.String)
		seasons = append(seasons, season)
	}
	return seasons, rows.Err()
}

// UpsertSeasonTranslation inserts or merges one (season, language) row.
func (s *Store) UpsertSeasonTranslation(ctx context.Context, tr *SeasonTranslation) error {
	row := s.q.QueryRowContext(ctx, `
		INSERT INTO season_translations (season_id, language, name, overview, poster_path)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(season_id, language) DO UPDATE SET
			name = excluded.name,
			overview = excluded.overview,
			poster_path = excluded.poster_path
		RETURNING id`,
		tr.SeasonID, tr.Language, tr.Name, tr.Overview, tr.PosterPath,
	)
	if err := row.Scan(&tr.ID); err != nil {
		return fmt.Errorf("failed to upsert season translation: %w", wrapConstraint(err))
	}
	return nil
}

// UpsertEpisode inserts or merges an episode on (season, episode number).
func (s *Store) UpsertEpisode(ctx context.Context, ep *Episode) error {
	row := s.q.QueryRowContext(ctx, `
		INSERT INTO episodes (season_id, episode_number, air_date, runtime_minutes, tmdb_score, tmdb_votes)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(season_id, episode_number) DO UPDATE SET
			air_date = excluded.air_date,
			runtime_minutes = excluded.runtime_minutes,
			tmdb_score = excluded.tmdb_score,
			tmdb_votes = excluded.tmdb_votes
		RETURNING id`,
		ep.SeasonID, ep.EpisodeNumber, fmtDate(ep.AirDate),
		ep.RuntimeMinutes, ep.TmdbScore, ep.TmdbVotes,
	)
	if err := row.Scan(&ep.ID); err != nil {
		return fmt.Errorf("failed to upsert episode: %w", wrapConstraint(err))
	}
	return nil
}

// GetEpisode returns an episode by internal id.
func (s *Store) GetEpisode(ctx context.Context, id int64) (*Episode, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, season_id, episode_number, air_date, runtime_minutes, tmdb_score, tmdb_votes
		FROM episodes WHERE id = ?`, id)

	ep := &Episode{}
	var airDate sql.NullString
	var runtime sql.NullInt64
	err := row.Scan(&ep.ID, &ep.SeasonID, &ep.EpisodeNumber, &airDate,
		&runtime, &ep.TmdbScore, &ep.TmdbVotes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEpisodeNotFound
		}
		return nil, fmt.Errorf("failed to get episode: %w", err)
	}
	ep.AirDate = parseDate(airDate.String)
	if runtime.Valid {
		v := int(runtime.Int64)
		ep.RuntimeMinutes = &v
	}
	return ep, nil
}

// ListEpisodes returns a season's episodes ordered by episode number.
func (s *Store) ListEpisodes(ctx context.Context, seasonID int64) ([]*Episode, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, season_id, episode_number, air_date, runtime_minutes, tmdb_score, tmdb_votes
		FROM episodes WHERE season_id = ? ORDER BY episode_number`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*Episode
	for rows.Next() {
		ep := &Episode{}
		var airDate sql.NullString
		var runtime sql.NullInt64
		if err := rows.Scan(&ep.ID, &ep.SeasonID, &ep.EpisodeNumber, &airDate,
			&runtime, &ep.TmdbScore, &ep.TmdbVotes); err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}
		ep.AirDate = parseDate(airDate.String)
		if runtime.Valid {
			v := int(runtime.Int64)
			ep.RuntimeMinutes = &v
		}
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}

// UpsertEpisodeTranslation inserts or merges one (episode, language) row.
func (s *Store) UpsertEpisodeTranslation(ctx context.Context, tr *EpisodeTranslation) error {
	row := s.q.QueryRowContext(ctx, `
		INSERT INTO episode_translations (episode_id, language, name, overview)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(episode_id, language) DO UPDATE SET
			name = excluded.name,
			overview = excluded.overview
		RETURNING id`,
		tr.EpisodeID, tr.Language, tr.Name, tr.Overview,
	)
	if err := row.Scan(&tr.ID); err != nil {
		return fmt.Errorf("failed to upsert episode translation: %w", wrapConstraint(err))
	}
	return nil
}

// ListReleasedEpisodeIDs returns ids of every episode of a title whose air
// date is on or before asOf. Specials (season zero) are included; callers
// that exclude them filter on season number.
func (s *Store) ListReleasedEpisodeIDs(ctx context.Context, titleID int64, asOf time.Time) ([]int64, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT e.id
		FROM episodes e
		JOIN seasons se ON se.id = e.season_id
		WHERE se.title_id = ? AND e.air_date IS NOT NULL AND e.air_date <= ?
		ORDER BY se.season_number, e.episode_number`,
		titleID, asOf.Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to list released episodes: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan episode id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpsertGenre inserts or merges a genre on its external id.
func (s *Store) UpsertGenre(ctx context.Context, g *Genre) error {
	row := s.q.QueryRowContext(ctx, `
		INSERT INTO genres (tmdb_id, name) VALUES (?, ?)
		ON CONFLICT(tmdb_id) DO UPDATE SET name = excluded.name
		RETURNING id`,
		g.TmdbID, g.Name,
	)
	if err := row.Scan(&g.ID); err != nil {
		return fmt.Errorf("failed to upsert genre: %w", wrapConstraint(err))
	}
	return nil
}

// LinkTitleGenre adds a title-genre link. Duplicate links are no-ops.
func (s *Store) LinkTitleGenre(ctx context.Context, titleID, genreID int64) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO title_genres (title_id, genre_id) VALUES (?, ?)`,
		titleID, genreID)
	if err != nil {
		return fmt.Errorf("failed to link genre: %w", wrapConstraint(err))
	}
	return nil
}

// ListGenres returns a title's genres ordered by name.
func (s *Store) ListGenres(ctx context.Context, titleID int64) ([]*Genre, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT g.id, g.tmdb_id, g.name
		FROM genres g
		JOIN title_genres tg ON tg.genre_id = g.id
		WHERE tg.title_id = ?
		ORDER BY g.name`, titleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	defer rows.Close()

	var genres []*Genre
	for rows.Next() {
		g := &Genre{}
		if err := rows.Scan(&g.ID, &g.TmdbID, &g.Name); err != nil {
			return nil, fmt.Errorf("failed to scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

// UpsertAgeRating inserts or merges one certification per (title, country).
func (s *Store) UpsertAgeRating(ctx context.Context, r *AgeRating) error {
	row := s.q.QueryRowContext(ctx, `
		INSERT INTO age_ratings (title_id, country, rating) VALUES (?, ?, ?)
		ON CONFLICT(title_id, country) DO UPDATE SET rating = excluded.rating
		RETURNING id`,
		r.TitleID, r.Country, r.Rating,
	)
	if err := row.Scan(&r.ID); err != nil {
		return fmt.Errorf("failed to upsert age rating: %w", wrapConstraint(err))
	}
	return nil
}

// ListAgeRatings returns a title's per-country certifications.
func (s *Store) ListAgeRatings(ctx context.Context, titleID int64) ([]*AgeRating, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, title_id, country, rating
		FROM age_ratings WHERE title_id = ? ORDER BY country`, titleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list age ratings: %w", err)
	}
	defer rows.Close()

	var ratings []*AgeRating
	for rows.Next() {
		r := &AgeRating{}
		if err := rows.Scan(&r.ID, &r.TitleID, &r.Country, &r.Rating); err != nil {
			return nil, fmt.Errorf("failed to scan age rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

// UpsertImage inserts or merges an image on its file path. Only the score
// and dimension fields are overwritten for an existing path.
func (s *Store) UpsertImage(ctx context.Context, img *Image) error {
	row := s.q.QueryRowContext(ctx, `
		INSERT INTO images (file_path, category, language, country, width, height, vote_average, vote_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			width = excluded.width,
			height = excluded.height,
			vote_average = excluded.vote_average,
			vote_count = excluded.vote_count
		RETURNING id`,
		img.FilePath, string(img.Category), img.Language, img.Country,
		img.Width, img.Height, img.VoteAverage, img.VoteCount,
	)
	if err := row.Scan(&img.ID); err != nil {
		return fmt.Errorf("failed to upsert image: %w", wrapConstraint(err))
	}
	return nil
}

// LinkImage ties an image to an entity tuple. Duplicate tuples are no-ops;
// NULL season/episode compare equal through the backing unique index.
func (s *Store) LinkImage(ctx context.Context, link *ImageLink) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO image_links (image_id, title_id, season_id, episode_id)
		 VALUES (?, ?, ?, ?)`,
		link.ImageID, link.TitleID, link.SeasonID, link.EpisodeID)
	if err != nil {
		return fmt.Errorf("failed to link image: %w", wrapConstraint(err))
	}
	return nil
}

// ListTitleImages returns the title-level images of one category, ordered by
// file path for deterministic iteration.
func (s *Store) ListTitleImages(ctx context.Context, titleID int64, category ImageCategory) ([]*Image, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT i.id, i.file_path, i.category, i.language, i.country,
		       i.width, i.height, i.vote_average, i.vote_count
		FROM images i
		JOIN image_links il ON il.image_id = i.id
		WHERE il.title_id = ? AND il.season_id IS NULL AND il.episode_id IS NULL
		  AND i.category = ?
		ORDER BY i.file_path`, titleID, string(category))
	if err != nil {
		return nil, fmt.Errorf("failed to list title images: %w", err)
	}
	defer rows.Close()

	var images []*Image
	for rows.Next() {
		img := &Image{}
		var lang, country sql.NullString
		var cat string
		if err := rows.Scan(&img.ID, &img.FilePath, &cat, &lang, &country,
			&img.Width, &img.Height, &img.VoteAverage, &img.VoteCount); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		img.Category = ImageCategory(cat)
		img.Language = nullToPtr(lang)
		img.Country = nullToPtr(country)
		images = append(images, img)
	}
	return images, rows.Err()
}

const selectTitle = `
	SELECT id, tmdb_id, imdb_id, media_type, original_title, original_language,
	       origin_countries, homepage, release_date, runtime_minutes, budget,
	       revenue, status, tmdb_score, tmdb_votes, imdb_score, imdb_votes,
	       popularity, created_at, updated_at
	FROM titles`

type rowScanner interface {
	Scan(dest ...any) error
}

func rowToTitle(row rowScanner) (*Title, error) {
	t := &Title{}
	var (
		imdbID, origLang, countries, homepage      sql.NullString
		releaseDate, status, created, updated      sql.NullString
		runtime, budget, revenue, imdbVotes        sql.NullInt64
		imdbScore                                  sql.NullFloat64
		mediaType                                  string
	)

	err := row.Scan(&t.ID, &t.TmdbID, &imdbID, &mediaType, &t.OriginalTitle,
		&origLang, &countries, &homepage, &releaseDate, &runtime, &budget,
		&revenue, &status, &t.TmdbScore, &t.TmdbVotes, &imdbScore, &imdbVotes,
		&t.Popularity, &created, &updated)
	if err != nil {
		return nil, err
	}

	t.MediaType = MediaType(mediaType)
	t.ImdbID = nullToPtr(imdbID)
	t.OriginalLanguage = nullToPtr(origLang)
	t.OriginCountries = splitCountries(countries.String)
	t.Homepage = nullToPtr(homepage)
	t.ReleaseDate = parseDate(releaseDate.String)
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
	t.CreatedAt = parseTimestamp(created.String)
	t.UpdatedAt = parseTimestamp(updated.String)
	return t, nil
}

const (
	dateFormat      = "2006-01-02"
	timestampFormat = "2006-01-02 15:04:05"
)

func fmtDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateFormat)
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, format := range []string{dateFormat, time.RFC3339, timestampFormat} {
		if t, err := time.Parse(format, s); err == nil {
			return &t
		}
	}
	return nil
}

func parseTimestamp(s string) time.Time {
	for _, format := range []string{timestampFormat, time.RFC3339, dateFormat} {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func nullToPtr(s sql.NullString) *string {
	if !s.Valid || s.String == "" {
		return nil
	}
	v := s.String
	return &v
}

func joinCountries(countries []string) any {
	if len(countries) == 0 {
		return nil
	}
	return strings.Join(countries, ",")
}

func splitCountries(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func wrapConstraint(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "constraint") {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
