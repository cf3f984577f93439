// Package preferences stores per-user settings as key/value rows.
package preferences

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/reelvault/reelvault/internal/locale"
)

var (
	ErrUnknownKey   = errors.New("unknown settings key")
	ErrInvalidValue = errors.New("invalid settings value")
)

// Known settings keys.
const (
	KeyLocales       = "locales"
	KeySortBy        = "sort_by"
	KeySortDirection = "sort_direction"
)

// Defaults returns the system-wide default for every known key. Keys with
// an empty default fall back to configuration at the point of use.
func Defaults() map[string]string {
	return map[string]string{
		KeyLocales:       "",
		KeySortBy:        "tmdb_score",
		KeySortDirection: "desc",
	}
}

// Service reads and writes per-user settings.
type Service struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewService creates a preferences service.
func NewService(db *sql.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "preferences").Logger(),
	}
}

// Get returns one setting value, falling back to the system default when
// the user has not set it.
func (s *Service) Get(ctx context.Context, userID int64, key string) (string, error) {
	defaults := Defaults()
	fallback, known := defaults[key]
	if !known {
		return "", ErrUnknownKey
	}

	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM user_settings WHERE user_id = ? AND key = ?`,
		userID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fallback, nil
		}
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return value, nil
}

// Set validates and upserts one setting value.
func (s *Service) Set(ctx context.Context, userID int64, key, value string) error {
	if err := validate(key, value); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value`,
		userID, key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}

	s.logger.Debug().Int64("user", userID).Str("key", key).Msg("setting updated")
	return nil
}

// All returns every known setting for a user, merged over the defaults.
func (s *Service) All(ctx context.Context, userID int64) (map[string]string, error) {
	settings := Defaults()

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM user_settings WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		if _, known := settings[key]; known {
			settings[key] = value
		}
	}
	return settings, rows.Err()
}

// Locales returns the user's ordered locale preference list, empty when the
// user never set one. Satisfies the locale resolver's settings source.
func (s *Service) Locales(ctx context.Context, userID int64) ([]string, error) {
	raw, err := s.Get(ctx, userID, KeyLocales)
	if err != nil {
		return nil, err
	}
	return splitLocales(raw), nil
}

// SortPreference returns the user's saved sort key and direction, with
// defaults applied for anything unset.
func (s *Service) SortPreference(ctx context.Context, userID int64) (sortBy, direction string) {
	defaults := Defaults()
	sortBy, direction = defaults[KeySortBy], defaults[KeySortDirection]

	if v, err := s.Get(ctx, userID, KeySortBy); err == nil && v != "" {
		sortBy = v
	}
	if v, err := s.Get(ctx, userID, KeySortDirection); err == nil && v != "" {
		direction = v
	}
	return sortBy, direction
}

func validate(key, value string) error {
	switch key {
	case KeyLocales:
		for _, l := range splitLocales(value) {
			if !locale.Valid(l) {
				return fmt.Errorf("%w: bad locale %q", ErrInvalidValue, l)
			}
		}
	case KeySortBy:
		// The search engine rejects unknown sort keys at query time.
	case KeySortDirection:
		if value != "asc" && value != "desc" {
			return fmt.Errorf("%w: direction must be asc or desc", ErrInvalidValue)
		}
	default:
		return ErrUnknownKey
	}
	return nil
}

func splitLocales(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
