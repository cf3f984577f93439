package preferences

import (
	"context"
	"errors"
	"testing"

	"github.com/reelvault/reelvault/internal/testutil"
)

func setup(t *testing.T) (*Service, *testutil.TestDB, int64) {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	svc := NewService(tdb.Conn, tdb.Logger)
	userID := tdb.CreateUser(t, "alice")
	return svc, tdb, userID
}

func TestService_GetDefaults(t *testing.T) {
	svc, tdb, userID := setup(t)
	defer tdb.Close()
	ctx := context.Background()

	got, err := svc.Get(ctx, userID, KeySortBy)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "tmdb_score" {
		t.Errorf("default sort_by = %q, want tmdb_score", got)
	}

	if _, err := svc.Get(ctx, userID, "nonsense"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("unknown key error = %v", err)
	}
}

func TestService_SetAndGet(t *testing.T) {
	svc, tdb, userID := setup(t)
	defer tdb.Close()
	ctx := context.Background()

	if err := svc.Set(ctx, userID, KeySortDirection, "asc"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := svc.Get(ctx, userID, KeySortDirection)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "asc" {
		t.Errorf("sort_direction = %q, want asc", got)
	}

	// Upsert replaces the previous value.
	if err := svc.Set(ctx, userID, KeySortDirection, "desc"); err != nil {
		t.Fatalf("second Set() error = %v", err)
	}
	got, _ = svc.Get(ctx, userID, KeySortDirection)
	if got != "desc" {
		t.Errorf("sort_direction after upsert = %q, want desc", got)
	}
}

func TestService_SetValidation(t *testing.T) {
	svc, tdb, userID := setup(t)
	defer tdb.Close()
	ctx := context.Background()

	if err := svc.Set(ctx, userID, "nonsense", "x"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("unknown key error = %v", err)
	}
	if err := svc.Set(ctx, userID, KeySortDirection, "sideways"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("bad direction error = %v", err)
	}
	if err := svc.Set(ctx, userID, KeyLocales, "fi-FI,-US"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("bad locale error = %v", err)
	}
	if err := svc.Set(ctx, userID, KeyLocales, "fi-FI, en-US"); err != nil {
		t.Errorf("valid locales Set() error = %v", err)
	}
}

func TestService_All(t *testing.T) {
	svc, tdb, userID := setup(t)
	defer tdb.Close()
	ctx := context.Background()

	if err := svc.Set(ctx, userID, KeyLocales, "de-DE"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	all, err := svc.All(ctx, userID)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if all[KeyLocales] != "de-DE" {
		t.Errorf("locales = %q, want de-DE", all[KeyLocales])
	}
	if all[KeySortBy] != "tmdb_score" {
		t.Errorf("sort_by default missing from All(): %v", all)
	}
	if len(all) != len(Defaults()) {
		t.Errorf("All() returned %d keys, want %d", len(all), len(Defaults()))
	}
}

func TestService_Locales(t *testing.T) {
	svc, tdb, userID := setup(t)
	defer tdb.Close()
	ctx := context.Background()

	got, err := svc.Locales(ctx, userID)
	if err != nil {
		t.Fatalf("Locales() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("unset locales = %v, want empty", got)
	}

	if err := svc.Set(ctx, userID, KeyLocales, "fi-FI, en-US,"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err = svc.Locales(ctx, userID)
	if err != nil {
		t.Fatalf("Locales() error = %v", err)
	}
	if len(got) != 2 || got[0] != "fi-FI" || got[1] != "en-US" {
		t.Errorf("locales = %v, want [fi-FI en-US]", got)
	}
}

func TestService_SortPreference(t *testing.T) {
	svc, tdb, userID := setup(t)
	defer tdb.Close()
	ctx := context.Background()

	sortBy, direction := svc.SortPreference(ctx, userID)
	if sortBy != "tmdb_score" || direction != "desc" {
		t.Errorf("default SortPreference() = %q %q", sortBy, direction)
	}

	if err := svc.Set(ctx, userID, KeySortBy, "name"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := svc.Set(ctx, userID, KeySortDirection, "asc"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	sortBy, direction = svc.SortPreference(ctx, userID)
	if sortBy != "name" || direction != "asc" {
		t.Errorf("SortPreference() = %q %q, want name asc", sortBy, direction)
	}
}
