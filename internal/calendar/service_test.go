package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/reelvault/reelvault/internal/catalog"
	"github.com/reelvault/reelvault/internal/library/overlay"
	"github.com/reelvault/reelvault/internal/locale"
	"github.com/reelvault/reelvault/internal/preferences"
	"github.com/reelvault/reelvault/internal/testutil"
)

type fixture struct {
	tdb     *testutil.TestDB
	store   *catalog.Store
	overlay *overlay.Service
	svc     *Service
	userID  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	store := catalog.NewStore(tdb.Conn, tdb.Logger)
	ov := overlay.NewService(tdb.Conn, store, tdb.Logger)
	prefs := preferences.NewService(tdb.Conn, tdb.Logger)
	resolver := locale.NewResolver(ov, prefs, "en-US")
	return &fixture{
		tdb:     tdb,
		store:   store,
		overlay: ov,
		svc:     NewService(tdb.Conn, resolver, tdb.Logger),
		userID:  tdb.CreateUser(t, "alice"),
	}
}

func (f *fixture) addMovie(t *testing.T, tmdbID int, name string, release time.Time, inLibrary bool) *catalog.Title {
	t.Helper()
	ctx := context.Background()

	title := &catalog.Title{
		TmdbID:        tmdbID,
		MediaType:     catalog.MediaTypeMovie,
		OriginalTitle: name,
		ReleaseDate:   &release,
	}
	if err := f.store.UpsertTitle(ctx, title); err != nil {
		t.Fatalf("UpsertTitle() error = %v", err)
	}
	if inLibrary {
		if _, err := f.overlay.Apply(ctx, f.userID, title.ID, overlay.Patch{InLibrary: testutil.BoolPtr(true)}); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
	}
	return title
}

// addSeries creates an in-library series with one season whose episodes all
// air on the given dates.
func (f *fixture) addSeries(t *testing.T, tmdbID int, name string, airDates []time.Time) []int64 {
	t.Helper()
	ctx := context.Background()

	title := &catalog.Title{TmdbID: tmdbID, MediaType: catalog.MediaTypeSeries, OriginalTitle: name}
	if err := f.store.UpsertTitle(ctx, title); err != nil {
		t.Fatalf("UpsertTitle() error = %v", err)
	}
	if _, err := f.overlay.Apply(ctx, f.userID, title.ID, overlay.Patch{InLibrary: testutil.BoolPtr(true)}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	season := &catalog.Season{TitleID: title.ID, SeasonNumber: 1}
	if err := f.store.UpsertSeason(ctx, season); err != nil {
		t.Fatalf("UpsertSeason() error = %v", err)
	}

	var ids []int64
	for n, airDate := range airDates {
		d := airDate
		ep := &catalog.Episode{SeasonID: season.ID, EpisodeNumber: n + 1, AirDate: &d}
		if err := f.store.UpsertEpisode(ctx, ep); err != nil {
			t.Fatalf("UpsertEpisode() error = %v", err)
		}
		ids = append(ids, ep.ID)
	}
	return ids
}

func day(offset int) time.Time {
	return time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestEvents_MoviesScopedToLibraryAndRange(t *testing.T) {
	f := newFixture(t)
	defer f.tdb.Close()
	ctx := context.Background()

	f.addMovie(t, 1, "In Range", day(5), true)
	f.addMovie(t, 2, "Out Of Range", day(60), true)
	f.addMovie(t, 3, "Not In Library", day(5), false)

	events, err := f.svc.Events(ctx, f.userID, day(0), day(30))
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	e := events[0]
	if e.Name != "In Range" || e.MediaType != "movie" {
		t.Errorf("event = %+v", e)
	}
	if e.Date != day(5).Format("2006-01-02") {
		t.Errorf("Date = %q", e.Date)
	}
	if e.Watched {
		t.Error("unwatched movie reported watched")
	}
}

func TestEvents_MovieWatchedFlag(t *testing.T) {
	f := newFixture(t)
	defer f.tdb.Close()
	ctx := context.Background()

	movie := f.addMovie(t, 1, "Seen It", day(1), true)
	if _, err := f.overlay.Apply(ctx, f.userID, movie.ID, overlay.Patch{WatchCount: testutil.IntPtr(2)}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	events, err := f.svc.Events(ctx, f.userID, day(0), day(30))
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(events) != 1 || !events[0].Watched {
		t.Errorf("events = %+v, want one watched movie", events)
	}
}

func TestEvents_WeeklyEpisodes(t *testing.T) {
	f := newFixture(t)
	defer f.tdb.Close()
	ctx := context.Background()

	episodes := f.addSeries(t, 100, "Weekly Show", []time.Time{day(1), day(8)})
	if _, err := f.overlay.MarkEpisodeWatched(ctx, f.userID, episodes[0], true); err != nil {
		t.Fatalf("MarkEpisodeWatched() error = %v", err)
	}

	events, err := f.svc.Events(ctx, f.userID, day(0), day(30))
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	first := events[0]
	if first.MediaType != "episode" || first.EpisodeNumber != 1 || !first.Watched {
		t.Errorf("first event = %+v", first)
	}
	if first.EpisodeName != "Episode 1" {
		t.Errorf("EpisodeName = %q, want fallback name", first.EpisodeName)
	}
	if events[1].Watched {
		t.Error("unwatched episode reported watched")
	}
}

func TestEvents_SeasonDropCollapses(t *testing.T) {
	f := newFixture(t)
	defer f.tdb.Close()
	ctx := context.Background()

	f.addSeries(t, 100, "Binge Show", []time.Time{day(3), day(3), day(3), day(3)})

	events, err := f.svc.Events(ctx, f.userID, day(0), day(30))
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1 collapsed drop", len(events))
	}
	e := events[0]
	if e.EpisodeCount != 4 {
		t.Errorf("EpisodeCount = %d, want 4", e.EpisodeCount)
	}
	if e.EpisodeName != "Season 1" {
		t.Errorf("EpisodeName = %q, want Season 1", e.EpisodeName)
	}
	if e.Watched {
		t.Error("unwatched drop reported watched")
	}
}

func TestEvents_SeasonDropWatchedWhenAllEpisodesAre(t *testing.T) {
	f := newFixture(t)
	defer f.tdb.Close()
	ctx := context.Background()

	episodes := f.addSeries(t, 100, "Binge Show", []time.Time{day(3), day(3), day(3)})
	for _, id := range episodes {
		if _, err := f.overlay.MarkEpisodeWatched(ctx, f.userID, id, true); err != nil {
			t.Fatalf("MarkEpisodeWatched() error = %v", err)
		}
	}

	events, err := f.svc.Events(ctx, f.userID, day(0), day(30))
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(events) != 1 || !events[0].Watched {
		t.Errorf("events = %+v, want one watched drop", events)
	}
}

func TestEvents_TranslatedNames(t *testing.T) {
	f := newFixture(t)
	defer f.tdb.Close()
	ctx := context.Background()

	movie := f.addMovie(t, 1, "Original Name", day(1), true)
	tr := &catalog.TitleTranslation{TitleID: movie.ID, Language: "en", Name: "Localized Name"}
	if err := f.store.UpsertTitleTranslation(ctx, tr); err != nil {
		t.Fatalf("UpsertTitleTranslation() error = %v", err)
	}

	events, err := f.svc.Events(ctx, f.userID, day(0), day(30))
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(events) != 1 || events[0].Name != "Localized Name" {
		t.Errorf("events = %+v, want localized name", events)
	}
}
