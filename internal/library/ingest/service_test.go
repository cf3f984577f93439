package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/reelvault/reelvault/internal/catalog"
	"github.com/reelvault/reelvault/internal/locale"
	"github.com/reelvault/reelvault/internal/metadata/tmdb"
	"github.com/reelvault/reelvault/internal/testutil"
)

// fakeFetcher serves canned payloads and records calls.
type fakeFetcher struct {
	movie       *tmdb.MovieDetails
	series      *tmdb.SeriesDetails
	seasons     map[int]*tmdb.SeasonDetails
	movieErr    error
	seriesErr   error
	seasonErrs  map[int]error
	seasonCalls []int
}

func (f *fakeFetcher) GetMovie(ctx context.Context, tmdbID int, locale string, imageLanguages []string) (*tmdb.MovieDetails, error) {
	if f.movieErr != nil {
		return nil, f.movieErr
	}
	return f.movie, nil
}

func (f *fakeFetcher) GetSeries(ctx context.Context, tmdbID int, locale string, imageLanguages []string) (*tmdb.SeriesDetails, error) {
	if f.seriesErr != nil {
		return nil, f.seriesErr
	}
	return f.series, nil
}

func (f *fakeFetcher) GetSeason(ctx context.Context, seriesTmdbID, seasonNumber int, locale string, imageLanguages []string) (*tmdb.SeasonDetails, error) {
	f.seasonCalls = append(f.seasonCalls, seasonNumber)
	if err := f.seasonErrs[seasonNumber]; err != nil {
		return nil, err
	}
	return f.seasons[seasonNumber], nil
}

type fakeHub struct {
	events []string
}

func (f *fakeHub) Broadcast(msgType string, payload any) {
	f.events = append(f.events, msgType)
}

func testMovie() *tmdb.MovieDetails {
	return &tmdb.MovieDetails{
		ID:               603,
		Title:            "The Matrix",
		OriginalTitle:    "The Matrix",
		OriginalLanguage: "en",
		Overview:         "A hacker discovers reality.",
		Tagline:          "Free your mind.",
		ReleaseDate:      "1999-03-31",
		Runtime:          136,
		VoteAverage:      8.2,
		VoteCount:        20000,
		Popularity:       80.5,
		Genres:           []tmdb.Genre{{ID: 28, Name: "Action"}, {ID: 878, Name: "Science Fiction"}},
		Images: &tmdb.Images{
			Posters: []tmdb.ImageResult{
				{FilePath: "/poster-en.jpg", Iso6391: "en", VoteAverage: 6.0},
				{FilePath: "/poster-null.jpg", VoteAverage: 7.0},
			},
			Backdrops: []tmdb.ImageResult{
				{FilePath: "/backdrop-null.jpg", VoteAverage: 5.0},
				{FilePath: "/backdrop-en.jpg", Iso6391: "en", VoteAverage: 8.0},
			},
		},
		ReleaseDates: &tmdb.ReleaseDatesResponse{
			Results: []tmdb.ReleaseDatesByRegion{
				{Iso31661: "US", ReleaseDates: []tmdb.ReleaseDate{
					{Certification: "R", ReleaseDate: "1999-03-31T00:00:00.000Z"},
					{Certification: "PG-13", ReleaseDate: "2001-01-01T00:00:00.000Z"},
				}},
			},
		},
		ExternalIDs: &tmdb.ExternalIDs{ImdbID: "tt0133093"},
	}
}

func testSeries(seasonCount int) (*tmdb.SeriesDetails, map[int]*tmdb.SeasonDetails) {
	series := &tmdb.SeriesDetails{
		ID:               1396,
		Name:             "Breaking Bad",
		OriginalName:     "Breaking Bad",
		OriginalLanguage: "en",
		Overview:         "A chemistry teacher turns to crime.",
		FirstAirDate:     "2008-01-20",
		VoteAverage:      8.9,
		VoteCount:        10000,
		Genres:           []tmdb.Genre{{ID: 18, Name: "Drama"}},
		ContentRatings: &tmdb.ContentRatingsResponse{
			Results: []tmdb.ContentRating{{Iso31661: "US", Rating: "TV-MA"}},
		},
	}

	seasons := make(map[int]*tmdb.SeasonDetails)
	for n := 1; n <= seasonCount; n++ {
		series.Seasons = append(series.Seasons, tmdb.SeasonSummary{SeasonNumber: n, EpisodeCount: 2})
		seasons[n] = &tmdb.SeasonDetails{
			Name:         fmt.Sprintf("Season %d", n),
			SeasonNumber: n,
			AirDate:      "2008-01-20",
			Episodes: []tmdb.EpisodeDetails{
				{Name: "Pilot", EpisodeNumber: 1, AirDate: "2008-01-20", VoteAverage: 8.5, Runtime: 58},
				{Name: "Cat's in the Bag...", EpisodeNumber: 2, AirDate: "2008-01-27", VoteAverage: 8.3},
			},
		}
	}
	return series, seasons
}

func newTestService(t *testing.T, fetcher Fetcher, hub EventBroadcaster) (*Service, *catalog.Store, *testutil.TestDB, int64) {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	store := catalog.NewStore(tdb.Conn, tdb.Logger)
	resolver := locale.NewResolver(nil, nil, "en-US")
	svc := NewService(store, fetcher, resolver, hub, tdb.Logger)
	userID := tdb.CreateUser(t, "alice")
	return svc, store, tdb, userID
}

func TestIngestTitle_Movie(t *testing.T) {
	hub := &fakeHub{}
	svc, store, tdb, userID := newTestService(t, &fakeFetcher{movie: testMovie()}, hub)
	defer tdb.Close()
	ctx := context.Background()

	title, err := svc.IngestTitle(ctx, userID, 603, catalog.MediaTypeMovie)
	if err != nil {
		t.Fatalf("IngestTitle() error = %v", err)
	}
	if title.ID == 0 {
		t.Fatal("title id unset")
	}
	if title.ImdbID == nil || *title.ImdbID != "tt0133093" {
		t.Errorf("ImdbID = %v", title.ImdbID)
	}
	if title.RuntimeMinutes == nil || *title.RuntimeMinutes != 136 {
		t.Errorf("RuntimeMinutes = %v", title.RuntimeMinutes)
	}

	tr, err := store.GetTitleTranslation(ctx, title.ID, "en")
	if err != nil {
		t.Fatalf("GetTitleTranslation() error = %v", err)
	}
	if tr.Name != "The Matrix" {
		t.Errorf("translation name = %q", tr.Name)
	}
	// Posters prefer the locale language even at a lower score; backdrops
	// prefer untagged.
	if tr.PosterPath == nil || *tr.PosterPath != "/poster-en.jpg" {
		t.Errorf("PosterPath = %v, want /poster-en.jpg", tr.PosterPath)
	}
	if tr.BackdropPath == nil || *tr.BackdropPath != "/backdrop-null.jpg" {
		t.Errorf("BackdropPath = %v, want /backdrop-null.jpg", tr.BackdropPath)
	}

	genres, err := store.ListGenres(ctx, title.ID)
	if err != nil {
		t.Fatalf("ListGenres() error = %v", err)
	}
	if len(genres) != 2 {
		t.Errorf("ListGenres() = %d genres, want 2", len(genres))
	}

	// Earliest-dated certification wins per country.
	ratings, err := store.ListAgeRatings(ctx, title.ID)
	if err != nil {
		t.Fatalf("ListAgeRatings() error = %v", err)
	}
	if len(ratings) != 1 || ratings[0].Rating != "R" {
		t.Errorf("ListAgeRatings() = %+v, want one R rating", ratings)
	}

	if len(hub.events) != 1 || hub.events[0] != "title:added" {
		t.Errorf("hub events = %v, want [title:added]", hub.events)
	}
}

func TestIngestTitle_MovieIdempotent(t *testing.T) {
	hub := &fakeHub{}
	svc, store, tdb, userID := newTestService(t, &fakeFetcher{movie: testMovie()}, hub)
	defer tdb.Close()
	ctx := context.Background()

	first, err := svc.IngestTitle(ctx, userID, 603, catalog.MediaTypeMovie)
	if err != nil {
		t.Fatalf("first IngestTitle() error = %v", err)
	}
	second, err := svc.IngestTitle(ctx, userID, 603, catalog.MediaTypeMovie)
	if err != nil {
		t.Fatalf("second IngestTitle() error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("re-ingest created a new title: %d != %d", second.ID, first.ID)
	}

	images, err := store.ListTitleImages(ctx, first.ID, catalog.ImagePoster)
	if err != nil {
		t.Fatalf("ListTitleImages() error = %v", err)
	}
	if len(images) != 2 {
		t.Errorf("posters after re-ingest = %d, want 2", len(images))
	}

	if len(hub.events) != 2 || hub.events[1] != "title:updated" {
		t.Errorf("hub events = %v, want [title:added title:updated]", hub.events)
	}
}

func TestIngestTitle_Series(t *testing.T) {
	series, seasons := testSeries(2)
	svc, store, tdb, userID := newTestService(t, &fakeFetcher{series: series, seasons: seasons}, nil)
	defer tdb.Close()
	ctx := context.Background()

	title, err := svc.IngestTitle(ctx, userID, 1396, catalog.MediaTypeSeries)
	if err != nil {
		t.Fatalf("IngestTitle() error = %v", err)
	}

	stored, err := store.ListSeasons(ctx, title.ID)
	if err != nil {
		t.Fatalf("ListSeasons() error = %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("ListSeasons() = %d seasons, want 2", len(stored))
	}

	episodes, err := store.ListEpisodes(ctx, stored[0].ID)
	if err != nil {
		t.Fatalf("ListEpisodes() error = %v", err)
	}
	if len(episodes) != 2 {
		t.Errorf("ListEpisodes() = %d episodes, want 2", len(episodes))
	}
	if episodes[0].RuntimeMinutes == nil || *episodes[0].RuntimeMinutes != 58 {
		t.Errorf("episode runtime = %v, want 58", episodes[0].RuntimeMinutes)
	}
}

func TestIngestTitle_SeriesSkipsFailedSeason(t *testing.T) {
	series, seasons := testSeries(2)
	fetcher := &fakeFetcher{
		series:     series,
		seasons:    seasons,
		seasonErrs: map[int]error{1: errors.New("upstream hiccup")},
	}
	svc, store, tdb, userID := newTestService(t, fetcher, nil)
	defer tdb.Close()
	ctx := context.Background()

	title, err := svc.IngestTitle(ctx, userID, 1396, catalog.MediaTypeSeries)
	if err != nil {
		t.Fatalf("IngestTitle() error = %v", err)
	}

	stored, err := store.ListSeasons(ctx, title.ID)
	if err != nil {
		t.Fatalf("ListSeasons() error = %v", err)
	}
	if len(stored) != 1 || stored[0].SeasonNumber != 2 {
		t.Errorf("ListSeasons() = %+v, want only season 2", stored)
	}
	if len(fetcher.seasonCalls) != 2 {
		t.Errorf("season fetches = %v, want both attempted", fetcher.seasonCalls)
	}
}

func TestIngestTitle_SeriesFetchFailureAborts(t *testing.T) {
	boom := errors.New("fetch failed")
	svc, _, tdb, userID := newTestService(t, &fakeFetcher{seriesErr: boom}, nil)
	defer tdb.Close()

	if _, err := svc.IngestTitle(context.Background(), userID, 1396, catalog.MediaTypeSeries); !errors.Is(err, boom) {
		t.Errorf("IngestTitle() error = %v, want fetch failure", err)
	}
}

func TestIngestTitle_UnsupportedMediaType(t *testing.T) {
	svc, _, tdb, userID := newTestService(t, &fakeFetcher{}, nil)
	defer tdb.Close()

	if _, err := svc.IngestTitle(context.Background(), userID, 603, "music"); !errors.Is(err, ErrUnsupportedMediaType) {
		t.Errorf("IngestTitle() error = %v, want ErrUnsupportedMediaType", err)
	}
}

func TestRefreshTitle(t *testing.T) {
	svc, _, tdb, userID := newTestService(t, &fakeFetcher{movie: testMovie()}, nil)
	defer tdb.Close()
	ctx := context.Background()

	title, err := svc.IngestTitle(ctx, userID, 603, catalog.MediaTypeMovie)
	if err != nil {
		t.Fatalf("IngestTitle() error = %v", err)
	}

	refreshed, err := svc.RefreshTitle(ctx, userID, title.ID)
	if err != nil {
		t.Fatalf("RefreshTitle() error = %v", err)
	}
	if refreshed.ID != title.ID {
		t.Errorf("RefreshTitle() id = %d, want %d", refreshed.ID, title.ID)
	}

	if _, err := svc.RefreshTitle(ctx, userID, 9999); !errors.Is(err, catalog.ErrTitleNotFound) {
		t.Errorf("unknown title error = %v, want ErrTitleNotFound", err)
	}
}
