package ingest

import (
	"sort"
	"time"

	"github.com/reelvault/reelvault/internal/catalog"
	"github.com/reelvault/reelvault/internal/metadata/tmdb"
)

// movieToTitle maps a movie payload onto the catalog title shape.
func movieToTitle(m *tmdb.MovieDetails) *catalog.Title {
	t := &catalog.Title{
		TmdbID:           m.ID,
		MediaType:        catalog.MediaTypeMovie,
		OriginalTitle:    m.OriginalTitle,
		OriginalLanguage: strPtr(m.OriginalLanguage),
		OriginCountries:  m.OriginCountry,
		Homepage:         strPtr(m.Homepage),
		ReleaseDate:      parseAirDate(m.ReleaseDate),
		Status:           strPtr(m.Status),
		TmdbScore:        m.VoteAverage,
		TmdbVotes:        m.VoteCount,
		Popularity:       m.Popularity,
	}
	if m.Runtime > 0 {
		t.RuntimeMinutes = &m.Runtime
	}
	if m.Budget > 0 {
		t.Budget = &m.Budget
	}
	if m.Revenue > 0 {
		t.Revenue = &m.Revenue
	}
	if m.ExternalIDs != nil && m.ExternalIDs.ImdbID != "" {
		t.ImdbID = &m.ExternalIDs.ImdbID
	}
	return t
}

// seriesToTitle maps a series payload onto the catalog title shape.
func seriesToTitle(sd *tmdb.SeriesDetails) *catalog.Title {
	t := &catalog.Title{
		TmdbID:           sd.ID,
		MediaType:        catalog.MediaTypeSeries,
		OriginalTitle:    sd.OriginalName,
		OriginalLanguage: strPtr(sd.OriginalLanguage),
		OriginCountries:  sd.OriginCountry,
		Homepage:         strPtr(sd.Homepage),
		ReleaseDate:      parseAirDate(sd.FirstAirDate),
		Status:           strPtr(sd.Status),
		TmdbScore:        sd.VoteAverage,
		TmdbVotes:        sd.VoteCount,
		Popularity:       sd.Popularity,
	}
	if len(sd.EpisodeRunTime) > 0 && sd.EpisodeRunTime[0] > 0 {
		t.RuntimeMinutes = &sd.EpisodeRunTime[0]
	}
	if sd.ExternalIDs != nil && sd.ExternalIDs.ImdbID != "" {
		t.ImdbID = &sd.ExternalIDs.ImdbID
	}
	return t
}

// collectImages flattens an images payload into catalog rows, deduplicated
// by file path. The provider can list the same path under one category
// twice when language filters overlap.
func collectImages(images *tmdb.Images) []*catalog.Image {
	if images == nil {
		return nil
	}

	seen := make(map[string]bool)
	var out []*catalog.Image
	add := func(results []tmdb.ImageResult, category catalog.ImageCategory) {
		for _, r := range results {
			if r.FilePath == "" || seen[r.FilePath] {
				continue
			}
			seen[r.FilePath] = true
			out = append(out, &catalog.Image{
				FilePath:    r.FilePath,
				Category:    category,
				Language:    imageLang(r.Iso6391),
				Width:       r.Width,
				Height:      r.Height,
				VoteAverage: r.VoteAverage,
				VoteCount:   r.VoteCount,
			})
		}
	}

	add(images.Posters, catalog.ImagePoster)
	add(images.Backdrops, catalog.ImageBackdrop)
	add(images.Logos, catalog.ImageLogo)
	add(images.Stills, catalog.ImageStill)
	return out
}

func byCategory(images []*catalog.Image, category catalog.ImageCategory) []*catalog.Image {
	var out []*catalog.Image
	for _, img := range images {
		if img.Category == category {
			out = append(out, img)
		}
	}
	return out
}

// movieAgeRatings dedupes the provider's release list down to one
// certification per country, keeping the earliest dated entry that carries
// a certification.
func movieAgeRatings(rd *tmdb.ReleaseDatesResponse) map[string]string {
	if rd == nil {
		return nil
	}

	byCountry := make(map[string][]tmdb.ReleaseDate)
	for _, region := range rd.Results {
		for _, e := range region.ReleaseDates {
			if e.Certification != "" {
				byCountry[region.Iso31661] = append(byCountry[region.Iso31661], e)
			}
		}
	}

	out := make(map[string]string, len(byCountry))
	for country, entries := range byCountry {
		sort.SliceStable(entries, func(i, j int) bool {
			return releaseTime(entries[i]).Before(releaseTime(entries[j]))
		})
		out[country] = entries[0].Certification
	}
	return out
}

// seriesAgeRatings dedupes content ratings to one per country. Series
// entries carry no dates, so the first listed entry wins, matching the
// date-ordered policy used for movies as closely as the payload allows.
func seriesAgeRatings(cr *tmdb.ContentRatingsResponse) map[string]string {
	if cr == nil {
		return nil
	}
	out := make(map[string]string)
	for _, r := range cr.Results {
		if r.Rating == "" {
			continue
		}
		if _, ok := out[r.Iso31661]; !ok {
			out[r.Iso31661] = r.Rating
		}
	}
	return out
}

func releaseTime(e tmdb.ReleaseDate) time.Time {
	for _, format := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(format, e.ReleaseDate); err == nil {
			return t
		}
	}
	// Undated entries sort last.
	return time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
}

// parseAirDate parses provider date strings, which are empty for
// unannounced releases.
func parseAirDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, format := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(format, s); err == nil {
			return &t
		}
	}
	return nil
}

func imageLang(iso string) *string {
	if iso == "" || iso == "null" {
		return nil
	}
	return &iso
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
