// Package assets picks the single best image per asset category from a set
// of locale-tagged candidates.
package assets

import (
	"github.com/reelvault/reelvault/internal/catalog"
	"github.com/reelvault/reelvault/internal/locale"
)

// Preference returns the language order used to select one category of
// asset. Backdrops try untagged images first since they are typically
// textless; every other category prefers local languages.
func Preference(category catalog.ImageCategory, ctx locale.Context) []string {
	if category == catalog.ImageBackdrop {
		return ctx.BackdropPreference()
	}
	return ctx.PosterPreference()
}

// SelectBest returns the best candidate for one asset category, or nil when
// no preference entry matches any candidate.
//
// The preference list is walked in order; the first language with at least
// one matching candidate wins. locale.None matches only candidates with no
// language tag, never as a wildcard. Within the matched subset the highest
// vote average wins; equal scores fall back to the smallest file path so the
// choice does not depend on provider ordering.
func SelectBest(candidates []*catalog.Image, preference []string) *catalog.Image {
	if len(candidates) == 0 {
		return nil
	}

	for _, lang := range preference {
		var best *catalog.Image
		for _, c := range candidates {
			if !matches(c, lang) {
				continue
			}
			if best == nil || c.VoteAverage > best.VoteAverage ||
				(c.VoteAverage == best.VoteAverage && c.FilePath < best.FilePath) {
				best = c
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}

// SelectBestPath is SelectBest returning just the file path, nil when no
// candidate matched.
func SelectBestPath(candidates []*catalog.Image, preference []string) *string {
	best := SelectBest(candidates, preference)
	if best == nil {
		return nil
	}
	return &best.FilePath
}

func matches(img *catalog.Image, lang string) bool {
	if lang == locale.None {
		return img.Language == nil || *img.Language == ""
	}
	return img.Language != nil && *img.Language == lang
}
