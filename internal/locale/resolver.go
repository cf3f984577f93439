// Package locale resolves the effective display locale and the ordered
// language-preference list used for translation and image matching.
package locale

import (
	"context"
	"strings"
)

// None is the "no language tag" sentinel in preference lists. It matches
// only candidates that carry no language tag at all.
const None = ""

// Context is a resolved locale chain for one user (optionally scoped to one
// title). Locale is a full language-TERRITORY code; Languages holds the
// deduplicated bare language codes in preference order, sentinel excluded.
type Context struct {
	Locale    string
	Languages []string
}

// Language returns the bare language code of the display locale.
func (c Context) Language() string {
	return Split(c.Locale)
}

// ImageLanguages returns the language list to pass to the external catalog
// fetcher, ending with the provider's "null" marker for untagged images.
func (c Context) ImageLanguages() []string {
	out := make([]string, 0, len(c.Languages)+1)
	out = append(out, c.Languages...)
	return append(out, "null")
}

// PosterPreference orders poster and logo selection: local languages first,
// untagged images as the final fallback.
func (c Context) PosterPreference() []string {
	out := make([]string, 0, len(c.Languages)+1)
	out = append(out, c.Languages...)
	return append(out, None)
}

// BackdropPreference orders backdrop selection: untagged images first since
// backdrops are typically textless, then local languages.
func (c Context) BackdropPreference() []string {
	out := make([]string, 0, len(c.Languages)+1)
	out = append(out, None)
	return append(out, c.Languages...)
}

// Split returns the bare language code of a language-TERRITORY locale.
func Split(locale string) string {
	lang, _, _ := strings.Cut(locale, "-")
	return lang
}

// Valid reports whether a locale string is usable: a non-empty language
// subtag, optionally followed by a territory.
func Valid(locale string) bool {
	lang, territory, found := strings.Cut(locale, "-")
	if lang == "" {
		return false
	}
	if found && territory == "" {
		return false
	}
	return true
}

// BuildContext derives a locale context from a per-title override, the
// user's ordered locale list, and the system default, in that precedence.
// It is pure; the Resolver supplies the inputs from stored state.
func BuildContext(override string, userLocales []string, systemDefault string) Context {
	display := ""
	if override != "" {
		display = override
	} else if len(userLocales) > 0 && userLocales[0] != "" {
		display = userLocales[0]
	}
	if display == "" {
		display = systemDefault
	}

	seen := make(map[string]bool)
	var languages []string
	add := func(locale string) {
		lang := Split(locale)
		if lang == "" || seen[lang] {
			return
		}
		seen[lang] = true
		languages = append(languages, lang)
	}

	if override != "" {
		add(override)
	}
	for _, l := range userLocales {
		add(l)
	}
	add(systemDefault)

	return Context{Locale: display, Languages: languages}
}

// SettingsSource supplies a user's ordered locale preference list.
type SettingsSource interface {
	Locales(ctx context.Context, userID int64) ([]string, error)
}

// OverrideSource supplies a user's per-title locale override, empty when the
// user has not chosen one.
type OverrideSource interface {
	ChosenLocale(ctx context.Context, userID, titleID int64) (string, error)
}

// Resolver resolves locale contexts from stored user state. It is read-only
// and never fails: missing settings or lookup errors fall back to the system
// default.
type Resolver struct {
	overrides     OverrideSource
	settings      SettingsSource
	systemDefault string
}

// NewResolver creates a resolver. The system default locale is fixed at
// construction by the boundary layer.
func NewResolver(overrides OverrideSource, settings SettingsSource, systemDefault string) *Resolver {
	return &Resolver{
		overrides:     overrides,
		settings:      settings,
		systemDefault: systemDefault,
	}
}

// ResolveForUser resolves the context for a title not yet in the catalog,
// where no per-title override can exist.
func (r *Resolver) ResolveForUser(ctx context.Context, userID int64) Context {
	return BuildContext("", r.userLocales(ctx, userID), r.systemDefault)
}

// ResolveForTitle resolves the context for an existing title, honoring the
// user's per-title locale override first.
func (r *Resolver) ResolveForTitle(ctx context.Context, userID, titleID int64) Context {
	override := ""
	if r.overrides != nil {
		if chosen, err := r.overrides.ChosenLocale(ctx, userID, titleID); err == nil {
			override = chosen
		}
	}
	return BuildContext(override, r.userLocales(ctx, userID), r.systemDefault)
}

func (r *Resolver) userLocales(ctx context.Context, userID int64) []string {
	if r.settings == nil {
		return nil
	}
	locales, err := r.settings.Locales(ctx, userID)
	if err != nil {
		return nil
	}
	return locales
}
