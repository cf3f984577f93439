package config

// Version is the application version, injected at build time via ldflags.
var Version = "dev"

// EmbeddedTMDBKey is an API key injected at build time via ldflags. It
// serves as a default and can be overridden by environment variables or
// the config file.
//
// Build with:
//   go build -ldflags "-X 'github.com/reelvault/reelvault/internal/config.EmbeddedTMDBKey=xxx'"
var EmbeddedTMDBKey string
