package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/reelvault/reelvault/internal/auth"
	"github.com/reelvault/reelvault/internal/calendar"
	"github.com/reelvault/reelvault/internal/catalog"
	"github.com/reelvault/reelvault/internal/config"
	"github.com/reelvault/reelvault/internal/library/ingest"
	"github.com/reelvault/reelvault/internal/library/overlay"
	"github.com/reelvault/reelvault/internal/library/search"
	"github.com/reelvault/reelvault/internal/locale"
	"github.com/reelvault/reelvault/internal/metadata/tmdb"
	"github.com/reelvault/reelvault/internal/preferences"
	"github.com/reelvault/reelvault/internal/scheduler"
	"github.com/reelvault/reelvault/internal/websocket"
)

// Server handles HTTP requests for the ReelVault API.
type Server struct {
	echo   *echo.Echo
	db     *sql.DB
	hub    *websocket.Hub
	logger zerolog.Logger
	cfg    *config.Config

	// Services
	store           *catalog.Store
	tmdbClient      *tmdb.Client
	resolver        *locale.Resolver
	prefsService    *preferences.Service
	overlayService  *overlay.Service
	ingestService   *ingest.Service
	searchService   *search.Service
	calendarService *calendar.Service
	authService     *auth.Service
	scheduler       *scheduler.Scheduler

	startTime time.Time
}

// NewServer creates a new API server instance.
func NewServer(db *sql.DB, hub *websocket.Hub, cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		db:        db,
		hub:       hub,
		logger:    logger,
		cfg:       cfg,
		startTime: time.Now(),
	}

	// Initialize services
	s.store = catalog.NewStore(db, logger)
	s.tmdbClient = tmdb.NewClient(tmdb.Config{APIKey: cfg.Catalog.TMDBAPIKey}, logger)
	s.prefsService = preferences.NewService(db, logger)
	s.overlayService = overlay.NewService(db, s.store, logger)
	s.resolver = locale.NewResolver(s.overlayService, s.prefsService, cfg.Catalog.DefaultLocale)
	s.ingestService = ingest.NewService(s.store, s.tmdbClient, s.resolver, hub, logger)
	s.searchService = search.NewService(db, s.store, s.resolver, s.prefsService, search.Config{
		DefaultPageSize: cfg.Search.DefaultPageSize,
		MaxPageSize:     cfg.Search.MaxPageSize,
	}, logger)
	s.calendarService = calendar.NewService(db, s.resolver, logger)
	authService, err := auth.NewService(db, cfg.Auth.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}
	s.authService = authService

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// IngestService returns the ingestion service for background task wiring.
func (s *Server) IngestService() *ingest.Service {
	return s.ingestService
}

// Store returns the catalog store for background task wiring.
func (s *Server) Store() *catalog.Store {
	return s.store
}

// AttachScheduler exposes the background scheduler through the tasks API.
// Called once at startup, after task registration.
func (s *Server) AttachScheduler(sched *scheduler.Scheduler) {
	s.scheduler = sched
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID
	s.echo.Use(middleware.RequestID())

	// CORS
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// Request logging
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Info().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	// Gzip compression
	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			// Skip compression for WebSocket
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", s.healthCheck)

	// API v1 group
	api := s.echo.Group("/api/v1")

	// Auth routes (no token required)
	authGroup := api.Group("/auth")
	authGroup.POST("/login", s.login)

	// Everything below requires a valid token
	protected := api.Group("", s.requireAuth)

	protected.GET("/status", s.getStatus)

	// Catalog routes
	titles := protected.Group("/titles")
	titles.POST("", s.addTitle)
	titles.GET("/:id", s.getTitle)
	titles.DELETE("/:id", s.removeTitle)
	titles.POST("/:id/refresh", s.refreshTitle)
	titles.PATCH("/:id/flags", s.patchTitleFlags)
	titles.GET("/:id/similar", s.similarTitles)

	protected.POST("/seasons/:id/watched", s.markSeasonWatched)
	protected.POST("/episodes/:id/watched", s.markEpisodeWatched)

	// Search routes
	protected.POST("/search", s.searchTitles)

	// Release calendar
	protected.GET("/calendar", s.getCalendar)

	// Settings routes
	settings := protected.Group("/settings")
	settings.GET("", s.getSettings)
	settings.PUT("/:key", s.updateSetting)

	// Metadata provider routes
	protected.GET("/metadata/search", s.searchMetadata)

	// Background task routes
	tasksGroup := protected.Group("/tasks")
	tasksGroup.GET("", s.listTasks)
	tasksGroup.POST("/:id/run", s.runTask)

	// WebSocket endpoint
	protected.GET("/ws", s.handleWebSocket)
}

// Start begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"version":   config.Version,
		"startTime": s.startTime.Format(time.RFC3339),
		"clients":   s.hub.ClientCount(),
	})
}

func (s *Server) handleWebSocket(c echo.Context) error {
	return s.hub.HandleWebSocket(c)
}
