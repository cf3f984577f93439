package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/reelvault/reelvault/internal/api"
	"github.com/reelvault/reelvault/internal/config"
	"github.com/reelvault/reelvault/internal/database"
	"github.com/reelvault/reelvault/internal/logger"
	"github.com/reelvault/reelvault/internal/scheduler"
	"github.com/reelvault/reelvault/internal/scheduler/tasks"
	"github.com/reelvault/reelvault/internal/websocket"
)

func main() {
	// A missing .env file is fine; environment variables still apply.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Msg("starting ReelVault")

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	log.Info().Msg("running database migrations")
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	hub := websocket.NewHub(log.Logger)
	go hub.Run()

	server, err := api.NewServer(db.Conn(), hub, cfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create API server")
	}

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}
	maxAge := time.Duration(cfg.Catalog.RefreshAfterDays) * 24 * time.Hour
	if err := tasks.RegisterMetadataRefreshTask(sched, server.Store(), server.IngestService(), cfg.Catalog.RefreshCron, maxAge, log.Logger); err != nil {
		log.Error().Err(err).Msg("failed to register metadata refresh task")
	}
	if err := sched.Start(); err != nil {
		log.Error().Err(err).Msg("failed to start scheduler")
	}
	server.AttachScheduler(sched)

	go func() {
		addr := cfg.Server.Address()
		if err := server.Start(addr); err != nil {
			log.Info().Msg("server stopped")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown error")
	}
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
}
