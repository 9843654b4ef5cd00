package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/chatri/govportal/analytics"
	"github.com/chatri/govportal/content/application"
	"github.com/chatri/govportal/content/domain"
	"github.com/chatri/govportal/content/persistence"
	"github.com/chatri/govportal/internal/auth"
	"github.com/chatri/govportal/internal/blobstore"
	"github.com/chatri/govportal/internal/middleware"
	"github.com/chatri/govportal/internal/rest"
	"github.com/chatri/govportal/shared/config"
	"github.com/chatri/govportal/shared/db/sqlite"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	database := sqlite.NewSQLiteDB(sqlite.NewSQLiteConfig(cfg.Analytics.DBPath))
	if err := database.Connect(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to analytics database")
	}
	defer database.Close()

	events := analytics.NewEventRepository(database.DB())

	cutoff := time.Now().AddDate(0, 0, -cfg.Analytics.RetentionDays)
	if removed, err := events.Prune(context.Background(), cutoff); err != nil {
		log.Error().Err(err).Msg("Failed to prune read events")
	} else if removed > 0 {
		log.Info().Int64("removed", removed).Msg("Pruned read events past retention")
	}

	reads := analytics.NewReadLogger(events)
	defer func() {
		if err := reads.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close read logger")
		}
	}()

	blobs, err := blobstore.New(cfg.Storage.UploadsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize upload store")
	}

	news := application.NewService(domain.KindNews,
		persistence.NewFileRecordRepository(cfg.Storage.DataDir, domain.KindNews))
	announcements := application.NewService(domain.KindAnnouncement,
		persistence.NewFileRecordRepository(cfg.Storage.DataDir, domain.KindAnnouncement))

	gate := auth.NewGate(cfg.Admin.Username, cfg.Admin.Password)
	renderer := application.NewBodyRenderer(cfg.Server.BaseURL)

	handler := rest.NewHandler(news, announcements, reads, events, blobs, gate, renderer)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.CustomRecovery(middleware.HandlePanics()))
	handler.Register(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting portal server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to shutdown server")
	}

	log.Info().Msg("Server stopped")
}
