package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Harshthakur24/Env-Dashboard/internal/config"
	"github.com/Harshthakur24/Env-Dashboard/internal/db"
	"github.com/Harshthakur24/Env-Dashboard/internal/geocode"
	httpapi "github.com/Harshthakur24/Env-Dashboard/internal/http"
	"github.com/Harshthakur24/Env-Dashboard/internal/ingest"
	"github.com/Harshthakur24/Env-Dashboard/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "env-dashboard").Logger()

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	ingestion := &service.IngestionService{
		Store:     store,
		Parser:    ingest.NewParser(ingest.DefaultSchema()),
		BatchSize: cfg.UpsertBatchSize,
		Logger:    logger,
	}

	geocoder := &geocode.NominatimGeocoder{BaseURL: cfg.GeocoderURL}

	router := httpapi.Router(cfg, store, ingestion, geocoder, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
