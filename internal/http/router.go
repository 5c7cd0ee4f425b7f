package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/Harshthakur24/Env-Dashboard/internal/config"
	"github.com/Harshthakur24/Env-Dashboard/internal/db"
	"github.com/Harshthakur24/Env-Dashboard/internal/geocode"
	"github.com/Harshthakur24/Env-Dashboard/internal/http/handlers"
	"github.com/Harshthakur24/Env-Dashboard/internal/http/middleware"
	"github.com/Harshthakur24/Env-Dashboard/internal/service"

	_ "github.com/Harshthakur24/Env-Dashboard/docs"
)

func Router(cfg config.Config, store *db.Store, ingestion *service.IngestionService, geocoder geocode.Geocoder, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:          store,
		Ingestion:      ingestion,
		Geocoder:       geocoder,
		Validator:      validator.New(),
		Logger:         logger,
		AdminKey:       cfg.AdminKey,
		CountryDefault: cfg.CountryDefault,
		MaxUploadBytes: cfg.MaxUploadSizeMB << 20,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/ingestion", h.RowsList)
		api.GET("/history", h.HistoryList)
		api.GET("/history/:id/rows", h.HistoryRows)
		api.GET("/alerts", h.Alerts)
		api.GET("/locations", h.LocationsList)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/ingestion", h.IngestWorkbook)
		admin.PATCH("/ingestion/:id", h.RowUpdate)
		admin.PATCH("/history/:id", h.HistoryUpdate)
		admin.DELETE("/history/:id", h.HistoryDelete)
		admin.POST("/locations/regeocode", h.RegeocodeLocations)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
