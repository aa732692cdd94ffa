package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"xlink-ingest/config"
	"xlink-ingest/models"
	"xlink-ingest/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	uploadsCompleted    prometheus.Counter
	uploadsFailed       prometheus.Counter
	matchesWritten      prometheus.Counter
	warningsAccumulated prometheus.Counter
)

func init() {
	uploadsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "uploads_completed_total",
			Help: "Total number of identification files ingested.",
		},
	)
	uploadsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "uploads_failed_total",
			Help: "Total number of ingestions that ended in a fatal error.",
		},
	)
	matchesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "matches_written_total",
			Help: "Total number of spectrum identification rows persisted.",
		},
	)
	warningsAccumulated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "upload_warnings_total",
			Help: "Total number of warnings recorded across uploads.",
		},
	)
	prometheus.MustRegister(uploadsCompleted, uploadsFailed, matchesWritten, warningsAccumulated)
}

// recordIngestMetrics folds one finished ingestion into the counters. Partial
// results of a failed upload still count their matches and warnings.
func recordIngestMetrics(res services.IngestResult) {
	if res.Err != nil {
		uploadsFailed.Inc()
	} else {
		uploadsCompleted.Inc()
	}
	matchesWritten.Add(float64(res.Matches))
	warningsAccumulated.Add(float64(res.Warnings))
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to results database.")

	logging.Info("Running database auto-migration...")
	db.AutoMigrate(
		&models.Upload{},
		&models.DBSequence{},
		&models.ModifiedPeptide{},
		&models.PeptideEvidence{},
		&models.Spectrum{},
		&models.SpectrumIdentification{},
		&models.SpectrumIdentificationProtocol{},
		&models.Enzyme{},
		&models.SearchModification{},
		&models.AnalysisCollection{},
	)

	ingestService := services.NewIngestService(cfg, db, logging)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	setupIngestRoutes(router, ingestService, logging)

	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled staging sweep...")
		count, err := ingestService.SweepStaging(context.Background(), recordIngestMetrics)
		if err != nil {
			logging.Error("Staging sweep failed", zap.Error(err))
		} else {
			logging.Info("Staging sweep completed", zap.Int("ingested", count))
		}
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func setupIngestRoutes(router *gin.Engine, ingestService *services.IngestService, log *zap.Logger) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "xlink-ingest"})
	})

	router.POST("/ingest", func(c *gin.Context) {
		var req struct {
			Path             string `json:"path" binding:"required"`
			UserID           string `json:"user_id"`
			ProjectAccession string `json:"project_accession"`
			CSVVariant       string `json:"csv_variant"`
			FastaPath        string `json:"fasta_path"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. 'path' field is required."})
			return
		}

		ingestService.IngestAsync(services.IngestRequest{
			Path:             req.Path,
			UserID:           req.UserID,
			ProjectAccession: req.ProjectAccession,
			CSVVariant:       req.CSVVariant,
			FastaPath:        req.FastaPath,
		}, func(res services.IngestResult) {
			recordIngestMetrics(res)
			if res.Err != nil {
				log.Error("Async ingestion failed",
					zap.String("path", req.Path),
					zap.String("upload_id", res.UploadID.String()),
					zap.Error(res.Err))
			} else {
				log.Info("Async ingestion completed",
					zap.String("path", req.Path),
					zap.String("upload_id", res.UploadID.String()),
					zap.Int("matches", res.Matches),
					zap.Int("warnings", res.Warnings))
			}
		})
		c.JSON(http.StatusAccepted, gin.H{"message": "Ingestion triggered.", "path": req.Path})
	})
}
