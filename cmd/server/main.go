// @title Import Service API
// @version 1.0
// @description Internal API for staging, reviewing and committing supplier catalog imports.
// @BasePath /internal
// @securityDefinitions.apikey InternalApiKey
// @in header
// @name X-Internal-Api-Key
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/motorefacciones/import-service/config"
	_ "github.com/motorefacciones/import-service/docs"
	"github.com/motorefacciones/import-service/internal/database"
	"github.com/motorefacciones/import-service/internal/fetch"
	"github.com/motorefacciones/import-service/internal/handlers"
	"github.com/motorefacciones/import-service/internal/jobs"
	httpclient "github.com/motorefacciones/import-service/internal/http"
	"github.com/motorefacciones/import-service/internal/middleware"
	"github.com/motorefacciones/import-service/internal/pipeline"
	"github.com/motorefacciones/import-service/internal/storage"
	"github.com/motorefacciones/import-service/internal/sweepers"
	"github.com/motorefacciones/import-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting import service")

	ctx := context.Background()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		logger.Warn().Err(err).Msg("Telemetry disabled")
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}

	if err := database.Connect(
		ctx,
		dbURL,
		cfg.Database.MaxConnections,
		cfg.Database.MinConnections,
		cfg.Database.MaxConnLifetime,
		cfg.Database.MaxConnIdleTime,
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("Database connected")

	if cfg.Database.AutoMigrate {
		applied, err := database.Migrate(ctx, database.Pool())
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		logger.Info().Strs("applied", applied).Msg("Migrations up to date")
	}

	repo := database.NewDefaultRepository()

	released, err := repo.ReleaseInterruptedCommits(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to release interrupted commits")
	} else if len(released) > 0 {
		logger.Warn().Strs("batches", released).Msg("Released interrupted commits")
	}

	archive, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Warn().Err(err).Msg("Source archiving disabled")
		archive = nil
	}

	importer, err := buildImporter(ctx, cfg, repo, archive)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build importer")
	}

	var claimSweeper *sweepers.CommitClaimSweeper
	if cfg.Maintenance.SweepInterval > 0 && cfg.Maintenance.CommitClaimTTL > 0 {
		claimSweeper = sweepers.NewCommitClaimSweeper(repo, logger, cfg.Maintenance.SweepInterval, cfg.Maintenance.CommitClaimTTL)
		go claimSweeper.Start(ctx)
	}

	retention := jobs.NewRetentionManager(cfg.Maintenance.Retention, repo, archive, logger)
	retention.Start()

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(*logger))

	health := handlers.NewHealthHandler(repo)
	router.GET("/health", health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware(cfg.InternalAPIKey))
	internal.Use(middleware.ServiceRateLimitMiddleware(cfg.Server.RateLimit))
	{
		internal.GET("/health", health.Check)
		handlers.NewImportHandler(importer).Register(internal)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	if claimSweeper != nil {
		claimSweeper.Stop()
	}
	retention.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to flush telemetry")
	}

	logger.Info().Msg("Server exited")
}

// buildImporter wires the fetcher, archive and repository into the pipeline
func buildImporter(ctx context.Context, cfg *config.Config, repo *database.Repository, archive storage.Storage) (*pipeline.Importer, error) {
	fetchOpts := []fetch.Option{fetch.WithMaxBytes(cfg.Import.MaxDownloadBytes)}
	if cfg.Import.AllowLocalFiles {
		fetchOpts = append(fetchOpts, fetch.WithLocalFiles())
	}
	if cfg.Storage.Type == storage.StorageTypeS3 || cfg.Storage.S3.Bucket != "" {
		client, err := storage.NewS3Client(ctx, cfg.Storage.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 client: %w", err)
		}
		fetchOpts = append(fetchOpts, fetch.WithS3(client))
	}
	fetcher := fetch.NewFetcher(httpclient.NewClient(cfg.RateLimit), fetchOpts...)

	var options []pipeline.Option
	if archive != nil {
		options = append(options, pipeline.WithArchive(archive))
	}

	return pipeline.NewImporter(repo, repo, fetcher, cfg.Import.Options, options...), nil
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "import-service").Logger()
	zlog.Logger = logger
	return &logger
}
