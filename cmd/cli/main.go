package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/motorefacciones/import-service/config"
	"github.com/motorefacciones/import-service/internal/database"
	"github.com/motorefacciones/import-service/internal/fetch"
	httpclient "github.com/motorefacciones/import-service/internal/http"
	"github.com/motorefacciones/import-service/internal/pipeline"
	"github.com/motorefacciones/import-service/internal/storage"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "import-service",
	Short: "Import Service CLI - supplier catalog import tool",
	Long: `A CLI tool for staging, previewing and committing supplier price lists
into the product catalog. Supports the Motos y Equipos CSV export and the
MRM XLSX price list.`,
	PersistentPreRunE: persistentPreRun,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml or ./config.yaml)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		// Config is optional for some commands, don't fail here
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
	}
}

// persistentPreRun runs before each command and initializes dependencies
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	logger = initLogger()

	if cmd.Annotations["db"] == "true" {
		if cfg == nil {
			return fmt.Errorf("config required for %s command but not loaded", cmd.Name())
		}
		if err := initDatabase(); err != nil {
			return fmt.Errorf("database initialization failed: %w", err)
		}
		logger.Debug().Msg("Database connected")
	}

	return nil
}

func initLogger() *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if cfg != nil && cfg.Logging.Level != "" {
		if parsedLevel, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			level = parsedLevel
		}
	}

	// Console output unless json is asked for explicitly
	var output io.Writer
	if cfg != nil && cfg.Logging.Format == "json" {
		output = os.Stderr
	} else {
		noColor := false
		if cfg != nil {
			noColor = cfg.Logging.NoColor
		}
		output = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: noColor}
	}

	log := zerolog.New(output).Level(level).With().Timestamp().Logger()
	zlog.Logger = log
	return &log
}

func initDatabase() error {
	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}

	ctx := context.Background()
	if err := database.Connect(
		ctx,
		dbURL,
		cfg.Database.MaxConnections,
		cfg.Database.MinConnections,
		cfg.Database.MaxConnLifetime,
		cfg.Database.MaxConnIdleTime,
	); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	return nil
}

// newImporter builds an importer over the shared pool.
// The CLI always accepts local paths as source URLs.
func newImporter(ctx context.Context) (*pipeline.Importer, error) {
	fetchOpts := []fetch.Option{
		fetch.WithLocalFiles(),
		fetch.WithMaxBytes(cfg.Import.MaxDownloadBytes),
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
	if archive, err := storage.New(ctx, cfg.Storage); err != nil {
		logger.Warn().Err(err).Msg("Source archiving disabled")
	} else {
		options = append(options, pipeline.WithArchive(archive))
	}

	repo := database.NewDefaultRepository()
	return pipeline.NewImporter(repo, repo, fetcher, cfg.Import.Options, options...), nil
}

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
