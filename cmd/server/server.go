package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"github.com/artsyhq/mediastream/internal/config"
	domain "github.com/artsyhq/mediastream/internal/domain/media"
	"github.com/artsyhq/mediastream/internal/infrastructure/database"
	"github.com/artsyhq/mediastream/internal/infrastructure/logger"
	"github.com/artsyhq/mediastream/internal/infrastructure/observability"
	repo "github.com/artsyhq/mediastream/internal/infrastructure/repository/media"
	"github.com/artsyhq/mediastream/internal/infrastructure/storage"
	"github.com/artsyhq/mediastream/internal/interfaces/httpserver"
)

// Application bundles the long-running pieces of the service.
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseDSN,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	store, err := provideStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize storage")
	}

	mediaRepository := repo.NewRepository(db)
	transcoder := domain.NewFFmpegTranscoder(cfg.FFmpegPath, cfg.WorkDir, cfg.HLSSegmentSeconds, log)
	photoProcessor := domain.NewImageProcessor(cfg.WorkDir, cfg.PhotoMaxWidth, cfg.PhotoMaxHeight, cfg.PhotoQuality, log)
	mediaService := domain.NewService(cfg, store, mediaRepository, transcoder, photoProcessor, log)

	httpServer := httpserver.New(cfg, log, mediaService)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

// provideStore selects the storage backend and wraps it with the retry policy.
func provideStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (domain.ObjectStore, error) {
	var inner domain.ObjectStore
	if cfg.IsLocalStorage() {
		localStore, err := storage.NewLocalStore(cfg, log)
		if err != nil {
			return nil, err
		}
		inner = localStore
	} else {
		s3Store, err := storage.NewS3Store(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		inner = s3Store
	}
	return storage.NewRetryingStore(inner, cfg), nil
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
