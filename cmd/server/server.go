package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nollidnosnhoj/ggpx/internal/config"
	"github.com/nollidnosnhoj/ggpx/internal/domain/game"
	"github.com/nollidnosnhoj/ggpx/internal/domain/post"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/auth"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/cache"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/crontab"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/database"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/database/transaction"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/igdb"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/logger"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/observability"
	gamerepo "github.com/nollidnosnhoj/ggpx/internal/infrastructure/repository/game"
	postrepo "github.com/nollidnosnhoj/ggpx/internal/infrastructure/repository/post"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/storage"
	"github.com/nollidnosnhoj/ggpx/internal/interfaces/httpserver"
)

type Application struct {
	httpServer *httpserver.HttpServer
	crontab    *crontab.Crontab
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, crontab *crontab.Crontab, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		crontab:    crontab,
		log:        log,
	}
}

// Start runs the HTTP server and background jobs until ctx is cancelled or
// one of them fails.
func (a *Application) Start(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.httpServer.Run(groupCtx)
	})
	group.Go(func() error {
		return a.crontab.Run(groupCtx)
	})
	return group.Wait()
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
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	if err := database.Migrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}
	txDB := transaction.NewDatabase(db)

	store, err := cache.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize cache")
	}

	objectStorage, err := storage.NewS3Storage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize storage")
	}

	catalog, err := igdb.NewClientFromConfig(cfg, store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize catalog client")
	}

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	gameRepository := gamerepo.NewRepository(txDB)
	gameService := game.NewService(gameRepository, catalog, log)
	postService := post.NewService(
		cfg,
		txDB,
		postrepo.NewRepository(txDB),
		postrepo.NewUploadRepository(txDB),
		postrepo.NewUserRepository(txDB),
		gameService,
		gameRepository,
		objectStorage,
		log,
	)

	checks := map[string]httpserver.ReadinessCheck{
		"database": txDB.Ping,
		"storage":  objectStorage.Health,
	}
	var locker crontab.Locker
	if redisCache, ok := store.(*cache.RedisCache); ok {
		checks["cache"] = redisCache.HealthCheck
		locker = redisCache
		defer func() {
			if err := redisCache.Close(); err != nil {
				log.Error().Err(err).Msg("close redis cache")
			}
		}()
	}

	httpServer := httpserver.New(cfg, log, postService, gameService, authValidator, checks)
	app := NewApplication(httpServer, crontab.NewCrontab(cfg, postService, locker, log), log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
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
