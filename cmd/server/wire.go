//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
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
	gamerepo "github.com/nollidnosnhoj/ggpx/internal/infrastructure/repository/game"
	postrepo "github.com/nollidnosnhoj/ggpx/internal/infrastructure/repository/post"
	"github.com/nollidnosnhoj/ggpx/internal/infrastructure/storage"
	"github.com/nollidnosnhoj/ggpx/internal/interfaces/httpserver"
	"github.com/nollidnosnhoj/ggpx/internal/interfaces/httpserver/handlers"
)

var repositorySet = wire.NewSet(
	gamerepo.NewRepository,
	wire.Bind(new(game.Repository), new(*gamerepo.Repository)),
	postrepo.NewRepository,
	wire.Bind(new(post.Repository), new(*postrepo.Repository)),
	postrepo.NewUploadRepository,
	wire.Bind(new(post.UploadRepository), new(*postrepo.UploadRepository)),
	postrepo.NewUserRepository,
	wire.Bind(new(post.UserRepository), new(*postrepo.UserRepository)),
	wire.Bind(new(post.Transactor), new(*transaction.Database)),
)

var serviceSet = wire.NewSet(
	igdb.NewClientFromConfig,
	wire.Bind(new(game.Catalog), new(*igdb.Client)),
	game.NewService,
	wire.Bind(new(post.GameResolver), new(*game.Service)),
	wire.Bind(new(handlers.GameService), new(*game.Service)),
	storage.NewS3Storage,
	wire.Bind(new(post.Storage), new(*storage.S3Storage)),
	post.NewService,
	wire.Bind(new(handlers.PostService), new(*post.Service)),
	wire.Bind(new(crontab.Sweeper), new(*post.Service)),
)

// BuildApplication assembles the service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newTransactionDatabase,
		cache.New,
		newAuthValidator,
		repositorySet,
		serviceSet,
		newReadinessChecks,
		newSweepLocker,
		httpserver.New,
		crontab.NewCrontab,
		NewApplication,
	)
	return nil, nil
}

func newTransactionDatabase(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*transaction.Database, error) {
	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db, log); err != nil {
		return nil, err
	}
	return transaction.NewDatabase(db), nil
}

func newAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

func newReadinessChecks(db *transaction.Database, objectStorage *storage.S3Storage) map[string]httpserver.ReadinessCheck {
	return map[string]httpserver.ReadinessCheck{
		"database": db.Ping,
		"storage":  objectStorage.Health,
	}
}

func newSweepLocker(store cache.Store) crontab.Locker {
	if redisCache, ok := store.(*cache.RedisCache); ok {
		return redisCache
	}
	return nil
}
