package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/CampusEvents/internal/adapter/imagesource"
	"github.com/GoArmGo/CampusEvents/internal/adapter/storage/minio"
	"github.com/GoArmGo/CampusEvents/internal/app"
	"github.com/GoArmGo/CampusEvents/internal/auth"
	"github.com/GoArmGo/CampusEvents/internal/config"
	"github.com/GoArmGo/CampusEvents/internal/core/ports"
	"github.com/GoArmGo/CampusEvents/internal/database/client"
	"github.com/GoArmGo/CampusEvents/internal/database/memory"
	"github.com/GoArmGo/CampusEvents/internal/database/postgres"
	"github.com/GoArmGo/CampusEvents/internal/database/storage"
	"github.com/GoArmGo/CampusEvents/internal/logger"
	"github.com/GoArmGo/CampusEvents/internal/rabbitmq"
	"github.com/GoArmGo/CampusEvents/internal/usecase"
)

// storages — выбранная реализация хранилищ и её ресурсы.
type storages struct {
	users   ports.UserStorage
	posts   ports.PostStorage
	health  func(ctx context.Context) error
	closers []func() error
}

// BuildApp инициализирует все зависимости и возвращает готовый объект App.
func BuildApp(ctx context.Context) (*app.App, error) {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	slogger := NewLogger(cfg)
	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)

	opts := []app.Option{}
	fail := func(err error) (*app.App, error) {
		// закрываем уже открытые ресурсы
		_ = app.NewApp(cfg, slogger, nil, nil, opts...).Shutdown()
		return nil, err
	}

	// 2. Хранилища
	st, err := buildStorages(cfg, slogger)
	if err != nil {
		return nil, err
	}
	for _, c := range st.closers {
		opts = append(opts, app.WithCloser(c))
	}
	if st.health != nil {
		opts = append(opts, app.WithHealthCheck(st.health))
	}

	// 3. Хостинг изображений (необязателен)
	var (
		files   ports.FileStorage
		images  ports.ImageSource
		cleanup ports.ImageCleanupPublisher
	)
	if cfg.ImagesEnabled() {
		minioClient, err := minio.NewMinioClient(ctx, cfg, slogger)
		if err != nil {
			return fail(err)
		}
		files = minioClient
		images = imagesource.NewLoader(cfg, slogger)
	} else {
		slogger.Warn("MINIO_ENDPOINT is not set, image uploads are disabled")
	}

	// 4. Очередь удаления изображений
	if cfg.RabbitMQ.RabbitMQURL != "" {
		rabbitMQClient, err := rabbitmq.NewClient(cfg, slogger)
		if err != nil {
			return fail(err)
		}
		opts = append(opts, app.WithCloser(rabbitMQClient.Close))
		if files != nil {
			cleanup = rabbitMQClient
			opts = append(opts, app.WithImageCleanupWorker(rabbitMQClient, usecase.NewImageCleanupHandler(files, slogger)))
		}
	} else if files != nil {
		cleanup = usecase.NewInlineImageCleaner(files, slogger)
	}

	// 5. Бизнес-логика
	hasher := auth.NewPasswordHasher(auth.DefaultArgon2Params)
	tokens := auth.NewTokenManager(cfg.AccessTokenSecret, cfg.TokenTTL, cfg.TokenIssuer)

	authUseCase, err := usecase.NewAuthUseCase(st.users, hasher, tokens, slogger)
	if err != nil {
		return fail(err)
	}
	postUseCase := usecase.NewPostUseCase(st.posts, images, files, cleanup, slogger)

	// 6. Сборка итогового приложения
	application := app.NewApp(cfg, slogger, authUseCase, postUseCase, opts...)

	slogger.Info("dependencies initialized",
		"storage_driver", cfg.StorageDriver,
		"images_enabled", files != nil,
		"queue_enabled", cfg.RabbitMQ.RabbitMQURL != "",
	)
	return application, nil
}

// NewLogger создаёт логгер по настройкам конфигурации
func NewLogger(cfg *config.Config) *slog.Logger {
	return logger.NewSlog(logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
}

func buildStorages(cfg *config.Config, slogger *slog.Logger) (*storages, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		slogger.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &storages{users: store, posts: store}, nil

	case config.StorageDriverGorm:
		if cfg.AutoMigrate {
			if err := client.ApplyMigrations(cfg.DatabaseURL, slogger); err != nil {
				return nil, err
			}
		}
		db, err := postgres.OpenGorm(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			_ = postgres.CloseGorm(db)
			return nil, fmt.Errorf("ошибка получения пула GORM: %w", err)
		}
		return &storages{
			users:   postgres.NewGormUserStorage(db, slogger),
			posts:   postgres.NewGormPostStorage(db, slogger),
			health:  sqlDB.PingContext,
			closers: []func() error{func() error { return postgres.CloseGorm(db) }},
		}, nil

	default:
		dbClient, err := client.NewClient(cfg, slogger)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := client.ApplyMigrations(cfg.DatabaseURL, slogger); err != nil {
				_ = dbClient.Close()
				return nil, err
			}
		}
		return &storages{
			users:   storage.NewUserStorage(dbClient.DB, slogger),
			posts:   storage.NewPostgresStorage(dbClient.DB, slogger),
			health:  dbClient.Ping,
			closers: []func() error{dbClient.Close},
		}, nil
	}
}
