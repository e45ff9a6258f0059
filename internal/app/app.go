package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/GoArmGo/CampusEvents/internal/config"
	"github.com/GoArmGo/CampusEvents/internal/core/ports"
	"github.com/GoArmGo/CampusEvents/internal/messaging/payloads"
	"github.com/GoArmGo/CampusEvents/internal/usecase"
)

// Режимы запуска.
const (
	ModeServer = "server"
	ModeWorker = "worker"
)

type App struct {
	Config      *config.Config
	logger      *slog.Logger
	authUseCase usecase.AuthUseCase
	postUseCase usecase.PostUseCase
	health      func(ctx context.Context) error

	cleanupConsumer ports.ImageCleanupConsumer
	cleanupHandler  func(context.Context, payloads.ImageCleanupPayload) error

	closers []func() error
}

// Option дополняет App необязательными частями.
type Option func(*App)

// WithHealthCheck задаёт проверку хранилища для /healthz.
func WithHealthCheck(check func(ctx context.Context) error) Option {
	return func(a *App) { a.health = check }
}

// WithImageCleanupWorker задаёт очередь и обработчик для режима worker.
func WithImageCleanupWorker(consumer ports.ImageCleanupConsumer, handle func(context.Context, payloads.ImageCleanupPayload) error) Option {
	return func(a *App) {
		a.cleanupConsumer = consumer
		a.cleanupHandler = handle
	}
}

// WithCloser регистрирует ресурс, закрываемый при Shutdown (в обратном порядке).
func WithCloser(closer func() error) Option {
	return func(a *App) { a.closers = append(a.closers, closer) }
}

func NewApp(cfg *config.Config,
	logger *slog.Logger,
	authUseCase usecase.AuthUseCase,
	postUseCase usecase.PostUseCase,
	opts ...Option) *App {
	a := &App{
		Config:      cfg,
		logger:      logger,
		authUseCase: authUseCase,
		postUseCase: postUseCase,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// LoggerIns возвращает основной логгер приложения
func (a *App) LoggerIns() *slog.Logger {
	return a.logger
}

// Handler возвращает HTTP-обработчик API
func (a *App) Handler() http.Handler {
	return NewRouter(RouterDeps{
		Config:      a.Config,
		Logger:      a.logger,
		AuthUseCase: a.authUseCase,
		PostUseCase: a.postUseCase,
		Health:      a.health,
	})
}

func (a *App) Run(ctx context.Context, mode string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("starting", "mode", mode)

	var err error
	switch mode {
	case ModeServer:
		err = runServer(ctx, a.Config, a.Handler(), a.logger)
	case ModeWorker:
		err = runWorker(ctx, a.cleanupConsumer, a.cleanupHandler, a.logger)
	default:
		err = fmt.Errorf("неизвестный режим: %s (используйте 'server' или 'worker')", mode)
	}

	if closeErr := a.Shutdown(); closeErr != nil {
		a.logger.Error("shutdown failed", "error", closeErr)
	}
	return err
}

// Shutdown закрывает все ресурсы приложения
func (a *App) Shutdown() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("ошибка при завершении: %w", err)
	}
	a.logger.Info("resources released")
	return nil
}
