package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/GoArmGo/CampusEvents/internal/config"
	"github.com/GoArmGo/CampusEvents/internal/handler"
	"github.com/GoArmGo/CampusEvents/internal/metrics"
	"github.com/GoArmGo/CampusEvents/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterDeps — зависимости HTTP-слоя.
type RouterDeps struct {
	Config      *config.Config
	Logger      *slog.Logger
	AuthUseCase usecase.AuthUseCase
	PostUseCase usecase.PostUseCase

	// Health проверяет доступность хранилища; nil — проверять нечего.
	Health func(ctx context.Context) error
}

// NewRouter собирает маршруты API.
func NewRouter(d RouterDeps) http.Handler {
	cfg := d.Config
	authHandler := handler.NewAuthHandler(d.AuthUseCase, cfg.MaxBodyBytes, d.Logger)
	postHandler := handler.NewPostHandler(d.PostUseCase, cfg.MaxBodyBytes, d.Logger)

	requireAuth := handler.Authenticate(d.AuthUseCase, d.Logger)
	authLimit := handler.RateLimit(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst, cfg.TrustedProxies(), d.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(handler.RequestLogger(d.Logger))
	r.Use(metrics.HTTPMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(handler.CORS(cfg.CORSAllowedOrigins, d.Logger))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/healthz", healthHandler(d.Health, d.Logger))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.With(authLimit).Post("/local/register", authHandler.Register)
		r.With(authLimit).Post("/local", authHandler.Login)
		r.With(requireAuth).Get("/users/me", authHandler.Me)
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", postHandler.List)
		r.Get("/count", postHandler.Count)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", postHandler.ListMine)
			r.Post("/", postHandler.Create)
			r.Post("/upload", postHandler.Upload)
			r.Put("/{id}", postHandler.Update)
			r.Delete("/{id}", postHandler.Delete)
		})

		r.Get("/{slug}", postHandler.GetBySlug)
	})

	return r
}

func healthHandler(check func(ctx context.Context) error, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				logger.Error("health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

// runServer запускает HTTP сервер и останавливает его при отмене ctx
func runServer(ctx context.Context, cfg *config.Config, h http.Handler, logger *slog.Logger) error {
	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка при запуске сервера: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received, stopping server")

	ctxServer, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxServer); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
