package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/CampusEvents/internal/core/ports"
	"github.com/GoArmGo/CampusEvents/internal/messaging/payloads"
	"github.com/GoArmGo/CampusEvents/internal/metrics"
)

// runWorker обрабатывает очередь удаления изображений до отмены ctx или потери брокера
func runWorker(
	ctx context.Context,
	consumer ports.ImageCleanupConsumer,
	handle func(context.Context, payloads.ImageCleanupPayload) error,
	logger *slog.Logger,
) error {
	if consumer == nil {
		return fmt.Errorf("воркеру нужна очередь: задайте RABBITMQ_URL")
	}
	if handle == nil {
		return fmt.Errorf("воркеру нужен хостинг изображений: задайте MINIO_ENDPOINT")
	}

	logger.Info("worker started, waiting for image cleanup jobs")

	if err := consumer.StartConsumingImageCleanup(ctx, countingHandler(handle)); err != nil {
		logger.Error("worker consumer stopped", "error", err)
		return fmt.Errorf("потребитель RabbitMQ остановился: %w", err)
	}

	logger.Info("worker stopped")
	return nil
}

// countingHandler считает результаты обработки в метриках
func countingHandler(handle func(context.Context, payloads.ImageCleanupPayload) error) func(context.Context, payloads.ImageCleanupPayload) error {
	return func(ctx context.Context, p payloads.ImageCleanupPayload) error {
		if err := handle(ctx, p); err != nil {
			metrics.ImageCleanupTotal.WithLabelValues("error").Inc()
			return err
		}
		metrics.ImageCleanupTotal.WithLabelValues("ok").Inc()
		return nil
	}
}
