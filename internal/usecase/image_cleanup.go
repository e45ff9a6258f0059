package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/CampusEvents/internal/core/ports"
	"github.com/GoArmGo/CampusEvents/internal/messaging/payloads"
)

// InlineImageCleaner удаляет изображения сразу, без очереди.
// Используется сервером, когда RabbitMQ не настроен.
type InlineImageCleaner struct {
	files  ports.FileStorage
	logger *slog.Logger
}

func NewInlineImageCleaner(files ports.FileStorage, logger *slog.Logger) *InlineImageCleaner {
	return &InlineImageCleaner{files: files, logger: logger}
}

// PublishImageCleanup реализует ports.ImageCleanupPublisher
func (c *InlineImageCleaner) PublishImageCleanup(ctx context.Context, payload payloads.ImageCleanupPayload) error {
	return NewImageCleanupHandler(c.files, c.logger)(ctx, payload)
}

// NewImageCleanupHandler возвращает обработчик задач удаления для воркера
func NewImageCleanupHandler(files ports.FileStorage, logger *slog.Logger) func(context.Context, payloads.ImageCleanupPayload) error {
	return func(ctx context.Context, payload payloads.ImageCleanupPayload) error {
		if err := files.DeleteFile(ctx, payload.Key); err != nil {
			return fmt.Errorf("usecase: ошибка удаления изображения %s: %w", payload.Key, err)
		}
		logger.Info("image removed", "key", payload.Key, "post_id", payload.PostID, "reason", payload.Reason)
		return nil
	}
}
