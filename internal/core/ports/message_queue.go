package ports

import (
	"context"

	"github.com/GoArmGo/CampusEvents/internal/messaging/payloads"
)

// ImageCleanupPublisher ставит в очередь удаление изображения, которое больше не нужно
type ImageCleanupPublisher interface {
	PublishImageCleanup(ctx context.Context, payload payloads.ImageCleanupPayload) error
}

// ImageCleanupConsumer используется воркером для получения задач из очереди
type ImageCleanupConsumer interface {
	// StartConsumingImageCleanup слушает очередь и вызывает handler для каждого сообщения.
	// Блокирует до отмены ctx (nil) или до потери канала брокера (ошибка).
	StartConsumingImageCleanup(ctx context.Context, handler func(context.Context, payloads.ImageCleanupPayload) error) error
}
