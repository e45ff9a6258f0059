package usecase

import (
	"context"

	"github.com/GoArmGo/CampusEvents/internal/domain"
	"github.com/google/uuid"
)

// Сообщения об ошибках событий.
const (
	MsgNameRequired     = "name is required"
	MsgNameNoSlug       = "name must contain letters or digits"
	MsgInvalidDate      = "date must be YYYY-MM-DD"
	MsgFormDataRequired = "formData is required"
	MsgImagesDisabled   = "Image uploads are disabled"
	MsgPostNotOwned     = "Post not found or user not authorized"
	MsgEventExists      = "Event with this name already exists"
)

// PostInput — тело создания и обновления события.
// FormData — необязательное изображение: data URI или http(s) ссылка.
type PostInput struct {
	Name        string `json:"name" validate:"max=255"`
	Address     string `json:"address"`
	Performers  string `json:"performers"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time" validate:"max=64"`
	FormData    string `json:"formData"`
}

// PostUseCase определяет бизнес-логику работы с событиями
type PostUseCase interface {
	// ListAll возвращает все события, новые первыми, с username владельца
	ListAll(ctx context.Context) ([]domain.Post, error)
	Count(ctx context.Context) (int64, error)

	// GetBySlug возвращает ноль или больше событий с таким slug
	GetBySlug(ctx context.Context, slug string) ([]domain.Post, error)

	// ListMine возвращает события пользователя с его username и email
	ListMine(ctx context.Context, userID uuid.UUID) ([]domain.Post, error)

	// Create создаёт событие; при наличии FormData загружает изображение
	Create(ctx context.Context, userID uuid.UUID, in PostInput) (*domain.Post, error)

	// Upload — Create, для которого изображение обязательно
	Upload(ctx context.Context, userID uuid.UUID, in PostInput) (*domain.Post, error)

	Update(ctx context.Context, userID uuid.UUID, postID string, in PostInput) (*domain.Post, error)
	Delete(ctx context.Context, userID uuid.UUID, postID string) (*domain.Post, error)
}
