package ports

import (
	"context"
	"io"

	"github.com/GoArmGo/CampusEvents/internal/domain"
	"github.com/google/uuid"
)

// UserStorage определяет методы для взаимодействия с хранилищем пользователей.
// Отсутствие записи — domain.ErrNotFound, нарушение уникальности — domain.ErrConflict.
type UserStorage interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// PostStorage определяет методы для взаимодействия с хранилищем событий
type PostStorage interface {
	CreatePost(ctx context.Context, post *domain.Post) error

	// ListPosts возвращает все события с именем владельца
	ListPosts(ctx context.Context) ([]domain.Post, error)
	CountPosts(ctx context.Context) (int64, error)
	ListPostsBySlug(ctx context.Context, slug string) ([]domain.Post, error)

	// ListPostsByUser возвращает события владельца с его username и email
	ListPostsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Post, error)

	// OwnsPost сообщает, существует ли пост и принадлежит ли он userID
	OwnsPost(ctx context.Context, postID, userID uuid.UUID) (bool, error)

	// UpdateOwnedPost применяет изменения, только если пост принадлежит userID.
	// Возвращает обновлённый пост и предыдущий ключ изображения.
	UpdateOwnedPost(ctx context.Context, postID, userID uuid.UUID, changes domain.PostChanges) (*domain.Post, string, error)

	// DeleteOwnedPost удаляет пост владельца и возвращает удалённую запись
	DeleteOwnedPost(ctx context.Context, postID, userID uuid.UUID) (*domain.Post, error)
}

// FileStorage определяет интерфейс для работы с файловым хранилищем (AWS S3, MinIO)
type FileStorage interface {
	// UploadFile загружает файл и возвращает его публичный URL.
	UploadFile(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
	DeleteFile(ctx context.Context, key string) error
}

// Closer — хранилище, которому нужно явное завершение работы.
type Closer interface {
	Close() error
}

// ImageSource получает изображение по ссылке из запроса (data URI или http(s) URL).
// Неподходящий ввод — domain.ErrValidation.
type ImageSource interface {
	Load(ctx context.Context, ref string) (*domain.Image, error)
}
