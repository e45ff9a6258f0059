package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoArmGo/CampusEvents/internal/core/ports"
	"github.com/GoArmGo/CampusEvents/internal/domain"
	"github.com/GoArmGo/CampusEvents/internal/messaging/payloads"
	"github.com/GoArmGo/CampusEvents/internal/sanitize"
	"github.com/google/uuid"
)

// postUseCase implements PostUseCase
type postUseCase struct {
	posts   ports.PostStorage
	images  ports.ImageSource
	files   ports.FileStorage
	cleanup ports.ImageCleanupPublisher
	logger  *slog.Logger
}

// NewPostUseCase создает новый экземпляр PostUseCase.
// files и cleanup могут быть nil, если хостинг изображений не настроен.
func NewPostUseCase(
	posts ports.PostStorage,
	images ports.ImageSource,
	files ports.FileStorage,
	cleanup ports.ImageCleanupPublisher,
	logger *slog.Logger,
) PostUseCase {
	return &postUseCase{
		posts:   posts,
		images:  images,
		files:   files,
		cleanup: cleanup,
		logger:  logger,
	}
}

func (uc *postUseCase) ListAll(ctx context.Context) ([]domain.Post, error) {
	posts, err := uc.posts.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении событий: %w", err)
	}
	return posts, nil
}

func (uc *postUseCase) Count(ctx context.Context) (int64, error) {
	n, err := uc.posts.CountPosts(ctx)
	if err != nil {
		return 0, fmt.Errorf("usecase: ошибка при подсчёте событий: %w", err)
	}
	return n, nil
}

func (uc *postUseCase) GetBySlug(ctx context.Context, slug string) ([]domain.Post, error) {
	posts, err := uc.posts.ListPostsBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении события по slug %s: %w", slug, err)
	}
	return posts, nil
}

func (uc *postUseCase) ListMine(ctx context.Context, userID uuid.UUID) ([]domain.Post, error) {
	posts, err := uc.posts.ListPostsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении событий пользователя %s: %w", userID, err)
	}
	return posts, nil
}

// Create сохраняет событие. Если приложено изображение, оно загружается
// до записи в БД и удаляется, если запись не удалась.
func (uc *postUseCase) Create(ctx context.Context, userID uuid.UUID, in PostInput) (*domain.Post, error) {
	start := time.Now()

	fields, err := cleanInput(in)
	if err != nil {
		return nil, err
	}

	postID := uuid.New()
	hasImage := strings.TrimSpace(in.FormData) != ""

	if fields.Name == "" {
		if !hasImage {
			return nil, domain.Validation(MsgNameRequired)
		}
		fields.Name = "upload-" + strings.ReplaceAll(postID.String(), "-", "")[:8]
	}
	slug := domain.Slugify(fields.Name)
	if slug == "" {
		return nil, domain.Validation(MsgNameNoSlug)
	}

	post := &domain.Post{
		ID:          postID,
		Name:        fields.Name,
		Slug:        slug,
		Address:     fields.Address,
		Performers:  fields.Performers,
		Description: fields.Description,
		Date:        fields.Date,
		Time:        fields.Time,
		UserID:      userID,
	}

	if hasImage {
		url, key, err := uc.storeImage(ctx, postID, in.FormData)
		if err != nil {
			return nil, err
		}
		post.FileImg, post.ImageKey = url, key
	}

	if err := uc.posts.CreatePost(ctx, post); err != nil {
		uc.enqueueCleanup(ctx, post.ImageKey, postID, payloads.CleanupReasonCreateFailed)
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.Conflict(MsgEventExists)
		}
		return nil, fmt.Errorf("usecase: ошибка при сохранении события: %w", err)
	}

	post.User = &domain.Owner{ID: userID}
	uc.logger.Info("post created",
		"id", post.ID,
		"slug", post.Slug,
		"with_image", hasImage,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return post, nil
}

func (uc *postUseCase) Upload(ctx context.Context, userID uuid.UUID, in PostInput) (*domain.Post, error) {
	if strings.TrimSpace(in.FormData) == "" {
		return nil, domain.Validation(MsgFormDataRequired)
	}
	return uc.Create(ctx, userID, in)
}

// Update перезаписывает событие владельца; пустые необязательные поля очищаются
func (uc *postUseCase) Update(ctx context.Context, userID uuid.UUID, postID string, in PostInput) (*domain.Post, error) {
	id, err := uuid.Parse(postID)
	if err != nil {
		return nil, domain.Unauthorized(MsgPostNotOwned)
	}

	fields, err := cleanInput(in)
	if err != nil {
		return nil, err
	}
	if fields.Name == "" {
		return nil, domain.Validation(MsgNameRequired)
	}
	slug := domain.Slugify(fields.Name)
	if slug == "" {
		return nil, domain.Validation(MsgNameNoSlug)
	}

	changes := domain.PostChanges{
		Name:        fields.Name,
		Slug:        slug,
		Address:     fields.Address,
		Performers:  fields.Performers,
		Description: fields.Description,
		Date:        fields.Date,
		Time:        fields.Time,
	}
	if strings.TrimSpace(in.FormData) != "" {
		// чужой пост не должен получать объекты в бакете
		owned, err := uc.posts.OwnsPost(ctx, id, userID)
		if err != nil {
			return nil, fmt.Errorf("usecase: ошибка при проверке владельца события %s: %w", id, err)
		}
		if !owned {
			return nil, domain.Unauthorized(MsgPostNotOwned)
		}
		url, key, err := uc.storeImage(ctx, id, in.FormData)
		if err != nil {
			return nil, err
		}
		changes.ReplaceImage = true
		changes.FileImg, changes.ImageKey = url, key
	}

	post, prevKey, err := uc.posts.UpdateOwnedPost(ctx, id, userID, changes)
	if err != nil {
		uc.enqueueCleanup(ctx, changes.ImageKey, id, payloads.CleanupReasonUpdateFailed)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return nil, domain.Unauthorized(MsgPostNotOwned)
		case errors.Is(err, domain.ErrConflict):
			return nil, domain.Conflict(MsgEventExists)
		}
		return nil, fmt.Errorf("usecase: ошибка при обновлении события %s: %w", id, err)
	}

	if changes.ReplaceImage && prevKey != changes.ImageKey {
		uc.enqueueCleanup(ctx, prevKey, id, payloads.CleanupReasonImageReplaced)
	}

	uc.logger.Info("post updated", "id", id, "user_id", userID, "image_replaced", changes.ReplaceImage)
	return post, nil
}

// Delete удаляет событие владельца; изображение уходит в очередь на удаление
func (uc *postUseCase) Delete(ctx context.Context, userID uuid.UUID, postID string) (*domain.Post, error) {
	id, err := uuid.Parse(postID)
	if err != nil {
		return nil, domain.Unauthorized(MsgPostNotOwned)
	}

	post, err := uc.posts.DeleteOwnedPost(ctx, id, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Unauthorized(MsgPostNotOwned)
		}
		return nil, fmt.Errorf("usecase: ошибка при удалении события %s: %w", id, err)
	}

	uc.enqueueCleanup(ctx, post.ImageKey, id, payloads.CleanupReasonPostDeleted)
	uc.logger.Info("post deleted", "id", id, "user_id", userID)
	return post, nil
}

// storeImage получает изображение из FormData и загружает его в хостинг
func (uc *postUseCase) storeImage(ctx context.Context, postID uuid.UUID, ref string) (url, key string, err error) {
	if uc.files == nil || uc.images == nil {
		return "", "", domain.Validation(MsgImagesDisabled)
	}

	img, err := uc.images.Load(ctx, ref)
	if err != nil {
		return "", "", err
	}

	key = imageKey(postID, img.Ext)
	url, err = uc.files.UploadFile(ctx, key, bytes.NewReader(img.Data), img.ContentType)
	if err != nil {
		return "", "", fmt.Errorf("usecase: ошибка загрузки изображения %s: %w", key, err)
	}
	return url, key, nil
}

// enqueueCleanup ставит удаление изображения в очередь. Ошибки только логируются.
func (uc *postUseCase) enqueueCleanup(ctx context.Context, key string, postID uuid.UUID, reason string) {
	if key == "" || uc.cleanup == nil {
		return
	}
	err := uc.cleanup.PublishImageCleanup(context.WithoutCancel(ctx), payloads.ImageCleanupPayload{
		Key:    key,
		PostID: postID.String(),
		Reason: reason,
	})
	if err != nil {
		uc.logger.Error("failed to enqueue image cleanup", "key", key, "reason", reason, "error", err)
	}
}

// imageKey строит ключ объекта: events/<postID>/<random><ext>
func imageKey(postID uuid.UUID, ext string) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	return fmt.Sprintf("events/%s/%s%s", postID, random, ext)
}

type postFields struct {
	Name        string
	Address     string
	Performers  string
	Description string
	Date        *time.Time
	Time        string
}

// cleanInput очищает текст от HTML, проверяет длины и разбирает дату
func cleanInput(in PostInput) (postFields, error) {
	f := postFields{
		Name:        sanitize.Text(in.Name),
		Address:     sanitize.Text(in.Address),
		Performers:  sanitize.Text(in.Performers),
		Description: sanitize.Text(in.Description),
		Time:        sanitize.Text(in.Time),
	}

	if err := validateInput(PostInput{Name: f.Name, Time: f.Time}, MsgNameRequired); err != nil {
		return postFields{}, err
	}

	date, err := domain.ParseDate(strings.TrimSpace(in.Date))
	if err != nil {
		return postFields{}, domain.Wrap(domain.ErrValidation, MsgInvalidDate, err)
	}
	f.Date = date
	return f, nil
}
