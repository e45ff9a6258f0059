package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/CampusEvents/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPostStorage реализует ports.PostStorage с использованием GORM
type GormPostStorage struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewGormPostStorage(db *gorm.DB, logger *slog.Logger) *GormPostStorage {
	return &GormPostStorage{db: db, logger: logger}
}

// CreatePost сохраняет событие в БД с помощью GORM
func (s *GormPostStorage) CreatePost(ctx context.Context, post *domain.Post) error {
	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	now := time.Now().UTC()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now

	rec := postFromDomain(post)
	if err := s.db.WithContext(ctx).Omit("Owner").Create(&rec).Error; err != nil {
		if isDuplicate(err) {
			return domain.Wrap(domain.ErrConflict, "Event with this name already exists", err)
		}
		return fmt.Errorf("ошибка при сохранении события с помощью GORM: %w", err)
	}

	s.logger.Info("post saved successfully", "id", post.ID, "slug", post.Slug)
	return nil
}

// ListPosts получает все события вместе с владельцами
func (s *GormPostStorage) ListPosts(ctx context.Context) ([]domain.Post, error) {
	return s.find(s.db.WithContext(ctx), false)
}

func (s *GormPostStorage) CountPosts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&postRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("ошибка при подсчёте событий с помощью GORM: %w", err)
	}
	return n, nil
}

func (s *GormPostStorage) ListPostsBySlug(ctx context.Context, slug string) ([]domain.Post, error) {
	return s.find(s.db.WithContext(ctx).Where("slug = ?", slug), false)
}

func (s *GormPostStorage) ListPostsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Post, error) {
	return s.find(s.db.WithContext(ctx).Where("user_id = ?", userID), true)
}

func (s *GormPostStorage) find(q *gorm.DB, withEmail bool) ([]domain.Post, error) {
	var recs []postRecord
	if err := q.Preload("Owner").Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("ошибка при получении событий с помощью GORM: %w", err)
	}
	posts := make([]domain.Post, 0, len(recs))
	for _, r := range recs {
		posts = append(posts, r.toDomain(withEmail))
	}
	return posts, nil
}

// UpdateOwnedPost блокирует строку владельца и обновляет её в одной транзакции
func (s *GormPostStorage) UpdateOwnedPost(ctx context.Context, postID, userID uuid.UUID, c domain.PostChanges) (*domain.Post, string, error) {
	var (
		updated postRecord
		prevKey string
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur postRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", postID, userID).
			First(&cur).Error; err != nil {
			return err
		}
		prevKey = cur.ImageKey

		if err := tx.Model(&postRecord{}).
			Where("id = ?", postID).
			Updates(changesToColumns(c, time.Now().UTC())).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", postID).First(&updated).Error
	})
	if err != nil {
		if isNotFound(err) {
			return nil, "", domain.ErrNotFound
		}
		if isDuplicate(err) {
			return nil, "", domain.Wrap(domain.ErrConflict, "Event with this name already exists", err)
		}
		return nil, "", fmt.Errorf("ошибка при обновлении события с помощью GORM: %w", err)
	}

	s.logger.Info("post updated", "id", postID)
	p := updated.toDomain(false)
	return &p, prevKey, nil
}

// OwnsPost проверяет, что событие принадлежит пользователю
func (s *GormPostStorage) OwnsPost(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&postRecord{}).
		Where("id = ? AND user_id = ?", postID, userID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("ошибка при проверке владельца события с помощью GORM: %w", err)
	}
	return n > 0, nil
}

// DeleteOwnedPost удаляет событие владельца и возвращает удалённую запись
func (s *GormPostStorage) DeleteOwnedPost(ctx context.Context, postID, userID uuid.UUID) (*domain.Post, error) {
	var deleted postRecord

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", postID, userID).
			First(&deleted).Error; err != nil {
			return err
		}
		return tx.Delete(&postRecord{}, "id = ?", postID).Error
	})
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка при удалении события с помощью GORM: %w", err)
	}

	s.logger.Info("post deleted", "id", postID)
	p := deleted.toDomain(false)
	return &p, nil
}
