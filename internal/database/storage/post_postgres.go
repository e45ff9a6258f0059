package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/CampusEvents/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const postColumns = `p.id, p.name, p.slug, p.address, p.performers, p.description, p.event_date, p.event_time,
	p.file_img, p.image_key, p.user_id, p.created_at, p.updated_at`

// postRow — строка posts вместе с полями владельца из JOIN users.
type postRow struct {
	domain.Post
	OwnerUsername sql.NullString `db:"owner_username"`
	OwnerEmail    sql.NullString `db:"owner_email"`
	PrevImageKey  sql.NullString `db:"prev_image_key"`
}

func (r postRow) toDomain(withEmail bool) domain.Post {
	p := r.Post
	owner := &domain.Owner{ID: p.UserID, Username: r.OwnerUsername.String}
	if withEmail {
		owner.Email = r.OwnerEmail.String
	}
	p.User = owner
	return p
}

func rowsToDomain(rows []postRow, withEmail bool) []domain.Post {
	posts := make([]domain.Post, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, r.toDomain(withEmail))
	}
	return posts
}

type PostgresStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewPostgresStorage(db *sqlx.DB, logger *slog.Logger) *PostgresStorage {
	return &PostgresStorage{db: db, logger: logger}
}

// CreatePost сохраняет событие в базе данных
func (s *PostgresStorage) CreatePost(ctx context.Context, post *domain.Post) error {
	start := time.Now()

	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	now := time.Now().UTC()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now

	query := `
	INSERT INTO posts (id, name, slug, address, performers, description, event_date, event_time, file_img, image_key, user_id, created_at, updated_at)
	VALUES (:id, :name, :slug, :address, :performers, :description, :event_date, :event_time, :file_img, :image_key, :user_id, :created_at, :updated_at)
	`

	_, err := s.db.NamedExecContext(ctx, query, post)
	if err != nil {
		if isUniqueViolation(err) {
			s.logger.Warn("post name or slug already exists", "slug", post.Slug)
			return domain.Wrap(domain.ErrConflict, "Event with this name already exists", err)
		}
		s.logger.Error("failed to save post", "slug", post.Slug, "error", err)
		return fmt.Errorf("ошибка при сохранении события: %w", err)
	}

	s.logger.Info("post saved successfully",
		"id", post.ID,
		"slug", post.Slug,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// ListPosts получает все события с username владельца
func (s *PostgresStorage) ListPosts(ctx context.Context) ([]domain.Post, error) {
	start := time.Now()

	q := `SELECT ` + postColumns + `, u.username AS owner_username
	FROM posts p
	LEFT JOIN users u ON u.id = p.user_id
	ORDER BY p.created_at DESC`

	var rows []postRow
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		s.logger.Error("failed to list posts", "error", err)
		return nil, fmt.Errorf("ошибка при получении списка событий: %w", err)
	}

	s.logger.Info("listed posts successfully",
		"count", len(rows),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return rowsToDomain(rows, false), nil
}

// CountPosts возвращает общее число событий
func (s *PostgresStorage) CountPosts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM posts`); err != nil {
		s.logger.Error("failed to count posts", "error", err)
		return 0, fmt.Errorf("ошибка при подсчёте событий: %w", err)
	}
	return n, nil
}

// ListPostsBySlug получает события по slug (ноль или больше)
func (s *PostgresStorage) ListPostsBySlug(ctx context.Context, slug string) ([]domain.Post, error) {
	start := time.Now()

	q := `SELECT ` + postColumns + `, u.username AS owner_username
	FROM posts p
	LEFT JOIN users u ON u.id = p.user_id
	WHERE p.slug = $1`

	var rows []postRow
	if err := s.db.SelectContext(ctx, &rows, q, slug); err != nil {
		s.logger.Error("failed to get posts by slug", "slug", slug, "error", err)
		return nil, fmt.Errorf("ошибка при получении события по slug: %w", err)
	}

	s.logger.Info("posts retrieved by slug",
		"slug", slug,
		"found", len(rows),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return rowsToDomain(rows, false), nil
}

// ListPostsByUser получает события владельца вместе с его username и email
func (s *PostgresStorage) ListPostsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Post, error) {
	start := time.Now()

	q := `SELECT ` + postColumns + `, u.username AS owner_username, u.email AS owner_email
	FROM posts p
	JOIN users u ON u.id = p.user_id
	WHERE p.user_id = $1
	ORDER BY p.created_at DESC`

	var rows []postRow
	if err := s.db.SelectContext(ctx, &rows, q, userID); err != nil {
		s.logger.Error("failed to list user posts", "user_id", userID, "error", err)
		return nil, fmt.Errorf("ошибка при получении событий пользователя: %w", err)
	}

	s.logger.Info("listed user posts successfully",
		"user_id", userID,
		"count", len(rows),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return rowsToDomain(rows, true), nil
}

// UpdateOwnedPost обновляет событие одной командой: строка находится по id и владельцу,
// предыдущий ключ изображения возвращается вместе с новой версией.
func (s *PostgresStorage) UpdateOwnedPost(ctx context.Context, postID, userID uuid.UUID, c domain.PostChanges) (*domain.Post, string, error) {
	start := time.Now()

	q := `
	UPDATE posts p SET
		name = $3, slug = $4, address = $5, performers = $6, description = $7,
		event_date = $8, event_time = $9,
		file_img = CASE WHEN $10 THEN $11 ELSE p.file_img END,
		image_key = CASE WHEN $10 THEN $12 ELSE p.image_key END,
		updated_at = $13
	FROM (SELECT id, image_key FROM posts WHERE id = $1 AND user_id = $2 FOR UPDATE) prev
	WHERE p.id = prev.id
	RETURNING ` + postColumns + `, prev.image_key AS prev_image_key`

	var row postRow
	err := s.db.QueryRowxContext(ctx, q,
		postID, userID,
		c.Name, c.Slug, c.Address, c.Performers, c.Description,
		c.Date, c.Time,
		c.ReplaceImage, c.FileImg, c.ImageKey,
		time.Now().UTC(),
	).StructScan(&row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("post not found or not owned", "id", postID, "user_id", userID)
			return nil, "", domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, "", domain.Wrap(domain.ErrConflict, "Event with this name already exists", err)
		}
		s.logger.Error("failed to update post", "id", postID, "error", err)
		return nil, "", fmt.Errorf("ошибка при обновлении события: %w", err)
	}

	s.logger.Info("post updated",
		"id", postID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	post := row.Post
	post.User = &domain.Owner{ID: post.UserID}
	return &post, row.PrevImageKey.String, nil
}

// OwnsPost проверяет, что событие принадлежит пользователю
func (s *PostgresStorage) OwnsPost(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	var owned bool
	q := `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1 AND user_id = $2)`
	if err := s.db.GetContext(ctx, &owned, q, postID, userID); err != nil {
		s.logger.Error("failed to check post owner", "id", postID, "error", err)
		return false, fmt.Errorf("ошибка при проверке владельца события: %w", err)
	}
	return owned, nil
}

// DeleteOwnedPost удаляет событие владельца
func (s *PostgresStorage) DeleteOwnedPost(ctx context.Context, postID, userID uuid.UUID) (*domain.Post, error) {
	start := time.Now()

	q := `DELETE FROM posts p WHERE p.id = $1 AND p.user_id = $2 RETURNING ` + postColumns

	var post domain.Post
	if err := s.db.GetContext(ctx, &post, q, postID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("post not found or not owned", "id", postID, "user_id", userID)
			return nil, domain.ErrNotFound
		}
		s.logger.Error("failed to delete post", "id", postID, "error", err)
		return nil, fmt.Errorf("ошибка при удалении события: %w", err)
	}

	s.logger.Info("post deleted",
		"id", postID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	post.User = &domain.Owner{ID: post.UserID}
	return &post, nil
}
