package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/CampusEvents/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserStorage реализует интерфейс ports.UserStorage с использованием GORM
type GormUserStorage struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewGormUserStorage создает новый экземпляр GormUserStorage
func NewGormUserStorage(db *gorm.DB, logger *slog.Logger) *GormUserStorage {
	return &GormUserStorage{db: db, logger: logger}
}

// CreateUser сохраняет нового пользователя
func (s *GormUserStorage) CreateUser(ctx context.Context, user *domain.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	rec := userFromDomain(user)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isDuplicate(err) {
			s.logger.Warn("username already taken", "username", user.Username)
			return domain.Wrap(domain.ErrConflict, "Username already taken", err)
		}
		return fmt.Errorf("ошибка при создании пользователя с GORM: %w", err)
	}

	s.logger.Info("user created", "user_id", user.ID)
	return nil
}

func (s *GormUserStorage) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.first(s.db.WithContext(ctx).Where("id = ?", id), "id")
}

func (s *GormUserStorage) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.first(s.db.WithContext(ctx).Where("username = ?", username), "username")
}

// GetUserByEmail получает самого раннего пользователя с таким email
func (s *GormUserStorage) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.first(s.db.WithContext(ctx).Where("email = ?", email).Order("created_at"), "email")
}

func (s *GormUserStorage) first(q *gorm.DB, by string) (*domain.User, error) {
	var rec userRecord
	if err := q.First(&rec).Error; err != nil {
		if isNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка при поиске пользователя по %s с GORM: %w", by, err)
	}
	return rec.toDomain(), nil
}
