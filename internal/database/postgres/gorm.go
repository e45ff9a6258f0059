package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/GoArmGo/CampusEvents/internal/domain"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenGorm открывает отдельный пул соединений GORM.
// Схема создаётся миграциями, AutoMigrate не используется.
func OpenGorm(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия соединения GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пула GORM: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// CloseGorm закрывает пул соединений GORM.
func CloseGorm(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type userRecord struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRecord) TableName() string { return "users" }

func (r userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func userFromDomain(u *domain.User) userRecord {
	return userRecord{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

type postRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string
	Slug        string
	Address     string
	Performers  string
	Description string
	EventDate   *time.Time `gorm:"type:date"`
	EventTime   string
	FileImg     string
	ImageKey    string
	UserID      uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Owner *userRecord `gorm:"foreignKey:UserID"`
}

func (postRecord) TableName() string { return "posts" }

func (r postRecord) toDomain(withEmail bool) domain.Post {
	p := domain.Post{
		ID:          r.ID,
		Name:        r.Name,
		Slug:        r.Slug,
		Address:     r.Address,
		Performers:  r.Performers,
		Description: r.Description,
		Date:        r.EventDate,
		Time:        r.EventTime,
		FileImg:     r.FileImg,
		ImageKey:    r.ImageKey,
		UserID:      r.UserID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.Owner != nil {
		p.User = &domain.Owner{ID: r.Owner.ID, Username: r.Owner.Username}
		if withEmail {
			p.User.Email = r.Owner.Email
		}
	} else {
		p.User = &domain.Owner{ID: r.UserID}
	}
	return p
}

func postFromDomain(p *domain.Post) postRecord {
	return postRecord{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Address:     p.Address,
		Performers:  p.Performers,
		Description: p.Description,
		EventDate:   p.Date,
		EventTime:   p.Time,
		FileImg:     p.FileImg,
		ImageKey:    p.ImageKey,
		UserID:      p.UserID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// changesToColumns переводит изменения в набор колонок для UPDATE.
// Карта нужна, чтобы GORM записывал и пустые значения.
func changesToColumns(c domain.PostChanges, now time.Time) map[string]any {
	cols := map[string]any{
		"name":        c.Name,
		"slug":        c.Slug,
		"address":     c.Address,
		"performers":  c.Performers,
		"description": c.Description,
		"event_date":  c.Date,
		"event_time":  c.Time,
		"updated_at":  now,
	}
	if c.ReplaceImage {
		cols["file_img"] = c.FileImg
		cols["image_key"] = c.ImageKey
	}
	return cols
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
