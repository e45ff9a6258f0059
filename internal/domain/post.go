package domain

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout — формат календарной даты события.
const DateLayout = "2006-01-02"

// Post представляет событие (event),
// соответствует таблице posts в бд
type Post struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Slug        string     `json:"slug" db:"slug"`
	Address     string     `json:"address" db:"address"`
	Performers  string     `json:"performers" db:"performers"`
	Description string     `json:"description" db:"description"`
	Date        *time.Time `json:"date" db:"event_date"`
	Time        string     `json:"time" db:"event_time"`
	FileImg     string     `json:"fileImg,omitempty" db:"file_img"`
	ImageKey    string     `json:"-" db:"image_key"`
	UserID      uuid.UUID  `json:"-" db:"user_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	User *Owner `json:"user,omitempty" db:"-"`
}

// PostChanges — набор полей, которые перезаписывает Update.
// Пустые строки и nil-дата очищают соответствующие поля.
type PostChanges struct {
	Name        string
	Slug        string
	Address     string
	Performers  string
	Description string
	Date        *time.Time
	Time        string

	// ReplaceImage выставляется, только если к запросу приложено новое изображение.
	ReplaceImage bool
	FileImg      string
	ImageKey     string
}

// Apply переносит изменения на пост.
func (c PostChanges) Apply(p *Post) {
	p.Name = c.Name
	p.Slug = c.Slug
	p.Address = c.Address
	p.Performers = c.Performers
	p.Description = c.Description
	p.Date = c.Date
	p.Time = c.Time
	if c.ReplaceImage {
		p.FileImg = c.FileImg
		p.ImageKey = c.ImageKey
	}
}

// ParseDate разбирает дату события: YYYY-MM-DD или RFC 3339.
// Пустая строка означает отсутствие даты.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d, nil
}

// Image — декодированное изображение, готовое к загрузке в хостинг.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}
