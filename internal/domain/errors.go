package domain

import (
	"errors"
	"fmt"
)

// Виды ошибок предметной области. Сравниваются через errors.Is.
var (
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
)

// Error — ошибка с видом и сообщением, которое можно показать клиенту.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Is позволяет errors.Is(err, domain.ErrConflict) и т.п.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError создаёт ошибку заданного вида.
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap создаёт ошибку заданного вида поверх err.
func Wrap(kind error, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error   { return NewError(ErrValidation, message) }
func Conflict(message string) *Error     { return NewError(ErrConflict, message) }
func Unauthorized(message string) *Error { return NewError(ErrUnauthorized, message) }
func NotFound(message string) *Error     { return NewError(ErrNotFound, message) }

// PublicMessage возвращает сообщение для клиента, если ошибка доменная.
func PublicMessage(err error) (string, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Message, true
	}
	return "", false
}
