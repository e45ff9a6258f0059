package usecase

import (
	"context"

	"github.com/GoArmGo/CampusEvents/internal/domain"
	"github.com/google/uuid"
)

// Сообщения об ошибках аутентификации.
const (
	MsgMissingRegisterFields = "Missing username, email or password"
	MsgUsernameTaken         = "Username already taken"
	MsgMissingLoginFields    = "Missing username and/or password"
	MsgIncorrectCredentials  = "Incorrect username or password"
	MsgUserNotFound          = "User not found"
	MsgAccessTokenNotFound   = "Access token not found"
	MsgInvalidToken          = "Invalid token"
)

// RegisterInput — тело POST /auth/local/register.
type RegisterInput struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,max=255"`
	Password string `json:"password" validate:"required"`
}

// LoginInput — тело POST /auth/local. Identifier — username или email.
type LoginInput struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// AuthResult — ответ регистрации и входа.
type AuthResult struct {
	Token string          `json:"token"`
	User  domain.UserView `json:"user"`
}

// AuthUseCase определяет бизнес-логику регистрации и входа.
type AuthUseCase interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)

	// VerifyToken проверяет токен доступа и возвращает id пользователя
	VerifyToken(token string) (uuid.UUID, error)

	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*domain.UserView, error)
}
