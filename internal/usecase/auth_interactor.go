package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoArmGo/CampusEvents/internal/auth"
	"github.com/GoArmGo/CampusEvents/internal/core/ports"
	"github.com/GoArmGo/CampusEvents/internal/domain"
	"github.com/google/uuid"
)

// authUseCase implements AuthUseCase
type authUseCase struct {
	users  ports.UserStorage
	hasher *auth.PasswordHasher
	tokens *auth.TokenManager
	logger *slog.Logger

	// dummyHash сверяется при неизвестном пользователе, чтобы время ответа не выдавало,
	// существует ли он.
	dummyHash string
}

// NewAuthUseCase создает новый экземпляр AuthUseCase
func NewAuthUseCase(users ports.UserStorage, hasher *auth.PasswordHasher, tokens *auth.TokenManager, logger *slog.Logger) (AuthUseCase, error) {
	dummy, err := hasher.Hash("dummy-password")
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка подготовки хеша: %w", err)
	}
	return &authUseCase{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		logger:    logger,
		dummyHash: dummy,
	}, nil
}

// Register создаёт пользователя и сразу выдаёт токен
func (uc *authUseCase) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	start := time.Now()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateInput(in, MsgMissingRegisterFields); err != nil {
		return nil, err
	}

	// Быстрая проверка; гонку закрывает уникальный индекс хранилища.
	_, err := uc.users.GetUserByUsername(ctx, in.Username)
	switch {
	case err == nil:
		return nil, domain.Conflict(MsgUsernameTaken)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("usecase: ошибка при проверке username: %w", err)
	}

	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка хеширования пароля: %w", err)
	}

	user := &domain.User{Username: in.Username, Email: in.Email, PasswordHash: hash}
	if err := uc.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.Conflict(MsgUsernameTaken)
		}
		return nil, fmt.Errorf("usecase: ошибка при создании пользователя: %w", err)
	}

	res, err := uc.issue(user)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("user registered",
		"user_id", user.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// Login проверяет пароль; неизвестный пользователь и неверный пароль неразличимы
func (uc *authUseCase) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Identifier = strings.TrimSpace(in.Identifier)
	if err := validateInput(in, MsgMissingLoginFields); err != nil {
		return nil, err
	}

	var (
		user *domain.User
		err  error
	)
	if strings.Contains(in.Identifier, "@") {
		user, err = uc.users.GetUserByEmail(ctx, in.Identifier)
	} else {
		user, err = uc.users.GetUserByUsername(ctx, in.Identifier)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_, _ = uc.hasher.Verify(uc.dummyHash, in.Password)
			uc.logger.Info("login failed", "reason", "unknown identifier")
			return nil, domain.NewError(domain.ErrInvalidCredentials, MsgIncorrectCredentials)
		}
		return nil, fmt.Errorf("usecase: ошибка при поиске пользователя: %w", err)
	}

	ok, err := uc.hasher.Verify(user.PasswordHash, in.Password)
	if err != nil {
		uc.logger.Error("stored password hash is malformed", "user_id", user.ID, "error", err)
	}
	if !ok {
		uc.logger.Info("login failed", "reason", "wrong password", "user_id", user.ID)
		return nil, domain.NewError(domain.ErrInvalidCredentials, MsgIncorrectCredentials)
	}

	res, err := uc.issue(user)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("user logged in", "user_id", user.ID)
	return res, nil
}

func (uc *authUseCase) issue(user *domain.User) (*AuthResult, error) {
	token, err := uc.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка выпуска токена: %w", err)
	}
	return &AuthResult{Token: token, User: user.View()}, nil
}

func (uc *authUseCase) VerifyToken(token string) (uuid.UUID, error) {
	id, err := uc.tokens.Validate(token)
	if err != nil {
		if errors.Is(err, auth.ErrMissingToken) {
			return uuid.Nil, domain.Wrap(domain.ErrUnauthorized, MsgAccessTokenNotFound, err)
		}
		return uuid.Nil, domain.Wrap(domain.ErrUnauthorized, MsgInvalidToken, err)
	}
	return id, nil
}

// GetCurrentUser возвращает публичное представление аутентифицированного пользователя
func (uc *authUseCase) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*domain.UserView, error) {
	user, err := uc.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound(MsgUserNotFound)
		}
		return nil, fmt.Errorf("usecase: ошибка при получении пользователя: %w", err)
	}
	view := user.View()
	return &view, nil
}
