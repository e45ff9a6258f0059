package handler

import (
	"log/slog"
	"net/http"

	"github.com/GoArmGo/CampusEvents/internal/usecase"
)

// AuthHandler — обработчик HTTP-запросов регистрации и входа.
type AuthHandler struct {
	authUseCase  usecase.AuthUseCase
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewAuthHandler создаёт новый экземпляр AuthHandler.
func NewAuthHandler(uc usecase.AuthUseCase, maxBodyBytes int64, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authUseCase: uc, maxBodyBytes: maxBodyBytes, logger: logger}
}

// Register обрабатывает POST /auth/local/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in usecase.RegisterInput
	if err := decodeJSON(w, r, h.maxBodyBytes, &in); err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	res, err := h.authUseCase.Register(r.Context(), in)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, res, h.logger)
}

// Login обрабатывает POST /auth/local.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in usecase.LoginInput
	if err := decodeJSON(w, r, h.maxBodyBytes, &in); err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	res, err := h.authUseCase.Login(r.Context(), in)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, res, h.logger)
}

// Me обрабатывает GET /auth/users/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, usecase.MsgAccessTokenNotFound, h.logger)
		return
	}

	user, err := h.authUseCase.GetCurrentUser(r.Context(), userID)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, user, h.logger)
}
