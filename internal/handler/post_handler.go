package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/GoArmGo/CampusEvents/internal/domain"
	"github.com/GoArmGo/CampusEvents/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// updateResponse — ответ PUT /events/{id}.
type updateResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Post    *domain.Post `json:"post"`
}

// PostHandler — обработчик HTTP-запросов для работы с событиями.
type PostHandler struct {
	postUseCase  usecase.PostUseCase
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewPostHandler создаёт новый экземпляр PostHandler.
func NewPostHandler(uc usecase.PostUseCase, maxBodyBytes int64, logger *slog.Logger) *PostHandler {
	return &PostHandler{postUseCase: uc, maxBodyBytes: maxBodyBytes, logger: logger}
}

// List обрабатывает GET /events/.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postUseCase.ListAll(r.Context())
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, posts, h.logger)
}

// Count обрабатывает GET /events/count, в ответе число.
func (h *PostHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.postUseCase.Count(r.Context())
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, n, h.logger)
}

// GetBySlug обрабатывает GET /events/{slug}.
func (h *PostHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	posts, err := h.postUseCase.GetBySlug(r.Context(), slug)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, posts, h.logger)
}

// ListMine обрабатывает GET /events/me.
func (h *PostHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, usecase.MsgAccessTokenNotFound, h.logger)
		return
	}

	posts, err := h.postUseCase.ListMine(r.Context(), userID)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, posts, h.logger)
}

// Create обрабатывает POST /events/.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, h.postUseCase.Create)
}

// Upload обрабатывает POST /events/upload.
func (h *PostHandler) Upload(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, h.postUseCase.Upload)
}

func (h *PostHandler) create(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID uuid.UUID, in usecase.PostInput) (*domain.Post, error)) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, usecase.MsgAccessTokenNotFound, h.logger)
		return
	}

	var in usecase.PostInput
	if err := decodeJSON(w, r, h.maxBodyBytes, &in); err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	post, err := op(r.Context(), userID, in)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, post, h.logger)
}

// Update обрабатывает PUT /events/{id}.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, usecase.MsgAccessTokenNotFound, h.logger)
		return
	}

	var in usecase.PostInput
	if err := decodeJSON(w, r, h.maxBodyBytes, &in); err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}

	post, err := h.postUseCase.Update(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, updateResponse{Success: true, Message: "Excellent progress!", Post: post}, h.logger)
}

// Delete обрабатывает DELETE /events/{id}.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, usecase.MsgAccessTokenNotFound, h.logger)
		return
	}

	post, err := h.postUseCase.Delete(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, post, h.logger)
}
