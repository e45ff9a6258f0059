package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/GoArmGo/CampusEvents/internal/domain"
)

const (
	msgInvalidBody    = "Invalid request body"
	msgInternalError  = "Internal server error"
	msgTooManyRequest = "Too many requests"
)

// errorResponse — единый формат ошибки для клиента.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// respondWithJSON — отправляет JSON-ответ клиенту.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("failed to marshal JSON response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

// respondWithError — отправляет JSON-ответ с ошибкой.
func respondWithError(w http.ResponseWriter, code int, message string, logger *slog.Logger) {
	respondWithJSON(w, code, errorResponse{Success: false, Message: message}, logger)
}

// statusFor сопоставляет вид доменной ошибки с HTTP-статусом.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondWithDomainError — отправляет ошибку use case. Внутренние детали остаются в логах.
func respondWithDomainError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	code := statusFor(err)
	msg, ok := domain.PublicMessage(err)
	if code == http.StatusInternalServerError || !ok {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		respondWithError(w, http.StatusInternalServerError, msgInternalError, logger)
		return
	}

	logger.Info("request rejected",
		"method", r.Method,
		"path", r.URL.Path,
		"status", code,
		"message", msg,
	)
	respondWithError(w, code, msg, logger)
}

// decodeJSON читает тело запроса не длиннее maxBytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Wrap(domain.ErrValidation, msgInvalidBody, err)
	}
	return nil
}
