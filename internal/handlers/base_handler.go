package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/learntrack/backend/internal/models"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// HandleServiceError maps a service error to an HTTP response. Domain errors
// are expected outcomes and logged at info level; anything else is a server
// fault.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error, message string) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error(message, zap.Error(err))
	} else {
		h.Logger.Info(message, zap.Error(err))
	}
	h.RespondError(w, status, err.Error())
}

// statusForError maps domain errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrNotRanked):
		return http.StatusNotFound
	case errors.Is(err, models.ErrAlreadyEnrolled), errors.Is(err, models.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, models.ErrNotEnrolled),
		errors.Is(err, models.ErrPreviousLessonIncomplete),
		errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
