package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authMiddleware "github.com/learntrack/backend/internal/auth/middleware"
	"github.com/learntrack/backend/internal/models"
)

// AchievementService is the interface that wraps methods for achievement operations
type AchievementService interface {
	// CreateAchievement awards an achievement to a user
	//
	// "ctx" is the context for the request.
	// "req" carries the target user, title, points and optional course.
	//
	// Returns the created achievement and an error if any.
	CreateAchievement(ctx context.Context, req *models.CreateAchievementRequest) (*models.Achievement, error)
	// ListMine retrieves a user's achievements, most recent first
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the user.
	//
	// Returns the achievements and an error if any.
	ListMine(ctx context.Context, userID int) ([]models.Achievement, error)
	// ListRecent retrieves the most recently earned achievements across all users
	//
	// "ctx" is the context for the request.
	//
	// Returns the achievements and an error if any.
	ListRecent(ctx context.Context) ([]models.Achievement, error)
	// TotalPoints sums a user's achievement points
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the user.
	//
	// Returns the total and an error if any.
	TotalPoints(ctx context.Context, userID int) (int, error)
}

// AchievementHandler handles HTTP requests for achievement operations
type AchievementHandler struct {
	BaseHandler
	service AchievementService
}

// NewAchievementHandler creates a new achievement handler
func NewAchievementHandler(svc AchievementService, logger *zap.Logger) *AchievementHandler {
	return &AchievementHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all achievement handler routes. Awarding
// achievements requires the admin role.
func (h *AchievementHandler) RegisterRoutes(r chi.Router, auth, admin func(http.Handler) http.Handler) {
	r.Route("/achievements", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Get("/", h.ListMine)
			r.Get("/recent", h.ListRecent)
			r.Get("/points", h.GetTotalPoints)
		})
		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Post("/", h.CreateAchievement)
		})
	})
}

// CreateAchievement handles POST /achievements
// @Summary Award an achievement
// @Description Award an achievement with points to a user
// @Tags achievements
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreateAchievementRequest true "Achievement to award"
// @Success 201 {object} models.Achievement "Created achievement"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /achievements [post]
func (h *AchievementHandler) CreateAchievement(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAchievementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID <= 0 {
		h.RespondError(w, http.StatusBadRequest, "user ID is required")
		return
	}
	if req.Title == "" {
		h.RespondError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Points < 0 {
		h.RespondError(w, http.StatusBadRequest, "points must be non-negative")
		return
	}

	achievement, err := h.service.CreateAchievement(r.Context(), &req)
	if err != nil {
		h.HandleServiceError(w, err, "failed to create achievement")
		return
	}

	h.RespondJSON(w, http.StatusCreated, achievement)
}

// ListMine handles GET /achievements
// @Summary List my achievements
// @Description List the authenticated user's achievements, most recent first
// @Tags achievements
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.Achievement "Achievements"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /achievements [get]
func (h *AchievementHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := authMiddleware.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return
	}

	achievements, err := h.service.ListMine(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err, "failed to list achievements")
		return
	}

	h.RespondJSON(w, http.StatusOK, achievements)
}

// ListRecent handles GET /achievements/recent
// @Summary List recent achievements
// @Description List the most recently earned achievements across all users
// @Tags achievements
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.Achievement "Recent achievements"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /achievements/recent [get]
func (h *AchievementHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	achievements, err := h.service.ListRecent(r.Context())
	if err != nil {
		h.HandleServiceError(w, err, "failed to list recent achievements")
		return
	}

	h.RespondJSON(w, http.StatusOK, achievements)
}

// GetTotalPoints handles GET /achievements/points
// @Summary Get total points
// @Description Get the authenticated user's total achievement points
// @Tags achievements
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]int "Total points"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /achievements/points [get]
func (h *AchievementHandler) GetTotalPoints(w http.ResponseWriter, r *http.Request) {
	userID, ok := authMiddleware.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return
	}

	total, err := h.service.TotalPoints(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err, "failed to get total points")
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]int{"totalPoints": total})
}
