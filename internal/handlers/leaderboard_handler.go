package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authMiddleware "github.com/learntrack/backend/internal/auth/middleware"
	"github.com/learntrack/backend/internal/models"
)

// LeaderboardService is the interface that wraps methods for leaderboard operations
type LeaderboardService interface {
	// ComputeLeaderboard returns the ranked leaderboard, possibly served from
	// a cached snapshot
	//
	// "ctx" is the context for the request.
	//
	// Returns the ranked entries and an error if any.
	ComputeLeaderboard(ctx context.Context) ([]models.LeaderboardEntry, error)
	// RankFor returns the leaderboard entry for one user
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the user.
	//
	// Returns the entry and an error if any; an unranked user fails with
	// ErrNotRanked.
	RankFor(ctx context.Context, userID int) (*models.LeaderboardEntry, error)
}

// LeaderboardHandler handles HTTP requests for leaderboard operations
type LeaderboardHandler struct {
	BaseHandler
	service LeaderboardService
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(svc LeaderboardService, logger *zap.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all leaderboard handler routes
func (h *LeaderboardHandler) RegisterRoutes(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Route("/leaderboard", func(r chi.Router) {
		r.Use(auth)
		r.Get("/", h.GetLeaderboard)
		r.Get("/me", h.GetMyRank)
	})
}

// GetLeaderboard handles GET /leaderboard
// @Summary Get the leaderboard
// @Description Get the ranked leaderboard of users by achievement points
// @Tags leaderboard
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.LeaderboardEntry "Ranked entries"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /leaderboard [get]
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ComputeLeaderboard(r.Context())
	if err != nil {
		h.HandleServiceError(w, err, "failed to compute leaderboard")
		return
	}

	h.RespondJSON(w, http.StatusOK, entries)
}

// GetMyRank handles GET /leaderboard/me
// @Summary Get my rank
// @Description Get the authenticated user's leaderboard entry
// @Tags leaderboard
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} models.LeaderboardEntry "Leaderboard entry"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "User is not ranked"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /leaderboard/me [get]
func (h *LeaderboardHandler) GetMyRank(w http.ResponseWriter, r *http.Request) {
	userID, ok := authMiddleware.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return
	}

	entry, err := h.service.RankFor(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err, "failed to get rank")
		return
	}

	h.RespondJSON(w, http.StatusOK, entry)
}
