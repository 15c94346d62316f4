package services

import (
	"context"
	"fmt"
	"time"

	"github.com/learntrack/backend/internal/models"
)

// recentAchievementsLimit caps the cross-user recent achievements feed
const recentAchievementsLimit = 5

type achievementService struct {
	achievementRepo AchievementRepository
	userRepo        UserRepository
}

// NewAchievementService creates a new achievement service
func NewAchievementService(achievementRepo AchievementRepository, userRepo UserRepository) *achievementService {
	return &achievementService{
		achievementRepo: achievementRepo,
		userRepo:        userRepo,
	}
}

// CreateAchievement awards an achievement to a user. Points must be
// non-negative; the target user must exist.
func (s *achievementService) CreateAchievement(ctx context.Context, req *models.CreateAchievementRequest) (*models.Achievement, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("achievement title is required")
	}
	if req.Points < 0 {
		return nil, fmt.Errorf("achievement points must be non-negative")
	}

	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	achievement := &models.Achievement{
		UserID:      req.UserID,
		CourseID:    req.CourseID,
		Title:       req.Title,
		Description: req.Description,
		Points:      req.Points,
		EarnedAt:    time.Now().UTC(),
	}
	if err := s.achievementRepo.Create(ctx, achievement); err != nil {
		return nil, fmt.Errorf("failed to create achievement: %w", err)
	}

	return achievement, nil
}

// ListMine retrieves a user's achievements, most recent first
func (s *achievementService) ListMine(ctx context.Context, userID int) ([]models.Achievement, error) {
	achievements, err := s.achievementRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	return achievements, nil
}

// ListRecent retrieves the most recently earned achievements across all users
func (s *achievementService) ListRecent(ctx context.Context) ([]models.Achievement, error) {
	achievements, err := s.achievementRepo.ListRecent(ctx, recentAchievementsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent achievements: %w", err)
	}
	return achievements, nil
}

// TotalPoints sums a user's achievement points
func (s *achievementService) TotalPoints(ctx context.Context, userID int) (int, error) {
	total, err := s.achievementRepo.TotalPointsByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get total points: %w", err)
	}
	return total, nil
}
