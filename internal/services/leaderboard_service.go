package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/learntrack/backend/internal/models"
)

// ProgressReader is the slice of the progress engine the leaderboard reads
// completion data through. The aggregator never re-derives the completion
// invariant itself.
type ProgressReader interface {
	// CourseStats returns the live percentage, completion flag and completed
	// hours for one enrollment
	CourseStats(ctx context.Context, enrollment *models.Enrollment) (float64, bool, float64, error)
}

// LeaderboardCache caches a computed leaderboard snapshot. Get reports a
// cache miss with found=false and no error.
type LeaderboardCache interface {
	Get(ctx context.Context) ([]models.LeaderboardEntry, bool, error)
	Set(ctx context.Context, entries []models.LeaderboardEntry) error
}

type leaderboardService struct {
	achievementRepo AchievementRepository
	enrollmentRepo  EnrollmentRepository
	userRepo        UserRepository
	progress        ProgressReader
	cache           LeaderboardCache
}

// NewLeaderboardService creates a new leaderboard service. cache may be nil,
// in which case every call recomputes from the store.
func NewLeaderboardService(
	achievementRepo AchievementRepository,
	enrollmentRepo EnrollmentRepository,
	userRepo UserRepository,
	progress ProgressReader,
	cache LeaderboardCache,
) *leaderboardService {
	return &leaderboardService{
		achievementRepo: achievementRepo,
		enrollmentRepo:  enrollmentRepo,
		userRepo:        userRepo,
		progress:        progress,
		cache:           cache,
	}
}

// ComputeLeaderboard groups all achievement records by user and returns the
// ranked leaderboard. Ordering is total points descending, earliest
// achievement timestamp ascending, then user ID ascending, so repeated runs
// over the same data always produce the same ranking. Ranks are dense and
// 1-based. Results reflect achievements committed before the scan started;
// the snapshot may be served from cache for the configured TTL.
func (s *leaderboardService) ComputeLeaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	if s.cache != nil {
		entries, found, err := s.cache.Get(ctx)
		if err == nil && found {
			return entries, nil
		}
	}

	entries, err := s.computeLeaderboard(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		// A failed cache write only costs the next caller a recompute
		s.cache.Set(ctx, entries)
	}

	return entries, nil
}

// RankFor returns the leaderboard entry for one user. A user with no
// achievements is not ranked and fails with ErrNotRanked.
func (s *leaderboardService) RankFor(ctx context.Context, userID int) (*models.LeaderboardEntry, error) {
	entries, err := s.ComputeLeaderboard(ctx)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if entries[i].UserID == userID {
			return &entries[i], nil
		}
	}

	return nil, fmt.Errorf("user %d: %w", userID, models.ErrNotRanked)
}

func (s *leaderboardService) computeLeaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	aggregates, err := s.achievementRepo.AggregateByUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate achievements: %w", err)
	}

	sort.Slice(aggregates, func(i, j int) bool {
		if aggregates[i].TotalPoints != aggregates[j].TotalPoints {
			return aggregates[i].TotalPoints > aggregates[j].TotalPoints
		}
		if !aggregates[i].EarliestEarnedAt.Equal(aggregates[j].EarliestEarnedAt) {
			return aggregates[i].EarliestEarnedAt.Before(aggregates[j].EarliestEarnedAt)
		}
		return aggregates[i].UserID < aggregates[j].UserID
	})

	entries := make([]models.LeaderboardEntry, 0, len(aggregates))
	for _, agg := range aggregates {
		entry, err := s.buildEntry(ctx, agg)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				// Achievements of deleted users are skipped, not ranked
				continue
			}
			return nil, err
		}
		entry.Rank = len(entries) + 1
		entries = append(entries, *entry)
	}

	return entries, nil
}

// buildEntry enriches one aggregate with profile and enrollment stats
func (s *leaderboardService) buildEntry(ctx context.Context, agg models.AchievementAggregate) (*models.LeaderboardEntry, error) {
	user, err := s.userRepo.GetByID(ctx, agg.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	enrollments, err := s.enrollmentRepo.ListByStudent(ctx, agg.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	entry := &models.LeaderboardEntry{
		UserID:           agg.UserID,
		Name:             user.FullName,
		TotalPoints:      agg.TotalPoints,
		AchievementCount: agg.AchievementCount,
		CoursesEnrolled:  len(enrollments),
		StreakDays:       user.StreakDays,
	}

	var progressSum float64
	for i := range enrollments {
		percentage, completed, hours, err := s.progress.CourseStats(ctx, &enrollments[i])
		if err != nil {
			return nil, fmt.Errorf("failed to get course stats: %w", err)
		}
		progressSum += percentage
		entry.TotalHours += hours
		if completed {
			entry.CoursesCompleted++
		}
	}
	if len(enrollments) > 0 {
		entry.AverageProgress = math.Round(100*progressSum/float64(len(enrollments))) / 100
	}

	return entry, nil
}
