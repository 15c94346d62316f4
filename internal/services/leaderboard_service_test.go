package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learntrack/backend/internal/models"
)

func leaderboardFixture() (*mockAchievementRepository, *mockEnrollmentRepository, *mockUserRepository, *mockProgressReader) {
	earliest := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)

	achievementRepo := &mockAchievementRepository{
		aggregates: []models.AchievementAggregate{
			{UserID: 1, TotalPoints: 150, AchievementCount: 3, EarliestEarnedAt: earliest.Add(time.Hour)},
			{UserID: 2, TotalPoints: 150, AchievementCount: 2, EarliestEarnedAt: earliest},
			{UserID: 3, TotalPoints: 40, AchievementCount: 1, EarliestEarnedAt: earliest},
		},
	}
	enrollmentRepo := &mockEnrollmentRepository{}
	userRepo := &mockUserRepository{
		users: map[int]*models.User{
			1: {ID: 1, FullName: "Aidana", Role: models.RoleStudent, StreakDays: 4},
			2: {ID: 2, FullName: "Bekzat", Role: models.RoleStudent, StreakDays: 12},
			3: {ID: 3, FullName: "Camila", Role: models.RoleStudent},
		},
	}
	progress := &mockProgressReader{stats: map[int]courseStats{}}

	return achievementRepo, enrollmentRepo, userRepo, progress
}

func TestLeaderboardService_ComputeLeaderboard(t *testing.T) {
	t.Run("orders by points then earliest achievement then user id", func(t *testing.T) {
		achievementRepo, enrollmentRepo, userRepo, progress := leaderboardFixture()
		svc := NewLeaderboardService(achievementRepo, enrollmentRepo, userRepo, progress, nil)

		entries, err := svc.ComputeLeaderboard(context.Background())

		require.NoError(t, err)
		require.Len(t, entries, 3)

		// Users 1 and 2 tie on points; user 2 earned first
		assert.Equal(t, 2, entries[0].UserID)
		assert.Equal(t, 1, entries[0].Rank)
		assert.Equal(t, 1, entries[1].UserID)
		assert.Equal(t, 2, entries[1].Rank)
		assert.Equal(t, 3, entries[2].UserID)
		assert.Equal(t, 3, entries[2].Rank)

		assert.Equal(t, "Bekzat", entries[0].Name)
		assert.Equal(t, 150, entries[0].TotalPoints)
		assert.Equal(t, 12, entries[0].StreakDays)
	})

	t.Run("equal timestamps break the tie by user id", func(t *testing.T) {
		earliest := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
		achievementRepo := &mockAchievementRepository{
			aggregates: []models.AchievementAggregate{
				{UserID: 8, TotalPoints: 50, AchievementCount: 1, EarliestEarnedAt: earliest},
				{UserID: 5, TotalPoints: 50, AchievementCount: 1, EarliestEarnedAt: earliest},
			},
		}
		userRepo := &mockUserRepository{
			users: map[int]*models.User{
				5: {ID: 5, FullName: "Erik"},
				8: {ID: 8, FullName: "Hana"},
			},
		}
		svc := NewLeaderboardService(achievementRepo, &mockEnrollmentRepository{}, userRepo, &mockProgressReader{}, nil)

		entries, err := svc.ComputeLeaderboard(context.Background())

		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, 5, entries[0].UserID)
		assert.Equal(t, 8, entries[1].UserID)
	})

	t.Run("deleted users are skipped and ranks stay dense", func(t *testing.T) {
		achievementRepo, enrollmentRepo, userRepo, progress := leaderboardFixture()
		delete(userRepo.users, 1)
		svc := NewLeaderboardService(achievementRepo, enrollmentRepo, userRepo, progress, nil)

		entries, err := svc.ComputeLeaderboard(context.Background())

		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, 2, entries[0].UserID)
		assert.Equal(t, 1, entries[0].Rank)
		assert.Equal(t, 3, entries[1].UserID)
		assert.Equal(t, 2, entries[1].Rank)
	})

	t.Run("enriches entries with course stats", func(t *testing.T) {
		achievementRepo, _, userRepo, _ := leaderboardFixture()
		enrollmentRepo := &mockEnrollmentRepository{
			enrollments: []models.Enrollment{
				{ID: 10, StudentID: 2, CourseID: 2, Status: models.EnrollmentStatusActive},
				{ID: 11, StudentID: 2, CourseID: 5, Status: models.EnrollmentStatusFree},
			},
		}
		progress := &mockProgressReader{
			stats: map[int]courseStats{
				2: {percentage: 100, completed: true, hours: 2.25},
				5: {percentage: 50, completed: false, hours: 1.5},
			},
		}
		svc := NewLeaderboardService(achievementRepo, enrollmentRepo, userRepo, progress, nil)

		entries, err := svc.ComputeLeaderboard(context.Background())

		require.NoError(t, err)
		top := entries[0]
		assert.Equal(t, 2, top.UserID)
		assert.Equal(t, 2, top.CoursesEnrolled)
		assert.Equal(t, 1, top.CoursesCompleted)
		assert.Equal(t, 75.0, top.AverageProgress)
		assert.Equal(t, 3.75, top.TotalHours)
	})

	t.Run("identical data ranks identically on repeated runs", func(t *testing.T) {
		achievementRepo, enrollmentRepo, userRepo, progress := leaderboardFixture()
		svc := NewLeaderboardService(achievementRepo, enrollmentRepo, userRepo, progress, nil)

		first, err := svc.ComputeLeaderboard(context.Background())
		require.NoError(t, err)
		second, err := svc.ComputeLeaderboard(context.Background())
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("cache hit skips recomputation", func(t *testing.T) {
		cached := []models.LeaderboardEntry{{Rank: 1, UserID: 42, Name: "Cached", TotalPoints: 10}}
		cache := &mockLeaderboardCache{entries: cached, found: true}
		achievementRepo := &mockAchievementRepository{err: assertNotCalledErr}
		svc := NewLeaderboardService(achievementRepo, &mockEnrollmentRepository{}, &mockUserRepository{}, &mockProgressReader{}, cache)

		entries, err := svc.ComputeLeaderboard(context.Background())

		require.NoError(t, err)
		assert.Equal(t, cached, entries)
		assert.Zero(t, cache.setCalls)
	})

	t.Run("cache miss computes and stores the snapshot", func(t *testing.T) {
		achievementRepo, enrollmentRepo, userRepo, progress := leaderboardFixture()
		cache := &mockLeaderboardCache{}
		svc := NewLeaderboardService(achievementRepo, enrollmentRepo, userRepo, progress, cache)

		entries, err := svc.ComputeLeaderboard(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, cache.setCalls)
		assert.Equal(t, entries, cache.setEntries)
	})
}

func TestLeaderboardService_RankFor(t *testing.T) {
	t.Run("returns the user's entry", func(t *testing.T) {
		achievementRepo, enrollmentRepo, userRepo, progress := leaderboardFixture()
		svc := NewLeaderboardService(achievementRepo, enrollmentRepo, userRepo, progress, nil)

		entry, err := svc.RankFor(context.Background(), 3)

		require.NoError(t, err)
		assert.Equal(t, 3, entry.Rank)
		assert.Equal(t, "Camila", entry.Name)
		assert.Equal(t, 40, entry.TotalPoints)
	})

	t.Run("user without achievements is not ranked", func(t *testing.T) {
		achievementRepo, enrollmentRepo, userRepo, progress := leaderboardFixture()
		svc := NewLeaderboardService(achievementRepo, enrollmentRepo, userRepo, progress, nil)

		_, err := svc.RankFor(context.Background(), 42)

		assert.ErrorIs(t, err, models.ErrNotRanked)
	})
}
