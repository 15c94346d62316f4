package models

import "time"

// Achievement represents points earned by a user. Achievements accumulate;
// a user may hold any number of them.
type Achievement struct {
	ID          int       `json:"id"`
	UserID      int       `json:"userId"`
	CourseID    *int      `json:"courseId,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Points      int       `json:"points"`
	EarnedAt    time.Time `json:"earnedAt"`
}

// CreateAchievementRequest represents an admin request to award an achievement
type CreateAchievementRequest struct {
	UserID      int    `json:"userId"`
	CourseID    *int   `json:"courseId,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Points      int    `json:"points"`
}

// AchievementAggregate is the per-user grouping of achievement records used
// by the leaderboard: total points, count and the earliest earn timestamp
type AchievementAggregate struct {
	UserID           int
	TotalPoints      int
	AchievementCount int
	EarliestEarnedAt time.Time
}

// LeaderboardEntry is a derived ranking row; it is never persisted.
// Rank is 1-based and dense: ordering is total points descending, then
// earliest achievement timestamp ascending, then user ID ascending.
type LeaderboardEntry struct {
	Rank             int     `json:"rank"`
	UserID           int     `json:"userId"`
	Name             string  `json:"name"`
	TotalPoints      int     `json:"totalPoints"`
	AchievementCount int     `json:"achievementCount"`
	CoursesCompleted int     `json:"coursesCompleted"`
	CoursesEnrolled  int     `json:"coursesEnrolled"`
	AverageProgress  float64 `json:"averageProgress"`
	TotalHours       float64 `json:"totalHours"`
	StreakDays       int     `json:"streakDays"`
}
