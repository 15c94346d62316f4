package models

// User roles, ordered so that a numeric comparison expresses "at least"
const (
	RoleStudent    = 1
	RoleInstructor = 2
	RoleAdmin      = 3
)

// User is the minimal profile projection the core reads. Identity issuance
// and authentication live in an external service; this table only mirrors
// what the leaderboard and authorization checks need.
type User struct {
	ID         int    `json:"id"`
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Role       int    `json:"role"`
	StreakDays int    `json:"streakDays"`
}
