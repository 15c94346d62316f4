package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/learntrack/backend/internal/models"
)

type achievementRepository struct {
	db *sql.DB
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db *sql.DB) *achievementRepository {
	return &achievementRepository{
		db: db,
	}
}

// Create creates a new achievement record
func (r *achievementRepository) Create(ctx context.Context, a *models.Achievement) error {
	query := `
		INSERT INTO achievements (user_id, course_id, title, description, points, earned_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		a.UserID,
		a.CourseID,
		a.Title,
		a.Description,
		a.Points,
		a.EarnedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create achievement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	a.ID = int(id)
	return nil
}

// ListByUser retrieves a user's achievements, most recent first
func (r *achievementRepository) ListByUser(ctx context.Context, userID int) ([]models.Achievement, error) {
	query := `
		SELECT id, user_id, course_id, title, description, points, earned_at
		FROM achievements
		WHERE user_id = ?
		ORDER BY earned_at DESC
	`

	return r.queryAchievements(ctx, query, userID)
}

// ListRecent retrieves the most recently earned achievements across all users
func (r *achievementRepository) ListRecent(ctx context.Context, limit int) ([]models.Achievement, error) {
	query := `
		SELECT id, user_id, course_id, title, description, points, earned_at
		FROM achievements
		ORDER BY earned_at DESC
		LIMIT ?
	`

	return r.queryAchievements(ctx, query, limit)
}

// TotalPointsByUser sums a user's achievement points
func (r *achievementRepository) TotalPointsByUser(ctx context.Context, userID int) (int, error) {
	query := `
		SELECT COALESCE(SUM(points), 0)
		FROM achievements
		WHERE user_id = ?
	`

	var total int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum achievement points: %w", err)
	}

	return total, nil
}

// AggregateByUser groups all achievement records by user, returning total
// points, achievement count and the earliest earn timestamp per user.
// Ordering is left to the caller.
func (r *achievementRepository) AggregateByUser(ctx context.Context) ([]models.AchievementAggregate, error) {
	query := `
		SELECT user_id, SUM(points), COUNT(*), MIN(earned_at)
		FROM achievements
		GROUP BY user_id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievement aggregates: %w", err)
	}
	defer rows.Close()

	var aggregates []models.AchievementAggregate
	for rows.Next() {
		var agg models.AchievementAggregate
		err := rows.Scan(
			&agg.UserID,
			&agg.TotalPoints,
			&agg.AchievementCount,
			&agg.EarliestEarnedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan achievement aggregate: %w", err)
		}
		aggregates = append(aggregates, agg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return aggregates, nil
}

// queryAchievements runs an achievement list query and scans the rows
func (r *achievementRepository) queryAchievements(ctx context.Context, query string, args ...any) ([]models.Achievement, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer rows.Close()

	var achievements []models.Achievement
	for rows.Next() {
		var a models.Achievement
		var courseID sql.NullInt64
		var description sql.NullString
		err := rows.Scan(
			&a.ID,
			&a.UserID,
			&courseID,
			&a.Title,
			&description,
			&a.Points,
			&a.EarnedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		if courseID.Valid {
			id := int(courseID.Int64)
			a.CourseID = &id
		}
		if description.Valid {
			a.Description = description.String
		}
		achievements = append(achievements, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return achievements, nil
}
