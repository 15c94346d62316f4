package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/learntrack/backend/internal/models"
)

type courseRepository struct {
	db *sql.DB
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *sql.DB) *courseRepository {
	return &courseRepository{
		db: db,
	}
}

// GetByID retrieves a course with its lessons sorted by order
func (r *courseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	query := `
		SELECT id, title
		FROM courses
		WHERE id = ?
		LIMIT 1
	`

	var course models.Course
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&course.ID,
		&course.Title,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("course %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course by id: %w", err)
	}

	lessons, err := r.getLessons(ctx, id)
	if err != nil {
		return nil, err
	}
	course.Lessons = lessons

	return &course, nil
}

// getLessons retrieves all lessons for a course, sorted by order
func (r *courseRepository) getLessons(ctx context.Context, courseID int) ([]models.Lesson, error) {
	query := `
		SELECT id, course_id, title, ` + "`order`" + `, duration_minutes
		FROM lessons
		WHERE course_id = ?
		ORDER BY ` + "`order`" + `
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	var lessons []models.Lesson
	for rows.Next() {
		var lesson models.Lesson
		err := rows.Scan(
			&lesson.ID,
			&lesson.CourseID,
			&lesson.Title,
			&lesson.Order,
			&lesson.DurationMinutes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return lessons, nil
}
