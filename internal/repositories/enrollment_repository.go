package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/learntrack/backend/internal/models"
)

type enrollmentRepository struct {
	db *sql.DB
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db *sql.DB) *enrollmentRepository {
	return &enrollmentRepository{
		db: db,
	}
}

const enrollmentColumns = `id, student_id, course_id, status, completion_percentage, completed, completed_at, created_at`

// scanEnrollment scans a single enrollment row
func scanEnrollment(row interface{ Scan(...any) error }) (*models.Enrollment, error) {
	var e models.Enrollment
	var completedAt sql.NullTime
	err := row.Scan(
		&e.ID,
		&e.StudentID,
		&e.CourseID,
		&e.Status,
		&e.CompletionPercentage,
		&e.Completed,
		&completedAt,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		e.CompletedAt = &completedAt.Time
	}
	return &e, nil
}

// GetByID retrieves an enrollment by its ID
func (r *enrollmentRepository) GetByID(ctx context.Context, id int) (*models.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE id = ?
		LIMIT 1
	`

	e, err := scanEnrollment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("enrollment %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment by id: %w", err)
	}

	return e, nil
}

// GetByStudentAndCourse retrieves the non-cancelled enrollment for a
// (student, course) pair. At most one such row exists.
func (r *enrollmentRepository) GetByStudentAndCourse(ctx context.Context, studentID, courseID int) (*models.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE student_id = ? AND course_id = ? AND status != 'cancelled'
		LIMIT 1
	`

	e, err := scanEnrollment(r.db.QueryRowContext(ctx, query, studentID, courseID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("enrollment for student %d course %d: %w", studentID, courseID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	return e, nil
}

// Create creates a new enrollment record. A cancelled row left over from an
// earlier enrollment of the same (student, course) pair is reclaimed in place
// with all progress fields reset, so the unique key never blocks
// re-enrollment.
func (r *enrollmentRepository) Create(ctx context.Context, e *models.Enrollment) error {
	query := `
		INSERT INTO enrollments (student_id, course_id, status, completion_percentage, completed)
		VALUES (?, ?, ?, 0, FALSE)
		ON DUPLICATE KEY UPDATE
			id = LAST_INSERT_ID(id),
			status = VALUES(status),
			completion_percentage = 0,
			completed = FALSE,
			completed_at = NULL
	`

	result, err := r.db.ExecContext(ctx, query, e.StudentID, e.CourseID, e.Status)
	if err != nil {
		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	e.ID = int(id)

	// MySQL reports two affected rows when the upsert updated an existing
	// row. A reclaimed enrollment still carries the old completed-lesson
	// set, which must not leak into the fresh one.
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 2 {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM enrollment_lessons WHERE enrollment_id = ?`, e.ID); err != nil {
			return fmt.Errorf("failed to clear completed lessons: %w", err)
		}
	}

	return nil
}

// UpdateStatus updates the status of an enrollment
func (r *enrollmentRepository) UpdateStatus(ctx context.Context, id int, status models.EnrollmentStatus) error {
	query := `UPDATE enrollments SET status = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update enrollment status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("enrollment %d: %w", id, models.ErrNotFound)
	}

	return nil
}

// ListByStudent retrieves all non-cancelled enrollments for a student
func (r *enrollmentRepository) ListByStudent(ctx context.Context, studentID int) ([]models.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE student_id = ? AND status != 'cancelled'
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []models.Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return enrollments, nil
}

// GetCompletedLessonIDs retrieves the completed-lesson set for an enrollment
func (r *enrollmentRepository) GetCompletedLessonIDs(ctx context.Context, enrollmentID int) ([]int, error) {
	query := `
		SELECT lesson_id
		FROM enrollment_lessons
		WHERE enrollment_id = ?
	`

	rows, err := r.db.QueryContext(ctx, query, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed lessons: %w", err)
	}
	defer rows.Close()

	var lessonIDs []int
	for rows.Next() {
		var lessonID int
		if err := rows.Scan(&lessonID); err != nil {
			return nil, fmt.Errorf("failed to scan lesson id: %w", err)
		}
		lessonIDs = append(lessonIDs, lessonID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return lessonIDs, nil
}

// AddCompletedLesson adds a lesson to the completed set. Adding a lesson that
// is already present is a no-op, never a duplicate row.
func (r *enrollmentRepository) AddCompletedLesson(ctx context.Context, enrollmentID, lessonID int) error {
	query := `
		INSERT IGNORE INTO enrollment_lessons (enrollment_id, lesson_id)
		VALUES (?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, enrollmentID, lessonID)
	if err != nil {
		return fmt.Errorf("failed to add completed lesson: %w", err)
	}

	return nil
}

// SaveProgress persists the derived completion fields. completed_at is only
// written when it is still NULL, keeping the first completion timestamp
// immutable.
func (r *enrollmentRepository) SaveProgress(ctx context.Context, enrollmentID int, percentage float64, completed bool, completedAt *time.Time) error {
	query := `
		UPDATE enrollments
		SET completion_percentage = ?,
			completed = ?,
			completed_at = COALESCE(completed_at, ?)
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query, percentage, completed, completedAt, enrollmentID)
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}

	return nil
}

// ListStudentIDsByCourse retrieves the roster of students with an active or
// free enrollment in a course
func (r *enrollmentRepository) ListStudentIDsByCourse(ctx context.Context, courseID int) ([]int, error) {
	query := `
		SELECT student_id
		FROM enrollments
		WHERE course_id = ? AND status IN ('active', 'free')
		ORDER BY student_id
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query course roster: %w", err)
	}
	defer rows.Close()

	var studentIDs []int
	for rows.Next() {
		var studentID int
		if err := rows.Scan(&studentID); err != nil {
			return nil, fmt.Errorf("failed to scan student id: %w", err)
		}
		studentIDs = append(studentIDs, studentID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return studentIDs, nil
}
