package services

import (
	"context"
	"time"

	"github.com/learntrack/backend/internal/models"
)

// CourseRepository defines methods for course catalog access. The catalog is
// read-only from the core's point of view and must return lessons in a
// stable, gapless order.
type CourseRepository interface {
	// GetByID retrieves a course with its lessons sorted by order
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the course.
	//
	// Returns the course and an error if any.
	GetByID(ctx context.Context, id int) (*models.Course, error)
}

// EnrollmentRepository defines methods for enrollment data access. All
// enrollment rows are mutated exclusively through this interface.
type EnrollmentRepository interface {
	// GetByID retrieves an enrollment by its ID
	GetByID(ctx context.Context, id int) (*models.Enrollment, error)
	// GetByStudentAndCourse retrieves the non-cancelled enrollment for a
	// (student, course) pair
	GetByStudentAndCourse(ctx context.Context, studentID, courseID int) (*models.Enrollment, error)
	// Create creates a new enrollment record
	Create(ctx context.Context, e *models.Enrollment) error
	// UpdateStatus updates the status of an enrollment
	UpdateStatus(ctx context.Context, id int, status models.EnrollmentStatus) error
	// ListByStudent retrieves all non-cancelled enrollments for a student
	ListByStudent(ctx context.Context, studentID int) ([]models.Enrollment, error)
	// GetCompletedLessonIDs retrieves the completed-lesson set for an enrollment
	GetCompletedLessonIDs(ctx context.Context, enrollmentID int) ([]int, error)
	// AddCompletedLesson idempotently adds a lesson to the completed set
	AddCompletedLesson(ctx context.Context, enrollmentID, lessonID int) error
	// SaveProgress persists the derived completion fields; the completion
	// timestamp is only written once
	SaveProgress(ctx context.Context, enrollmentID int, percentage float64, completed bool, completedAt *time.Time) error
	// ListStudentIDsByCourse retrieves the active/free roster of a course
	ListStudentIDsByCourse(ctx context.Context, courseID int) ([]int, error)
}

// EventRepository defines methods for live-session event access
type EventRepository interface {
	// GetByID retrieves an event by its ID
	GetByID(ctx context.Context, id int) (*models.Event, error)
}

// AttendanceRepository defines methods for attendance data access. All
// attendance rows are mutated exclusively through this interface.
type AttendanceRepository interface {
	// GetByEventAndStudent retrieves the unique (event, student) record
	GetByEventAndStudent(ctx context.Context, eventID, studentID int) (*models.AttendanceRecord, error)
	// UpsertJoin atomically records a live-session join
	UpsertJoin(ctx context.Context, rec *models.AttendanceRecord) error
	// UpsertManual atomically creates or updates an instructor-authored record
	UpsertManual(ctx context.Context, rec *models.AttendanceRecord) error
	// CountByStatusForStudent aggregates a student's records by status
	CountByStatusForStudent(ctx context.Context, studentID int, filters models.AttendanceFilters) (map[models.AttendanceStatus]int, error)
	// ListByEvent retrieves all attendance records for an event
	ListByEvent(ctx context.Context, eventID int) ([]models.AttendanceRecord, error)
}

// AchievementRepository defines methods for achievement data access
type AchievementRepository interface {
	// Create creates a new achievement record
	Create(ctx context.Context, a *models.Achievement) error
	// ListByUser retrieves a user's achievements, most recent first
	ListByUser(ctx context.Context, userID int) ([]models.Achievement, error)
	// ListRecent retrieves the most recently earned achievements
	ListRecent(ctx context.Context, limit int) ([]models.Achievement, error)
	// TotalPointsByUser sums a user's achievement points
	TotalPointsByUser(ctx context.Context, userID int) (int, error)
	// AggregateByUser groups all achievements by user
	AggregateByUser(ctx context.Context) ([]models.AchievementAggregate, error)
}

// UserRepository defines methods for user profile access
type UserRepository interface {
	// GetByID retrieves a user profile by ID
	GetByID(ctx context.Context, id int) (*models.User, error)
}
