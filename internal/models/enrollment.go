package models

import "time"

// EnrollmentStatus represents the lifecycle state of an enrollment
type EnrollmentStatus string

const (
	EnrollmentStatusPending   EnrollmentStatus = "pending"
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusFree      EnrollmentStatus = "free"
	EnrollmentStatusCancelled EnrollmentStatus = "cancelled"
)

// Enrollment represents the relationship between a student and a course.
// At most one non-cancelled enrollment may exist per (student, course) pair.
// CompletedLessonIDs is the single source of truth for unlock state and
// completion percentage; the percentage fields are derived from it.
type Enrollment struct {
	ID                   int              `json:"id"`
	StudentID            int              `json:"studentId"`
	CourseID             int              `json:"courseId"`
	Status               EnrollmentStatus `json:"status"`
	CompletedLessonIDs   []int            `json:"completedLessonIds"`
	CompletionPercentage float64          `json:"completionPercentage"`
	Completed            bool             `json:"completed"`
	CompletedAt          *time.Time       `json:"completedAt,omitempty"`
	CreatedAt            time.Time        `json:"createdAt"`
}

// IsAccessible reports whether the enrollment grants access to course content
func (e *Enrollment) IsAccessible() bool {
	return e.Status == EnrollmentStatusActive || e.Status == EnrollmentStatusFree
}

// HasCompletedLesson reports whether the lesson is in the completed set
func (e *Enrollment) HasCompletedLesson(lessonID int) bool {
	for _, id := range e.CompletedLessonIDs {
		if id == lessonID {
			return true
		}
	}
	return false
}

// CreateEnrollmentRequest represents a request to enroll in a course
type CreateEnrollmentRequest struct {
	CourseID int `json:"courseId"`
}

// GrantFreeRequest represents a request to grant a free enrollment
type GrantFreeRequest struct {
	StudentID int `json:"studentId"`
	CourseID  int `json:"courseId"`
}

// ProgressResponse represents the progress read path for an enrollment,
// recomputed against the current lesson list
type ProgressResponse struct {
	CourseID             int              `json:"courseId"`
	Status               EnrollmentStatus `json:"status"`
	CompletionPercentage float64          `json:"completionPercentage"`
	Completed            bool             `json:"completed"`
	CompletedAt          *time.Time       `json:"completedAt,omitempty"`
	Lessons              []LessonListItem `json:"lessons"`
}
