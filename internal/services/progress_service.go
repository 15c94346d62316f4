package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/learntrack/backend/internal/models"
)

// ComputeProgress returns the completion percentage of an enrollment against
// the course's current lesson list, rounded to two decimals. Lessons in the
// completed set that are no longer in the catalog do not count; a course with
// zero lessons is always at 0. The function is pure and never mutates state.
func ComputeProgress(e *models.Enrollment, course *models.Course) float64 {
	if len(course.Lessons) == 0 {
		return 0
	}

	completed := 0
	for _, lesson := range course.Lessons {
		if e.HasCompletedLesson(lesson.ID) {
			completed++
		}
	}

	percentage := 100 * float64(completed) / float64(len(course.Lessons))
	return math.Round(percentage*100) / 100
}

// CanAccessLesson reports whether the enrollment may access the lesson.
// The first lesson of a course is always unlocked for an active or free
// enrollment; any other lesson unlocks once its immediate predecessor by
// order is in the completed set. The returned error carries the denial
// reason: ErrNotEnrolled, ErrPreviousLessonIncomplete, or ErrNotFound when
// the lesson is not part of the course.
func CanAccessLesson(e *models.Enrollment, course *models.Course, lessonID int) (bool, error) {
	if !e.IsAccessible() {
		return false, models.ErrNotEnrolled
	}

	var lesson *models.Lesson
	for i := range course.Lessons {
		if course.Lessons[i].ID == lessonID {
			lesson = &course.Lessons[i]
			break
		}
	}
	if lesson == nil {
		return false, fmt.Errorf("lesson %d in course %d: %w", lessonID, course.ID, models.ErrNotFound)
	}

	if lesson.Order == 1 {
		return true, nil
	}

	for i := range course.Lessons {
		if course.Lessons[i].Order == lesson.Order-1 {
			if e.HasCompletedLesson(course.Lessons[i].ID) {
				return true, nil
			}
			break
		}
	}

	return false, models.ErrPreviousLessonIncomplete
}

type progressService struct {
	enrollmentRepo EnrollmentRepository
	courseRepo     CourseRepository
	locks          *KeyedMutex
}

// NewProgressService creates a new progress service
func NewProgressService(
	enrollmentRepo EnrollmentRepository,
	courseRepo CourseRepository,
	locks *KeyedMutex,
) *progressService {
	return &progressService{
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		locks:          locks,
	}
}

// CheckLessonAccess loads the enrollment and course and evaluates the
// sequential-unlocking rule for one lesson
func (s *progressService) CheckLessonAccess(ctx context.Context, studentID, courseID, lessonID int) (bool, error) {
	enrollment, course, err := s.loadEnrollmentWithCourse(ctx, studentID, courseID)
	if err != nil {
		return false, err
	}

	return CanAccessLesson(enrollment, course, lessonID)
}

// CompleteLesson marks a lesson as completed for a student's enrollment.
// The whole read-modify-write runs under the enrollment's keyed lock so two
// concurrent completions can never double-count progress. Completing an
// already-completed lesson is a no-op that returns the current state. On the
// transition to 100% the completion timestamp is recorded exactly once.
func (s *progressService) CompleteLesson(ctx context.Context, studentID, courseID, lessonID int) (*models.Enrollment, error) {
	unlock := s.locks.Lock(enrollmentKey(studentID, courseID))
	defer unlock()

	enrollment, course, err := s.loadEnrollmentWithCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}

	if allowed, reason := CanAccessLesson(enrollment, course, lessonID); !allowed {
		return nil, fmt.Errorf("lesson %d access denied: %w", lessonID, reason)
	}

	if !enrollment.HasCompletedLesson(lessonID) {
		if err := s.enrollmentRepo.AddCompletedLesson(ctx, enrollment.ID, lessonID); err != nil {
			return nil, fmt.Errorf("failed to add completed lesson: %w", err)
		}
		enrollment.CompletedLessonIDs = append(enrollment.CompletedLessonIDs, lessonID)
	}

	percentage := ComputeProgress(enrollment, course)
	completed := percentage == 100 && len(course.Lessons) > 0

	// Record the completion timestamp only on the first transition to 100%
	var completedAt *time.Time
	if completed && enrollment.CompletedAt == nil {
		now := time.Now().UTC()
		completedAt = &now
	}

	if err := s.enrollmentRepo.SaveProgress(ctx, enrollment.ID, percentage, completed, completedAt); err != nil {
		return nil, fmt.Errorf("failed to save progress: %w", err)
	}

	enrollment.CompletionPercentage = percentage
	enrollment.Completed = completed
	if enrollment.CompletedAt == nil {
		enrollment.CompletedAt = completedAt
	}

	return enrollment, nil
}

// GetProgress is the read path: it recomputes completion against the current
// lesson list without persisting, so catalog changes are reflected
// immediately. Unlock state is derived from the completed set, never stored.
func (s *progressService) GetProgress(ctx context.Context, studentID, courseID int) (*models.ProgressResponse, error) {
	enrollment, course, err := s.loadEnrollmentWithCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}

	percentage := ComputeProgress(enrollment, course)

	lessons := make([]models.LessonListItem, 0, len(course.Lessons))
	for _, lesson := range course.Lessons {
		unlocked, _ := CanAccessLesson(enrollment, course, lesson.ID)
		lessons = append(lessons, models.LessonListItem{
			ID:        lesson.ID,
			Title:     lesson.Title,
			Order:     lesson.Order,
			Completed: enrollment.HasCompletedLesson(lesson.ID),
			Unlocked:  unlocked,
		})
	}

	return &models.ProgressResponse{
		CourseID:             courseID,
		Status:               enrollment.Status,
		CompletionPercentage: percentage,
		Completed:            percentage == 100 && len(course.Lessons) > 0,
		CompletedAt:          enrollment.CompletedAt,
		Lessons:              lessons,
	}, nil
}

// IsCertificateEligible reports whether the enrollment currently qualifies
// for a certificate. Completion is re-evaluated against the current lesson
// list, so a course that grew after completion can revoke eligibility; the
// recorded completion timestamp is untouched either way.
func (s *progressService) IsCertificateEligible(ctx context.Context, studentID, courseID int) (bool, error) {
	enrollment, course, err := s.loadEnrollmentWithCourse(ctx, studentID, courseID)
	if err != nil {
		return false, err
	}

	return ComputeProgress(enrollment, course) == 100 && len(course.Lessons) > 0, nil
}

// CourseStats returns the live completion percentage, completion flag and
// hours of completed lesson time for one enrollment. It is the single place
// the leaderboard reads completion data from.
func (s *progressService) CourseStats(ctx context.Context, enrollment *models.Enrollment) (float64, bool, float64, error) {
	course, err := s.courseRepo.GetByID(ctx, enrollment.CourseID)
	if err != nil {
		return 0, false, 0, fmt.Errorf("failed to get course: %w", err)
	}

	if enrollment.CompletedLessonIDs == nil {
		lessonIDs, err := s.enrollmentRepo.GetCompletedLessonIDs(ctx, enrollment.ID)
		if err != nil {
			return 0, false, 0, fmt.Errorf("failed to get completed lessons: %w", err)
		}
		enrollment.CompletedLessonIDs = lessonIDs
	}

	percentage := ComputeProgress(enrollment, course)
	completed := percentage == 100 && len(course.Lessons) > 0

	minutes := 0
	for _, lesson := range course.Lessons {
		if enrollment.HasCompletedLesson(lesson.ID) {
			minutes += lesson.DurationMinutes
		}
	}

	return percentage, completed, float64(minutes) / 60, nil
}

// loadEnrollmentWithCourse loads the enrollment, its completed-lesson set
// and the course in one place
func (s *progressService) loadEnrollmentWithCourse(ctx context.Context, studentID, courseID int) (*models.Enrollment, *models.Course, error) {
	enrollment, err := s.enrollmentRepo.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	lessonIDs, err := s.enrollmentRepo.GetCompletedLessonIDs(ctx, enrollment.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get completed lessons: %w", err)
	}
	enrollment.CompletedLessonIDs = lessonIDs

	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get course: %w", err)
	}

	return enrollment, course, nil
}
