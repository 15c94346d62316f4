package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/learntrack/backend/internal/models"
)

type enrollmentService struct {
	enrollmentRepo EnrollmentRepository
	courseRepo     CourseRepository
	locks          *KeyedMutex
}

// NewEnrollmentService creates a new enrollment service. The keyed mutex is
// shared with the progress service so that all mutations of one
// (student, course) enrollment are serialized.
func NewEnrollmentService(
	enrollmentRepo EnrollmentRepository,
	courseRepo CourseRepository,
	locks *KeyedMutex,
) *enrollmentService {
	return &enrollmentService{
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		locks:          locks,
	}
}

// CreateEnrollment enrolls a student in a course. A new enrollment starts in
// pending status with an empty completed-lesson set. If a pending enrollment
// already exists for the pair, that record is returned instead of creating a
// duplicate; an existing active or free enrollment fails with ErrAlreadyEnrolled.
func (s *enrollmentService) CreateEnrollment(ctx context.Context, studentID, courseID int) (*models.Enrollment, error) {
	// Verify the course exists in the catalog
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	unlock := s.locks.Lock(enrollmentKey(studentID, courseID))
	defer unlock()

	existing, err := s.enrollmentRepo.GetByStudentAndCourse(ctx, studentID, courseID)
	if err == nil {
		if existing.Status == models.EnrollmentStatusPending {
			// Reuse the pending record rather than creating a duplicate
			return existing, nil
		}
		return nil, fmt.Errorf("student %d course %d: %w", studentID, courseID, models.ErrAlreadyEnrolled)
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	enrollment := &models.Enrollment{
		StudentID: studentID,
		CourseID:  courseID,
		Status:    models.EnrollmentStatusPending,
	}
	if err := s.enrollmentRepo.Create(ctx, enrollment); err != nil {
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	return enrollment, nil
}

// ActivateEnrollment transitions a pending enrollment to active. It is called
// by the payment webhook on confirmed payment. Activating an already active
// enrollment succeeds idempotently; free and cancelled enrollments fail with
// ErrInvalidState.
func (s *enrollmentService) ActivateEnrollment(ctx context.Context, enrollmentID int) error {
	enrollment, err := s.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		return fmt.Errorf("failed to get enrollment: %w", err)
	}

	unlock := s.locks.Lock(enrollmentKey(enrollment.StudentID, enrollment.CourseID))
	defer unlock()

	// The status may have changed between the lookup and the lock, so the
	// state machine must run on a fresh read
	enrollment, err = s.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		return fmt.Errorf("failed to get enrollment: %w", err)
	}

	switch enrollment.Status {
	case models.EnrollmentStatusPending:
		if err := s.enrollmentRepo.UpdateStatus(ctx, enrollmentID, models.EnrollmentStatusActive); err != nil {
			return fmt.Errorf("failed to activate enrollment: %w", err)
		}
		return nil
	case models.EnrollmentStatusActive:
		// Payment confirmations may be delivered more than once
		return nil
	default:
		return fmt.Errorf("cannot activate %s enrollment %d: %w", enrollment.Status, enrollmentID, models.ErrInvalidState)
	}
}

// GrantFree creates or transitions an enrollment directly to free status,
// bypassing payment. A pending enrollment is upgraded in place, an existing
// free enrollment is returned as-is, and an active enrollment fails with
// ErrAlreadyEnrolled.
func (s *enrollmentService) GrantFree(ctx context.Context, studentID, courseID int) (*models.Enrollment, error) {
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	unlock := s.locks.Lock(enrollmentKey(studentID, courseID))
	defer unlock()

	existing, err := s.enrollmentRepo.GetByStudentAndCourse(ctx, studentID, courseID)
	if err == nil {
		switch existing.Status {
		case models.EnrollmentStatusPending:
			if err := s.enrollmentRepo.UpdateStatus(ctx, existing.ID, models.EnrollmentStatusFree); err != nil {
				return nil, fmt.Errorf("failed to grant free enrollment: %w", err)
			}
			existing.Status = models.EnrollmentStatusFree
			return existing, nil
		case models.EnrollmentStatusFree:
			return existing, nil
		default:
			return nil, fmt.Errorf("student %d course %d: %w", studentID, courseID, models.ErrAlreadyEnrolled)
		}
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	enrollment := &models.Enrollment{
		StudentID: studentID,
		CourseID:  courseID,
		Status:    models.EnrollmentStatusFree,
	}
	if err := s.enrollmentRepo.Create(ctx, enrollment); err != nil {
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	return enrollment, nil
}

// GetEnrollment retrieves the enrollment for a (student, course) pair with
// its completed-lesson set loaded
func (s *enrollmentService) GetEnrollment(ctx context.Context, studentID, courseID int) (*models.Enrollment, error) {
	enrollment, err := s.enrollmentRepo.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	lessonIDs, err := s.enrollmentRepo.GetCompletedLessonIDs(ctx, enrollment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed lessons: %w", err)
	}
	enrollment.CompletedLessonIDs = lessonIDs

	return enrollment, nil
}

// ListEnrollments retrieves all of a student's non-cancelled enrollments
func (s *enrollmentService) ListEnrollments(ctx context.Context, studentID int) ([]models.Enrollment, error) {
	enrollments, err := s.enrollmentRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}
