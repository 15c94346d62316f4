package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learntrack/backend/internal/models"
)

// setupEnrollmentTestRepository creates an enrollment repository with a mock database
func setupEnrollmentTestRepository(t *testing.T) (*enrollmentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewEnrollmentRepository(db)

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func TestNewEnrollmentRepository(t *testing.T) {
	db := &sql.DB{}

	repo := NewEnrollmentRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestEnrollmentRepository_GetByStudentAndCourse(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		studentID      int
		courseID       int
		setupMock      func(sqlmock.Sqlmock)
		expectedError  error
		expectedStatus models.EnrollmentStatus
	}{
		{
			name:      "success",
			studentID: 1,
			courseID:  2,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "status", "completion_percentage", "completed", "completed_at", "created_at"}).
					AddRow(10, 1, 2, "active", 33.33, false, nil, createdAt)
				mock.ExpectQuery(`SELECT id, student_id, course_id, status, completion_percentage, completed, completed_at, created_at\s+FROM enrollments\s+WHERE student_id = \? AND course_id = \? AND status != 'cancelled'`).
					WithArgs(1, 2).
					WillReturnRows(rows)
			},
			expectedStatus: models.EnrollmentStatusActive,
		},
		{
			name:      "not found",
			studentID: 1,
			courseID:  999,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, student_id, course_id, status, completion_percentage, completed, completed_at, created_at\s+FROM enrollments\s+WHERE student_id = \? AND course_id = \? AND status != 'cancelled'`).
					WithArgs(1, 999).
					WillReturnError(sql.ErrNoRows)
			},
			expectedError: models.ErrNotFound,
		},
		{
			name:      "database error",
			studentID: 1,
			courseID:  2,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, student_id, course_id, status, completion_percentage, completed, completed_at, created_at\s+FROM enrollments`).
					WithArgs(1, 2).
					WillReturnError(errors.New("database error"))
			},
			expectedError: errors.New("database error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupEnrollmentTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			enrollment, err := repo.GetByStudentAndCourse(context.Background(), tt.studentID, tt.courseID)

			if tt.expectedError != nil {
				assert.Error(t, err)
				if errors.Is(tt.expectedError, models.ErrNotFound) {
					assert.ErrorIs(t, err, models.ErrNotFound)
				}
				assert.Nil(t, enrollment)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, enrollment)
				assert.Equal(t, tt.expectedStatus, enrollment.Status)
				assert.Equal(t, tt.studentID, enrollment.StudentID)
				assert.Equal(t, tt.courseID, enrollment.CourseID)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEnrollmentRepository_Create(t *testing.T) {
	tests := []struct {
		name          string
		enrollment    *models.Enrollment
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
		expectedID    int
	}{
		{
			name: "success",
			enrollment: &models.Enrollment{
				StudentID: 1,
				CourseID:  2,
				Status:    models.EnrollmentStatusPending,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO enrollments \(student_id, course_id, status, completion_percentage, completed\)\s+VALUES \(\?, \?, \?, 0, FALSE\)\s+ON DUPLICATE KEY UPDATE`).
					WithArgs(1, 2, models.EnrollmentStatusPending).
					WillReturnResult(sqlmock.NewResult(10, 1))
			},
			expectedID: 10,
		},
		{
			name: "reclaims a cancelled row and clears its completed lessons",
			enrollment: &models.Enrollment{
				StudentID: 1,
				CourseID:  2,
				Status:    models.EnrollmentStatusPending,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				// Two affected rows signal the ON DUPLICATE KEY UPDATE path
				mock.ExpectExec(`INSERT INTO enrollments \(student_id, course_id, status, completion_percentage, completed\)\s+VALUES \(\?, \?, \?, 0, FALSE\)\s+ON DUPLICATE KEY UPDATE`).
					WithArgs(1, 2, models.EnrollmentStatusPending).
					WillReturnResult(sqlmock.NewResult(10, 2))
				mock.ExpectExec(`DELETE FROM enrollment_lessons WHERE enrollment_id = \?`).
					WithArgs(10).
					WillReturnResult(sqlmock.NewResult(0, 3))
			},
			expectedID: 10,
		},
		{
			name: "database error",
			enrollment: &models.Enrollment{
				StudentID: 1,
				CourseID:  2,
				Status:    models.EnrollmentStatusPending,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO enrollments`).
					WithArgs(1, 2, models.EnrollmentStatusPending).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
		{
			name: "last insert id error",
			enrollment: &models.Enrollment{
				StudentID: 1,
				CourseID:  2,
				Status:    models.EnrollmentStatusFree,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO enrollments`).
					WithArgs(1, 2, models.EnrollmentStatusFree).
					WillReturnResult(sqlmock.NewErrorResult(errors.New("last insert id error")))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupEnrollmentTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.Create(context.Background(), tt.enrollment)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedID, tt.enrollment.ID)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEnrollmentRepository_UpdateStatus(t *testing.T) {
	tests := []struct {
		name          string
		id            int
		status        models.EnrollmentStatus
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
	}{
		{
			name:   "success",
			id:     10,
			status: models.EnrollmentStatusActive,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE enrollments SET status = \? WHERE id = \?`).
					WithArgs(models.EnrollmentStatusActive, 10).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name:   "enrollment not found",
			id:     999,
			status: models.EnrollmentStatusActive,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE enrollments SET status = \? WHERE id = \?`).
					WithArgs(models.EnrollmentStatusActive, 999).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectedError: models.ErrNotFound,
		},
		{
			name:   "database error",
			id:     10,
			status: models.EnrollmentStatusFree,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE enrollments SET status = \? WHERE id = \?`).
					WithArgs(models.EnrollmentStatusFree, 10).
					WillReturnError(errors.New("database error"))
			},
			expectedError: errors.New("database error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupEnrollmentTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.UpdateStatus(context.Background(), tt.id, tt.status)

			if tt.expectedError != nil {
				assert.Error(t, err)
				if errors.Is(tt.expectedError, models.ErrNotFound) {
					assert.ErrorIs(t, err, models.ErrNotFound)
				}
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEnrollmentRepository_AddCompletedLesson(t *testing.T) {
	tests := []struct {
		name          string
		enrollmentID  int
		lessonID      int
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
	}{
		{
			name:         "success",
			enrollmentID: 10,
			lessonID:     5,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT IGNORE INTO enrollment_lessons \(enrollment_id, lesson_id\)`).
					WithArgs(10, 5).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			name:         "already completed is a no-op",
			enrollmentID: 10,
			lessonID:     5,
			setupMock: func(mock sqlmock.Sqlmock) {
				// INSERT IGNORE reports zero affected rows for a duplicate
				mock.ExpectExec(`INSERT IGNORE INTO enrollment_lessons \(enrollment_id, lesson_id\)`).
					WithArgs(10, 5).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
		},
		{
			name:         "database error",
			enrollmentID: 10,
			lessonID:     5,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT IGNORE INTO enrollment_lessons`).
					WithArgs(10, 5).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupEnrollmentTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.AddCompletedLesson(context.Background(), tt.enrollmentID, tt.lessonID)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEnrollmentRepository_SaveProgress(t *testing.T) {
	completedAt := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		percentage    float64
		completed     bool
		completedAt   *time.Time
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
	}{
		{
			name:        "partial progress keeps completed_at null",
			percentage:  66.67,
			completed:   false,
			completedAt: nil,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE enrollments\s+SET completion_percentage = \?,\s+completed = \?,\s+completed_at = COALESCE\(completed_at, \?\)`).
					WithArgs(66.67, false, nil, 10).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name:        "completion writes timestamp once",
			percentage:  100,
			completed:   true,
			completedAt: &completedAt,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE enrollments\s+SET completion_percentage = \?,\s+completed = \?,\s+completed_at = COALESCE\(completed_at, \?\)`).
					WithArgs(100.0, true, &completedAt, 10).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name:        "database error",
			percentage:  50,
			completed:   false,
			completedAt: nil,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE enrollments`).
					WithArgs(50.0, false, nil, 10).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupEnrollmentTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.SaveProgress(context.Background(), 10, tt.percentage, tt.completed, tt.completedAt)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEnrollmentRepository_GetCompletedLessonIDs(t *testing.T) {
	tests := []struct {
		name          string
		enrollmentID  int
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
		expectedIDs   []int
	}{
		{
			name:         "success",
			enrollmentID: 10,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"lesson_id"}).
					AddRow(1).
					AddRow(2).
					AddRow(3)
				mock.ExpectQuery(`SELECT lesson_id\s+FROM enrollment_lessons\s+WHERE enrollment_id = \?`).
					WithArgs(10).
					WillReturnRows(rows)
			},
			expectedIDs: []int{1, 2, 3},
		},
		{
			name:         "empty set",
			enrollmentID: 11,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"lesson_id"})
				mock.ExpectQuery(`SELECT lesson_id\s+FROM enrollment_lessons\s+WHERE enrollment_id = \?`).
					WithArgs(11).
					WillReturnRows(rows)
			},
			expectedIDs: nil,
		},
		{
			name:         "database error",
			enrollmentID: 10,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT lesson_id\s+FROM enrollment_lessons`).
					WithArgs(10).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupEnrollmentTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			lessonIDs, err := repo.GetCompletedLessonIDs(context.Background(), tt.enrollmentID)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, lessonIDs)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedIDs, lessonIDs)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEnrollmentRepository_ListStudentIDsByCourse(t *testing.T) {
	tests := []struct {
		name          string
		courseID      int
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
		expectedIDs   []int
	}{
		{
			name:     "success - active and free students only",
			courseID: 2,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"student_id"}).
					AddRow(1).
					AddRow(4).
					AddRow(7)
				mock.ExpectQuery(`SELECT student_id\s+FROM enrollments\s+WHERE course_id = \? AND status IN \('active', 'free'\)`).
					WithArgs(2).
					WillReturnRows(rows)
			},
			expectedIDs: []int{1, 4, 7},
		},
		{
			name:     "database error",
			courseID: 2,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT student_id\s+FROM enrollments`).
					WithArgs(2).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupEnrollmentTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			studentIDs, err := repo.ListStudentIDsByCourse(context.Background(), tt.courseID)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, studentIDs)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedIDs, studentIDs)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
