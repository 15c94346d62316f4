package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/learntrack/backend/internal/models"
)

// assertNotCalledErr is returned by mocks whose methods a test expects to
// stay untouched
var assertNotCalledErr = errors.New("unexpected repository call")

// mustParseTime parses an RFC 3339 timestamp or fails the test
func mustParseTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

// mockCourseRepository is a mock implementation of CourseRepository
type mockCourseRepository struct {
	course *models.Course
	err    error
}

func (m *mockCourseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.course == nil || m.course.ID != id {
		return nil, fmt.Errorf("course %d: %w", id, models.ErrNotFound)
	}
	return m.course, nil
}

// mockEnrollmentRepository is a mock implementation of EnrollmentRepository
type mockEnrollmentRepository struct {
	enrollment   *models.Enrollment
	enrollments  []models.Enrollment
	completedIDs []int
	roster       []int
	err          error

	created          *models.Enrollment
	updatedStatus    models.EnrollmentStatus
	addedLessonIDs   []int
	savedPercentage  float64
	savedCompleted   bool
	savedCompletedAt *time.Time
	saveCalls        int
}

func (m *mockEnrollmentRepository) GetByID(ctx context.Context, id int) (*models.Enrollment, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.enrollment == nil || m.enrollment.ID != id {
		return nil, fmt.Errorf("enrollment %d: %w", id, models.ErrNotFound)
	}
	return m.enrollment, nil
}

func (m *mockEnrollmentRepository) GetByStudentAndCourse(ctx context.Context, studentID, courseID int) (*models.Enrollment, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.enrollment == nil {
		return nil, fmt.Errorf("enrollment for student %d course %d: %w", studentID, courseID, models.ErrNotFound)
	}
	return m.enrollment, nil
}

func (m *mockEnrollmentRepository) Create(ctx context.Context, e *models.Enrollment) error {
	if m.err != nil {
		return m.err
	}
	e.ID = 10
	m.created = e
	return nil
}

func (m *mockEnrollmentRepository) UpdateStatus(ctx context.Context, id int, status models.EnrollmentStatus) error {
	if m.err != nil {
		return m.err
	}
	m.updatedStatus = status
	return nil
}

func (m *mockEnrollmentRepository) ListByStudent(ctx context.Context, studentID int) ([]models.Enrollment, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.enrollments, nil
}

func (m *mockEnrollmentRepository) GetCompletedLessonIDs(ctx context.Context, enrollmentID int) ([]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.completedIDs, nil
}

func (m *mockEnrollmentRepository) AddCompletedLesson(ctx context.Context, enrollmentID, lessonID int) error {
	if m.err != nil {
		return m.err
	}
	m.addedLessonIDs = append(m.addedLessonIDs, lessonID)
	return nil
}

func (m *mockEnrollmentRepository) SaveProgress(ctx context.Context, enrollmentID int, percentage float64, completed bool, completedAt *time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.savedPercentage = percentage
	m.savedCompleted = completed
	m.savedCompletedAt = completedAt
	m.saveCalls++
	return nil
}

func (m *mockEnrollmentRepository) ListStudentIDsByCourse(ctx context.Context, courseID int) ([]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.roster, nil
}

// mockEventRepository is a mock implementation of EventRepository
type mockEventRepository struct {
	event *models.Event
	err   error
}

func (m *mockEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.event == nil || m.event.ID != id {
		return nil, fmt.Errorf("event %d: %w", id, models.ErrNotFound)
	}
	return m.event, nil
}

// mockAttendanceRepository is a mock implementation of AttendanceRepository
type mockAttendanceRepository struct {
	record  *models.AttendanceRecord
	records []models.AttendanceRecord
	counts  map[models.AttendanceStatus]int
	err     error

	upsertedJoin   *models.AttendanceRecord
	upsertedManual *models.AttendanceRecord
}

func (m *mockAttendanceRepository) GetByEventAndStudent(ctx context.Context, eventID, studentID int) (*models.AttendanceRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.record == nil {
		return nil, fmt.Errorf("attendance for event %d student %d: %w", eventID, studentID, models.ErrNotFound)
	}
	return m.record, nil
}

func (m *mockAttendanceRepository) UpsertJoin(ctx context.Context, rec *models.AttendanceRecord) error {
	if m.err != nil {
		return m.err
	}
	m.upsertedJoin = rec
	m.record = rec
	return nil
}

func (m *mockAttendanceRepository) UpsertManual(ctx context.Context, rec *models.AttendanceRecord) error {
	if m.err != nil {
		return m.err
	}
	m.upsertedManual = rec
	m.record = rec
	return nil
}

func (m *mockAttendanceRepository) CountByStatusForStudent(ctx context.Context, studentID int, filters models.AttendanceFilters) (map[models.AttendanceStatus]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.counts, nil
}

func (m *mockAttendanceRepository) ListByEvent(ctx context.Context, eventID int) ([]models.AttendanceRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

// mockAchievementRepository is a mock implementation of AchievementRepository
type mockAchievementRepository struct {
	achievements []models.Achievement
	aggregates   []models.AchievementAggregate
	totalPoints  int
	err          error

	created *models.Achievement
}

func (m *mockAchievementRepository) Create(ctx context.Context, a *models.Achievement) error {
	if m.err != nil {
		return m.err
	}
	a.ID = 5
	m.created = a
	return nil
}

func (m *mockAchievementRepository) ListByUser(ctx context.Context, userID int) ([]models.Achievement, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.achievements, nil
}

func (m *mockAchievementRepository) ListRecent(ctx context.Context, limit int) ([]models.Achievement, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.achievements) > limit {
		return m.achievements[:limit], nil
	}
	return m.achievements, nil
}

func (m *mockAchievementRepository) TotalPointsByUser(ctx context.Context, userID int) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.totalPoints, nil
}

func (m *mockAchievementRepository) AggregateByUser(ctx context.Context) ([]models.AchievementAggregate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.aggregates, nil
}

// mockUserRepository is a mock implementation of UserRepository
type mockUserRepository struct {
	users map[int]*models.User
	err   error
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	user, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	return user, nil
}

// courseStats is the canned per-course result of mockProgressReader
type courseStats struct {
	percentage float64
	completed  bool
	hours      float64
}

// mockProgressReader is a mock implementation of ProgressReader
type mockProgressReader struct {
	stats map[int]courseStats // keyed by course ID
	err   error
}

func (m *mockProgressReader) CourseStats(ctx context.Context, enrollment *models.Enrollment) (float64, bool, float64, error) {
	if m.err != nil {
		return 0, false, 0, m.err
	}
	s := m.stats[enrollment.CourseID]
	return s.percentage, s.completed, s.hours, nil
}

// mockLeaderboardCache is a mock implementation of LeaderboardCache
type mockLeaderboardCache struct {
	entries []models.LeaderboardEntry
	found   bool
	getErr  error
	setErr  error

	setEntries []models.LeaderboardEntry
	setCalls   int
}

func (m *mockLeaderboardCache) Get(ctx context.Context) ([]models.LeaderboardEntry, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	return m.entries, m.found, nil
}

func (m *mockLeaderboardCache) Set(ctx context.Context, entries []models.LeaderboardEntry) error {
	m.setEntries = entries
	m.setCalls++
	return m.setErr
}
