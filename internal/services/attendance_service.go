package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/learntrack/backend/internal/models"
)

type attendanceService struct {
	attendanceRepo AttendanceRepository
	eventRepo      EventRepository
	enrollmentRepo EnrollmentRepository
	locks          *KeyedMutex
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(
	attendanceRepo AttendanceRepository,
	eventRepo EventRepository,
	enrollmentRepo EnrollmentRepository,
	locks *KeyedMutex,
) *attendanceService {
	return &attendanceService{
		attendanceRepo: attendanceRepo,
		eventRepo:      eventRepo,
		enrollmentRepo: enrollmentRepo,
		locks:          locks,
	}
}

// RecordJoin records a live-session join for a student. The first join
// creates the unique (event, student) record as attended/automatic; any
// later join only moves the check-in time. The upsert is a single atomic
// statement, so repeated joins can never produce a second row.
func (s *attendanceService) RecordJoin(ctx context.Context, eventID, studentID int, timestamp time.Time) (*models.AttendanceRecord, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	rec := &models.AttendanceRecord{
		EventID:      eventID,
		StudentID:    studentID,
		CourseID:     event.CourseID,
		InstructorID: event.InstructorID,
		Status:       models.AttendanceStatusAttended,
		MeetingDate:  event.StartsAt,
		CheckInTime:  &timestamp,
		RecordedType: models.RecordedTypeAutomatic,
	}
	if err := s.attendanceRepo.UpsertJoin(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to record join: %w", err)
	}

	record, err := s.attendanceRepo.GetByEventAndStudent(ctx, eventID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance record: %w", err)
	}

	return record, nil
}

// UpsertManualRecord creates or updates the instructor-authored attendance
// record for an (event, student) pair. Only the event's owning instructor or
// an admin may call it; anyone else fails with ErrForbidden. Fields left
// empty in the request keep their existing values. The merge runs under the
// record's keyed lock.
func (s *attendanceService) UpsertManualRecord(ctx context.Context, eventID, studentID, callerID, callerRole int, req *models.ManualAttendanceRequest) (*models.AttendanceRecord, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	if event.InstructorID != callerID && callerRole != models.RoleAdmin {
		return nil, fmt.Errorf("user %d may not record attendance for event %d: %w", callerID, eventID, models.ErrForbidden)
	}

	unlock := s.locks.Lock(attendanceKey(eventID, studentID))
	defer unlock()

	rec := &models.AttendanceRecord{
		EventID:      eventID,
		StudentID:    studentID,
		CourseID:     event.CourseID,
		InstructorID: callerID,
		Status:       models.AttendanceStatusAttended,
		MeetingDate:  event.StartsAt,
		RecordedType: models.RecordedTypeManual,
	}

	existing, err := s.attendanceRepo.GetByEventAndStudent(ctx, eventID, studentID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to get attendance record: %w", err)
	}
	if existing != nil {
		rec.Status = existing.Status
		rec.CheckInTime = existing.CheckInTime
		rec.CheckOutTime = existing.CheckOutTime
		rec.DurationMinutes = existing.DurationMinutes
		rec.Remarks = existing.Remarks
	}

	if req.Status != "" {
		rec.Status = req.Status
	}
	if req.Remarks != "" {
		rec.Remarks = req.Remarks
	}
	if req.DurationMinutes != nil {
		rec.DurationMinutes = req.DurationMinutes
	}
	if req.CheckInTime != nil {
		rec.CheckInTime = req.CheckInTime
	}
	if req.CheckOutTime != nil {
		rec.CheckOutTime = req.CheckOutTime
	}

	if err := s.attendanceRepo.UpsertManual(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to upsert manual record: %w", err)
	}

	record, err := s.attendanceRepo.GetByEventAndStudent(ctx, eventID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance record: %w", err)
	}

	return record, nil
}

// SummarizeForStudent aggregates a student's attendance counts, optionally
// filtered by course and date range
func (s *attendanceService) SummarizeForStudent(ctx context.Context, studentID int, filters models.AttendanceFilters) (*models.AttendanceSummary, error) {
	counts, err := s.attendanceRepo.CountByStatusForStudent(ctx, studentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to count attendance: %w", err)
	}

	summary := &models.AttendanceSummary{
		Attended: counts[models.AttendanceStatusAttended],
		Absent:   counts[models.AttendanceStatusAbsent],
		Late:     counts[models.AttendanceStatusLate],
		Excused:  counts[models.AttendanceStatusExcused],
	}
	summary.Total = summary.Attended + summary.Absent + summary.Late + summary.Excused
	summary.AttendancePercentage = attendancePercentage(summary.Attended, summary.Total)

	return summary, nil
}

// SummarizeForEvent aggregates attendance for an event, joined against the
// course's enrolled roster: enrolled students without a record are reported
// as absent. Instructors may only summarize their own events; admins may
// summarize any.
func (s *attendanceService) SummarizeForEvent(ctx context.Context, eventID, callerID, callerRole int) (*models.AttendanceSummary, []models.AttendanceRecord, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get event: %w", err)
	}

	if event.InstructorID != callerID && callerRole != models.RoleAdmin {
		return nil, nil, fmt.Errorf("user %d may not view attendance for event %d: %w", callerID, eventID, models.ErrForbidden)
	}

	records, err := s.attendanceRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list attendance records: %w", err)
	}

	roster, err := s.enrollmentRepo.ListStudentIDsByCourse(ctx, event.CourseID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get course roster: %w", err)
	}

	recorded := make(map[int]bool, len(records))
	summary := &models.AttendanceSummary{}
	for _, rec := range records {
		recorded[rec.StudentID] = true
		switch rec.Status {
		case models.AttendanceStatusAttended:
			summary.Attended++
		case models.AttendanceStatusAbsent:
			summary.Absent++
		case models.AttendanceStatusLate:
			summary.Late++
		case models.AttendanceStatusExcused:
			summary.Excused++
		}
	}

	// Enrolled students with no record count as absent in the roster view
	for _, studentID := range roster {
		if recorded[studentID] {
			continue
		}
		summary.Absent++
		records = append(records, models.AttendanceRecord{
			EventID:      eventID,
			StudentID:    studentID,
			CourseID:     event.CourseID,
			InstructorID: event.InstructorID,
			Status:       models.AttendanceStatusAbsent,
			MeetingDate:  event.StartsAt,
			RecordedType: models.RecordedTypeAutomatic,
		})
	}

	summary.Total = summary.Attended + summary.Absent + summary.Late + summary.Excused
	summary.AttendancePercentage = attendancePercentage(summary.Attended, summary.Total)

	return summary, records, nil
}

// attendancePercentage is round(100 * attended / total), 0 when total is 0
func attendancePercentage(attended, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(attended) / float64(total)))
}
