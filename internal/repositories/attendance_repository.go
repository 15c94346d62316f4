package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/learntrack/backend/internal/models"
)

type attendanceRepository struct {
	db *sql.DB
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *sql.DB) *attendanceRepository {
	return &attendanceRepository{
		db: db,
	}
}

const attendanceColumns = `id, event_id, student_id, course_id, instructor_id, status, meeting_date, check_in_time, check_out_time, duration_minutes, remarks, recorded_type`

// scanAttendance scans a single attendance row
func scanAttendance(row interface{ Scan(...any) error }) (*models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	var checkIn, checkOut sql.NullTime
	var duration sql.NullInt64
	var remarks sql.NullString
	err := row.Scan(
		&rec.ID,
		&rec.EventID,
		&rec.StudentID,
		&rec.CourseID,
		&rec.InstructorID,
		&rec.Status,
		&rec.MeetingDate,
		&checkIn,
		&checkOut,
		&duration,
		&remarks,
		&rec.RecordedType,
	)
	if err != nil {
		return nil, err
	}
	if checkIn.Valid {
		rec.CheckInTime = &checkIn.Time
	}
	if checkOut.Valid {
		rec.CheckOutTime = &checkOut.Time
	}
	if duration.Valid {
		d := int(duration.Int64)
		rec.DurationMinutes = &d
	}
	if remarks.Valid {
		rec.Remarks = remarks.String
	}
	return &rec, nil
}

// GetByEventAndStudent retrieves the unique attendance record for an
// (event, student) pair
func (r *attendanceRepository) GetByEventAndStudent(ctx context.Context, eventID, studentID int) (*models.AttendanceRecord, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE event_id = ? AND student_id = ?
		LIMIT 1
	`

	rec, err := scanAttendance(r.db.QueryRowContext(ctx, query, eventID, studentID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("attendance for event %d student %d: %w", eventID, studentID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance record: %w", err)
	}

	return rec, nil
}

// UpsertJoin records a live-session join as a single atomic statement.
// A repeated join for the same (event, student) pair only moves the
// check-in time; it never creates a second row and never overwrites
// instructor-authored fields.
func (r *attendanceRepository) UpsertJoin(ctx context.Context, rec *models.AttendanceRecord) error {
	query := `
		INSERT INTO attendance_records
			(event_id, student_id, course_id, instructor_id, status, meeting_date, check_in_time, recorded_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'automatic')
		ON DUPLICATE KEY UPDATE check_in_time = VALUES(check_in_time)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.EventID,
		rec.StudentID,
		rec.CourseID,
		rec.InstructorID,
		rec.Status,
		rec.MeetingDate,
		rec.CheckInTime,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert join record: %w", err)
	}

	return nil
}

// UpsertManual creates or replaces the instructor-authored fields of the
// unique (event, student) record as a single atomic statement
func (r *attendanceRepository) UpsertManual(ctx context.Context, rec *models.AttendanceRecord) error {
	query := `
		INSERT INTO attendance_records
			(event_id, student_id, course_id, instructor_id, status, meeting_date, check_in_time, check_out_time, duration_minutes, remarks, recorded_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'manual')
		ON DUPLICATE KEY UPDATE
			status = VALUES(status),
			instructor_id = VALUES(instructor_id),
			check_in_time = VALUES(check_in_time),
			check_out_time = VALUES(check_out_time),
			duration_minutes = VALUES(duration_minutes),
			remarks = VALUES(remarks),
			recorded_type = 'manual'
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.EventID,
		rec.StudentID,
		rec.CourseID,
		rec.InstructorID,
		rec.Status,
		rec.MeetingDate,
		rec.CheckInTime,
		rec.CheckOutTime,
		rec.DurationMinutes,
		rec.Remarks,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert manual record: %w", err)
	}

	return nil
}

// CountByStatusForStudent aggregates a student's attendance records by status,
// optionally filtered by course and date range
func (r *attendanceRepository) CountByStatusForStudent(ctx context.Context, studentID int, filters models.AttendanceFilters) (map[models.AttendanceStatus]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM attendance_records
		WHERE student_id = ?
	`
	args := []any{studentID}

	var conditions []string
	if filters.CourseID != nil {
		conditions = append(conditions, "course_id = ?")
		args = append(args, *filters.CourseID)
	}
	if filters.From != nil {
		conditions = append(conditions, "meeting_date >= ?")
		args = append(args, *filters.From)
	}
	if filters.To != nil {
		conditions = append(conditions, "meeting_date <= ?")
		args = append(args, *filters.To)
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " GROUP BY status"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.AttendanceStatus]int)
	for rows.Next() {
		var status models.AttendanceStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan attendance count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return counts, nil
}

// ListByEvent retrieves all attendance records for an event
func (r *attendanceRepository) ListByEvent(ctx context.Context, eventID int) ([]models.AttendanceRecord, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE event_id = ?
		ORDER BY student_id
	`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer rows.Close()

	var records []models.AttendanceRecord
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}
