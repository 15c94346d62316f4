package models

import "time"

// AttendanceStatus represents the attendance state for a student at an event
type AttendanceStatus string

const (
	AttendanceStatusAttended AttendanceStatus = "attended"
	AttendanceStatusAbsent   AttendanceStatus = "absent"
	AttendanceStatusLate     AttendanceStatus = "late"
	AttendanceStatusExcused  AttendanceStatus = "excused"
)

// RecordedType distinguishes live-session auto-recorded attendance from
// instructor-authored records
type RecordedType string

const (
	RecordedTypeAutomatic RecordedType = "automatic"
	RecordedTypeManual    RecordedType = "manual"
)

// Event represents a live session belonging to a course, owned by an instructor
type Event struct {
	ID           int       `json:"id"`
	CourseID     int       `json:"courseId"`
	InstructorID int       `json:"instructorId"`
	Title        string    `json:"title"`
	StartsAt     time.Time `json:"startsAt"`
}

// AttendanceRecord represents the unique attendance record for an
// (event, student) pair. Repeated join or record actions update this record
// in place; a second row is never created.
type AttendanceRecord struct {
	ID              int              `json:"id"`
	EventID         int              `json:"eventId"`
	StudentID       int              `json:"studentId"`
	CourseID        int              `json:"courseId"`
	InstructorID    int              `json:"instructorId"`
	Status          AttendanceStatus `json:"status"`
	MeetingDate     time.Time        `json:"meetingDate"`
	CheckInTime     *time.Time       `json:"checkInTime,omitempty"`
	CheckOutTime    *time.Time       `json:"checkOutTime,omitempty"`
	DurationMinutes *int             `json:"durationMinutes,omitempty"`
	Remarks         string           `json:"remarks,omitempty"`
	RecordedType    RecordedType     `json:"recordedType"`
}

// ManualAttendanceRequest represents instructor-authored attendance fields.
// Nil pointers leave the existing value untouched on update.
type ManualAttendanceRequest struct {
	Status          AttendanceStatus `json:"status"`
	Remarks         string           `json:"remarks,omitempty"`
	DurationMinutes *int             `json:"durationMinutes,omitempty"`
	CheckInTime     *time.Time       `json:"checkInTime,omitempty"`
	CheckOutTime    *time.Time       `json:"checkOutTime,omitempty"`
}

// AttendanceFilters narrows attendance summaries by course and date range
type AttendanceFilters struct {
	CourseID *int
	From     *time.Time
	To       *time.Time
}

// AttendanceSummary aggregates attendance counts for a student or an event.
// AttendancePercentage is round(100 * attended / total), 0 when total is 0.
type AttendanceSummary struct {
	Total                int `json:"total"`
	Attended             int `json:"attended"`
	Absent               int `json:"absent"`
	Late                 int `json:"late"`
	Excused              int `json:"excused"`
	AttendancePercentage int `json:"attendancePercentage"`
}
