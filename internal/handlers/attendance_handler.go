package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authMiddleware "github.com/learntrack/backend/internal/auth/middleware"
	"github.com/learntrack/backend/internal/models"
)

// AttendanceService is the interface that wraps methods for attendance operations
type AttendanceService interface {
	// RecordJoin records a live-session join for a student
	//
	// "ctx" is the context for the request.
	// "eventID" is the ID of the event being joined.
	// "studentID" is the ID of the joining student.
	// "timestamp" is the join time.
	//
	// Returns the attendance record and an error if any.
	RecordJoin(ctx context.Context, eventID, studentID int, timestamp time.Time) (*models.AttendanceRecord, error)
	// UpsertManualRecord creates or updates an instructor-authored attendance record
	//
	// "ctx" is the context for the request.
	// "eventID" is the ID of the event.
	// "studentID" is the ID of the student the record is for.
	// "callerID" is the ID of the authenticated caller.
	// "callerRole" is the role of the authenticated caller.
	// "req" carries the fields to set; nil pointers keep existing values.
	//
	// Returns the attendance record and an error if any.
	UpsertManualRecord(ctx context.Context, eventID, studentID, callerID, callerRole int, req *models.ManualAttendanceRequest) (*models.AttendanceRecord, error)
	// SummarizeForStudent aggregates a student's attendance counts
	//
	// "ctx" is the context for the request.
	// "studentID" is the ID of the student.
	// "filters" optionally narrows by course and date range.
	//
	// Returns the summary and an error if any.
	SummarizeForStudent(ctx context.Context, studentID int, filters models.AttendanceFilters) (*models.AttendanceSummary, error)
	// SummarizeForEvent aggregates attendance for an event against the
	// course's enrolled roster
	//
	// "ctx" is the context for the request.
	// "eventID" is the ID of the event.
	// "callerID" is the ID of the authenticated caller.
	// "callerRole" is the role of the authenticated caller.
	//
	// Returns the summary, the per-student records, and an error if any.
	SummarizeForEvent(ctx context.Context, eventID, callerID, callerRole int) (*models.AttendanceSummary, []models.AttendanceRecord, error)
}

// AttendanceHandler handles HTTP requests for attendance operations
type AttendanceHandler struct {
	BaseHandler
	service AttendanceService
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(svc AttendanceService, logger *zap.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all attendance handler routes. Manual recording
// and event summaries require the instructor role or above; ownership of the
// event is enforced by the service.
func (h *AttendanceHandler) RegisterRoutes(r chi.Router, auth, instructor func(http.Handler) http.Handler) {
	r.Route("/events/{eventID}", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/join", h.RecordJoin)
		})
		r.Group(func(r chi.Router) {
			r.Use(instructor)
			r.Put("/attendance/{studentID}", h.UpsertManualRecord)
			r.Get("/attendance", h.SummarizeForEvent)
		})
	})
	r.Route("/attendance", func(r chi.Router) {
		r.Use(auth)
		r.Get("/summary", h.SummarizeForStudent)
	})
}

// RecordJoin handles POST /events/{eventID}/join
// @Summary Join a live session
// @Description Record the authenticated student's attendance at an event; repeated joins update the check-in time
// @Tags attendance
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param eventID path int true "Event ID"
// @Success 200 {object} models.AttendanceRecord "Attendance record"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Event not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /events/{eventID}/join [post]
func (h *AttendanceHandler) RecordJoin(w http.ResponseWriter, r *http.Request) {
	studentID, ok := authMiddleware.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return
	}

	eventID, err := strconv.Atoi(chi.URLParam(r, "eventID"))
	if err != nil || eventID <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid event ID")
		return
	}

	record, err := h.service.RecordJoin(r.Context(), eventID, studentID, time.Now().UTC())
	if err != nil {
		h.HandleServiceError(w, err, "failed to record join")
		return
	}

	h.RespondJSON(w, http.StatusOK, record)
}

// UpsertManualRecord handles PUT /events/{eventID}/attendance/{studentID}
// @Summary Record attendance manually
// @Description Create or update an attendance record for a student at an event; instructor-owned events only
// @Tags attendance
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param eventID path int true "Event ID"
// @Param studentID path int true "Student ID"
// @Param request body models.ManualAttendanceRequest true "Attendance fields"
// @Success 200 {object} models.AttendanceRecord "Attendance record"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Not the event's instructor"
// @Failure 404 {object} map[string]string "Event not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /events/{eventID}/attendance/{studentID} [put]
func (h *AttendanceHandler) UpsertManualRecord(w http.ResponseWriter, r *http.Request) {
	callerID, ok := authMiddleware.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return
	}
	callerRole, ok := authMiddleware.GetUserRole(r.Context())
	if !ok {
		h.Logger.Error("user role not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user role not found in context")
		return
	}

	eventID, err := strconv.Atoi(chi.URLParam(r, "eventID"))
	if err != nil || eventID <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid event ID")
		return
	}
	studentID, err := strconv.Atoi(chi.URLParam(r, "studentID"))
	if err != nil || studentID <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid student ID")
		return
	}

	var req models.ManualAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != "" && !validAttendanceStatus(req.Status) {
		h.RespondError(w, http.StatusBadRequest, "invalid attendance status")
		return
	}

	record, err := h.service.UpsertManualRecord(r.Context(), eventID, studentID, callerID, callerRole, &req)
	if err != nil {
		h.HandleServiceError(w, err, "failed to record attendance")
		return
	}

	h.RespondJSON(w, http.StatusOK, record)
}

// SummarizeForEvent handles GET /events/{eventID}/attendance
// @Summary Get event attendance
// @Description Get the attendance summary and per-student records for an event; enrolled students without a record are reported absent
// @Tags attendance
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param eventID path int true "Event ID"
// @Success 200 {object} map[string]any{} "Summary with records"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Not the event's instructor"
// @Failure 404 {object} map[string]string "Event not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /events/{eventID}/attendance [get]
func (h *AttendanceHandler) SummarizeForEvent(w http.ResponseWriter, r *http.Request) {
	callerID, ok := authMiddleware.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return
	}
	callerRole, ok := authMiddleware.GetUserRole(r.Context())
	if !ok {
		h.Logger.Error("user role not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user role not found in context")
		return
	}

	eventID, err := strconv.Atoi(chi.URLParam(r, "eventID"))
	if err != nil || eventID <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid event ID")
		return
	}

	summary, records, err := h.service.SummarizeForEvent(r.Context(), eventID, callerID, callerRole)
	if err != nil {
		h.HandleServiceError(w, err, "failed to summarize event attendance")
		return
	}

	response := map[string]any{
		"summary": summary,
		"records": records,
	}

	h.RespondJSON(w, http.StatusOK, response)
}

// SummarizeForStudent handles GET /attendance/summary
// @Summary Get attendance summary
// @Description Get the authenticated student's attendance counts, optionally filtered by course and date range
// @Tags attendance
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId query int false "Filter by course"
// @Param from query string false "Start of date range (RFC 3339)"
// @Param to query string false "End of date range (RFC 3339)"
// @Success 200 {object} models.AttendanceSummary "Summary"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /attendance/summary [get]
func (h *AttendanceHandler) SummarizeForStudent(w http.ResponseWriter, r *http.Request) {
	studentID, ok := authMiddleware.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return
	}

	filters, err := parseAttendanceFilters(r)
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.service.SummarizeForStudent(r.Context(), studentID, filters)
	if err != nil {
		h.HandleServiceError(w, err, "failed to summarize attendance")
		return
	}

	h.RespondJSON(w, http.StatusOK, summary)
}

// parseAttendanceFilters parses the optional courseId, from and to query parameters
func parseAttendanceFilters(r *http.Request) (models.AttendanceFilters, error) {
	var filters models.AttendanceFilters

	if courseIDStr := r.URL.Query().Get("courseId"); courseIDStr != "" {
		courseID, err := strconv.Atoi(courseIDStr)
		if err != nil || courseID <= 0 {
			return filters, fmt.Errorf("invalid courseId parameter")
		}
		filters.CourseID = &courseID
	}
	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return filters, fmt.Errorf("invalid from parameter")
		}
		filters.From = &from
	}
	if toStr := r.URL.Query().Get("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return filters, fmt.Errorf("invalid to parameter")
		}
		filters.To = &to
	}

	return filters, nil
}

func validAttendanceStatus(status models.AttendanceStatus) bool {
	switch status {
	case models.AttendanceStatusAttended, models.AttendanceStatusAbsent,
		models.AttendanceStatusLate, models.AttendanceStatusExcused:
		return true
	}
	return false
}
