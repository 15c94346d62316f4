package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authMiddleware "github.com/learntrack/backend/internal/auth/middleware"
	"github.com/learntrack/backend/internal/models"
)

// EnrollmentService is the interface that wraps methods for enrollment operations
type EnrollmentService interface {
	// CreateEnrollment enrolls a student in a course
	//
	// "ctx" is the context for the request.
	// "studentID" is the ID of the enrolling student.
	// "courseID" is the ID of the course.
	//
	// Returns the enrollment and an error if any.
	CreateEnrollment(ctx context.Context, studentID, courseID int) (*models.Enrollment, error)
	// ActivateEnrollment transitions a pending enrollment to active on
	// confirmed payment
	//
	// "ctx" is the context for the request.
	// "enrollmentID" is the ID of the enrollment to activate.
	//
	// Returns an error if any.
	ActivateEnrollment(ctx context.Context, enrollmentID int) error
	// GrantFree creates or transitions an enrollment to free status
	//
	// "ctx" is the context for the request.
	// "studentID" is the ID of the student receiving the grant.
	// "courseID" is the ID of the course.
	//
	// Returns the enrollment and an error if any.
	GrantFree(ctx context.Context, studentID, courseID int) (*models.Enrollment, error)
	// GetEnrollment retrieves the enrollment for a (student, course) pair
	//
	// "ctx" is the context for the request.
	// "studentID" is the ID of the student.
	// "courseID" is the ID of the course.
	//
	// Returns the enrollment and an error if any.
	GetEnrollment(ctx context.Context, studentID, courseID int) (*models.Enrollment, error)
	// ListEnrollments retrieves all of a student's non-cancelled enrollments
	//
	// "ctx" is the context for the request.
	// "studentID" is the ID of the student.
	//
	// Returns the enrollments and an error if any.
	ListEnrollments(ctx context.Context, studentID int) ([]models.Enrollment, error)
}

// EnrollmentHandler handles HTTP requests for enrollment operations
type EnrollmentHandler struct {
	BaseHandler
	service EnrollmentService
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(svc EnrollmentService, logger *zap.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all enrollment handler routes. The activation
// route is called by the payment provider and is gated by API key instead of
// a user token; the free-grant route requires the admin role.
func (h *EnrollmentHandler) RegisterRoutes(r chi.Router, auth, admin, apiKey func(http.Handler) http.Handler) {
	r.Route("/enrollments", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/", h.CreateEnrollment)
			r.Get("/", h.ListEnrollments)
		})
		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Post("/free", h.GrantFree)
		})
		r.Group(func(r chi.Router) {
			r.Use(apiKey)
			r.Post("/{id}/activate", h.ActivateEnrollment)
		})
	})
	r.Route("/courses/{courseID}/enrollment", func(r chi.Router) {
		r.Use(auth)
		r.Get("/", h.GetEnrollment)
	})
}

// CreateEnrollment handles POST /enrollments
// @Summary Enroll in a course
// @Description Create a pending enrollment for the authenticated student
// @Tags enrollments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreateEnrollmentRequest true "Course to enroll in"
// @Success 201 {object} models.Enrollment "Created enrollment"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 409 {object} map[string]string "Already enrolled"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /enrollments [post]
func (h *EnrollmentHandler) CreateEnrollment(w http.ResponseWriter, r *http.Request) {
	studentID, ok := authMiddleware.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return
	}

	var req models.CreateEnrollmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CourseID <= 0 {
		h.RespondError(w, http.StatusBadRequest, "course ID is required")
		return
	}

	enrollment, err := h.service.CreateEnrollment(r.Context(), studentID, req.CourseID)
	if err != nil {
		h.HandleServiceError(w, err, "failed to create enrollment")
		return
	}

	h.RespondJSON(w, http.StatusCreated, enrollment)
}

// ActivateEnrollment handles POST /enrollments/{id}/activate
// @Summary Activate an enrollment
// @Description Transition a pending enrollment to active after payment confirmation
// @Tags enrollments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Enrollment ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Enrollment not found"
// @Failure 409 {object} map[string]string "Invalid enrollment state"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /enrollments/{id}/activate [post]
func (h *EnrollmentHandler) ActivateEnrollment(w http.ResponseWriter, r *http.Request) {
	enrollmentID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || enrollmentID <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid enrollment ID")
		return
	}

	if err := h.service.ActivateEnrollment(r.Context(), enrollmentID); err != nil {
		h.HandleServiceError(w, err, "failed to activate enrollment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GrantFree handles POST /enrollments/free
// @Summary Grant a free enrollment
// @Description Create or upgrade an enrollment to free status, bypassing payment
// @Tags enrollments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.GrantFreeRequest true "Student and course"
// @Success 201 {object} models.Enrollment "Free enrollment"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 409 {object} map[string]string "Already enrolled"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /enrollments/free [post]
func (h *EnrollmentHandler) GrantFree(w http.ResponseWriter, r *http.Request) {
	var req models.GrantFreeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StudentID <= 0 || req.CourseID <= 0 {
		h.RespondError(w, http.StatusBadRequest, "student ID and course ID are required")
		return
	}

	enrollment, err := h.service.GrantFree(r.Context(), req.StudentID, req.CourseID)
	if err != nil {
		h.HandleServiceError(w, err, "failed to grant free enrollment")
		return
	}

	h.RespondJSON(w, http.StatusCreated, enrollment)
}

// GetEnrollment handles GET /courses/{courseID}/enrollment
// @Summary Get enrollment for a course
// @Description Get the authenticated student's enrollment in a course
// @Tags enrollments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseID path int true "Course ID"
// @Success 200 {object} models.Enrollment "Enrollment"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Enrollment not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{courseID}/enrollment [get]
func (h *EnrollmentHandler) GetEnrollment(w http.ResponseWriter, r *http.Request) {
	studentID, ok := authMiddleware.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return
	}

	courseID, err := strconv.Atoi(chi.URLParam(r, "courseID"))
	if err != nil || courseID <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid course ID")
		return
	}

	enrollment, err := h.service.GetEnrollment(r.Context(), studentID, courseID)
	if err != nil {
		h.HandleServiceError(w, err, "failed to get enrollment")
		return
	}

	h.RespondJSON(w, http.StatusOK, enrollment)
}

// ListEnrollments handles GET /enrollments
// @Summary List enrollments
// @Description List all of the authenticated student's non-cancelled enrollments
// @Tags enrollments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.Enrollment "Enrollments"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /enrollments [get]
func (h *EnrollmentHandler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	studentID, ok := authMiddleware.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return
	}

	enrollments, err := h.service.ListEnrollments(r.Context(), studentID)
	if err != nil {
		h.HandleServiceError(w, err, "failed to list enrollments")
		return
	}

	h.RespondJSON(w, http.StatusOK, enrollments)
}
