package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authMiddleware "github.com/learntrack/backend/internal/auth/middleware"
	"github.com/learntrack/backend/internal/models"
)

// ProgressService is the interface that wraps methods for course progress operations
type ProgressService interface {
	// CheckLessonAccess evaluates the sequential-unlocking rule for one lesson
	//
	// "ctx" is the context for the request.
	// "studentID" is the ID of the student.
	// "courseID" is the ID of the course.
	// "lessonID" is the ID of the lesson to check.
	//
	// Returns whether access is granted and an error carrying the denial reason.
	CheckLessonAccess(ctx context.Context, studentID, courseID, lessonID int) (bool, error)
	// CompleteLesson marks a lesson as completed and recomputes progress
	//
	// "ctx" is the context for the request.
	// "studentID" is the ID of the student.
	// "courseID" is the ID of the course.
	// "lessonID" is the ID of the lesson to complete.
	//
	// Returns the updated enrollment and an error if any.
	CompleteLesson(ctx context.Context, studentID, courseID, lessonID int) (*models.Enrollment, error)
	// GetProgress retrieves the student's progress in a course with per-lesson
	// completion and unlock state
	//
	// "ctx" is the context for the request.
	// "studentID" is the ID of the student.
	// "courseID" is the ID of the course.
	//
	// Returns the progress and an error if any.
	GetProgress(ctx context.Context, studentID, courseID int) (*models.ProgressResponse, error)
	// IsCertificateEligible reports whether the enrollment currently qualifies
	// for a certificate
	//
	// "ctx" is the context for the request.
	// "studentID" is the ID of the student.
	// "courseID" is the ID of the course.
	//
	// Returns eligibility and an error if any.
	IsCertificateEligible(ctx context.Context, studentID, courseID int) (bool, error)
}

// ProgressHandler handles HTTP requests for course progress operations
type ProgressHandler struct {
	BaseHandler
	service ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(svc ProgressService, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all progress handler routes
func (h *ProgressHandler) RegisterRoutes(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Route("/courses/{courseID}", func(r chi.Router) {
		r.Use(auth)
		r.Get("/progress", h.GetProgress)
		r.Get("/certificate-eligibility", h.GetCertificateEligibility)
		r.Get("/lessons/{lessonID}/access", h.CheckLessonAccess)
		r.Post("/lessons/{lessonID}/complete", h.CompleteLesson)
	})
}

// CheckLessonAccess handles GET /courses/{courseID}/lessons/{lessonID}/access
// @Summary Check lesson access
// @Description Check whether the sequential-unlocking rule grants access to a lesson
// @Tags progress
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseID path int true "Course ID"
// @Param lessonID path int true "Lesson ID"
// @Success 200 {object} map[string]bool "Access decision"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Lesson or enrollment not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{courseID}/lessons/{lessonID}/access [get]
func (h *ProgressHandler) CheckLessonAccess(w http.ResponseWriter, r *http.Request) {
	studentID, ok := authMiddleware.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return
	}

	courseID, lessonID, ok := h.parseCourseLessonIDs(w, r)
	if !ok {
		return
	}

	allowed, err := h.service.CheckLessonAccess(r.Context(), studentID, courseID, lessonID)
	if err != nil && statusForError(err) == http.StatusInternalServerError {
		h.Logger.Error("failed to check lesson access", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// A denial is a successful check: report the decision and its reason
	response := map[string]any{"allowed": allowed}
	if err != nil {
		response["reason"] = err.Error()
	}

	h.RespondJSON(w, http.StatusOK, response)
}

// CompleteLesson handles POST /courses/{courseID}/lessons/{lessonID}/complete
// @Summary Complete a lesson
// @Description Mark a lesson as completed and recompute course progress
// @Tags progress
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseID path int true "Course ID"
// @Param lessonID path int true "Lesson ID"
// @Success 200 {object} models.Enrollment "Updated enrollment"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Lesson locked or not enrolled"
// @Failure 404 {object} map[string]string "Lesson or enrollment not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{courseID}/lessons/{lessonID}/complete [post]
func (h *ProgressHandler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	studentID, ok := authMiddleware.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return
	}

	courseID, lessonID, ok := h.parseCourseLessonIDs(w, r)
	if !ok {
		return
	}

	enrollment, err := h.service.CompleteLesson(r.Context(), studentID, courseID, lessonID)
	if err != nil {
		h.HandleServiceError(w, err, "failed to complete lesson")
		return
	}

	h.RespondJSON(w, http.StatusOK, enrollment)
}

// GetProgress handles GET /courses/{courseID}/progress
// @Summary Get course progress
// @Description Get the student's completion percentage and per-lesson state for a course
// @Tags progress
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseID path int true "Course ID"
// @Success 200 {object} models.ProgressResponse "Progress"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Enrollment not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{courseID}/progress [get]
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
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

	progress, err := h.service.GetProgress(r.Context(), studentID, courseID)
	if err != nil {
		h.HandleServiceError(w, err, "failed to get progress")
		return
	}

	h.RespondJSON(w, http.StatusOK, progress)
}

// GetCertificateEligibility handles GET /courses/{courseID}/certificate-eligibility
// @Summary Check certificate eligibility
// @Description Check whether the student currently qualifies for a course certificate
// @Tags progress
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseID path int true "Course ID"
// @Success 200 {object} map[string]bool "Eligibility"
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Enrollment not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{courseID}/certificate-eligibility [get]
func (h *ProgressHandler) GetCertificateEligibility(w http.ResponseWriter, r *http.Request) {
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

	eligible, err := h.service.IsCertificateEligible(r.Context(), studentID, courseID)
	if err != nil {
		h.HandleServiceError(w, err, "failed to check certificate eligibility")
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]bool{"eligible": eligible})
}

// parseCourseLessonIDs parses the courseID and lessonID path parameters
func (h *ProgressHandler) parseCourseLessonIDs(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	courseID, err := strconv.Atoi(chi.URLParam(r, "courseID"))
	if err != nil || courseID <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid course ID")
		return 0, 0, false
	}

	lessonID, err := strconv.Atoi(chi.URLParam(r, "lessonID"))
	if err != nil || lessonID <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid lesson ID")
		return 0, 0, false
	}

	return courseID, lessonID, true
}
