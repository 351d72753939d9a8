package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	appenrollment "github.com/learnhub-th/coursepay/internal/application/enrollment"
	"github.com/learnhub-th/coursepay/internal/domain/enrollment"
)

// EnrollmentController handles enrollment HTTP requests. Enrollments are
// created by the payment.received consumer, never through this API; only
// reads and progress reports come in here.
type EnrollmentController struct {
	completeUC     *appenrollment.CompleteUseCase
	enrollmentRepo enrollment.Repository
}

// NewEnrollmentController creates a new EnrollmentController.
func NewEnrollmentController(
	completeUC *appenrollment.CompleteUseCase,
	enrollmentRepo enrollment.Repository,
) *EnrollmentController {
	return &EnrollmentController{
		completeUC:     completeUC,
		enrollmentRepo: enrollmentRepo,
	}
}

// UpdateProgress handles POST /api/v1/enrollments/progress
func (h *EnrollmentController) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	var req UpdateProgressRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid user_id", Code: "invalid_id"})
		return
	}
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid course_id", Code: "invalid_id"})
		return
	}

	e, err := h.completeUC.UpdateProgress(r.Context(), appenrollment.UpdateProgressRequest{
		UserID:       userID,
		CourseID:     courseID,
		Percentage:   req.Percentage,
		CourseTitle:  req.CourseTitle,
		UserFullName: req.UserFullName,
		FinalScore:   req.FinalScore,
		TotalHours:   req.TotalHours,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromEnrollment(e))
}

// GetEnrollment handles GET /api/v1/enrollments/{id}
func (h *EnrollmentController) GetEnrollment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid enrollment id", Code: "invalid_id"})
		return
	}

	e, err := h.enrollmentRepo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromEnrollment(e))
}

// ListUserEnrollments handles GET /api/v1/users/{user_id}/enrollments
func (h *EnrollmentController) ListUserEnrollments(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid user id", Code: "invalid_id"})
		return
	}

	enrollments, err := h.enrollmentRepo.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*EnrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		resp = append(resp, FromEnrollment(e))
	}
	writeJSON(w, http.StatusOK, resp)
}
