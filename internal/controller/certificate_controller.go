package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/learnhub-th/coursepay/internal/domain/certificate"
	domainErrors "github.com/learnhub-th/coursepay/internal/domain/errors"
)

// CertificateController handles certificate HTTP requests. Certificates are
// issued by the course.completed consumer; this API reads and verifies them.
type CertificateController struct {
	certRepo certificate.Repository
}

// NewCertificateController creates a new CertificateController.
func NewCertificateController(certRepo certificate.Repository) *CertificateController {
	return &CertificateController{certRepo: certRepo}
}

// GetCertificate handles GET /api/v1/certificates/{id}
func (h *CertificateController) GetCertificate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid certificate id", Code: "invalid_id"})
		return
	}

	c, err := h.certRepo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromCertificate(c))
}

// ListUserCertificates handles GET /api/v1/users/{user_id}/certificates
func (h *CertificateController) ListUserCertificates(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid user id", Code: "invalid_id"})
		return
	}

	certs, err := h.certRepo.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*CertificateResponse, 0, len(certs))
	for _, c := range certs {
		resp = append(resp, FromCertificate(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Verify handles GET /verify/{code}. Public endpoint: an unknown or revoked
// code answers valid=false with 200 rather than leaking whether it ever
// existed.
func (h *CertificateController) Verify(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing verification code", Code: "invalid_input"})
		return
	}

	c, err := h.certRepo.GetByVerificationCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, domainErrors.ErrCertificateNotFound) {
			writeJSON(w, http.StatusOK, &VerificationResponse{Valid: false})
			return
		}
		writeError(w, err)
		return
	}
	if c.Status != certificate.StatusActive {
		writeJSON(w, http.StatusOK, &VerificationResponse{Valid: false})
		return
	}

	writeJSON(w, http.StatusOK, &VerificationResponse{
		Valid:             true,
		CertificateNumber: c.CertificateNumber,
		UserFullName:      c.UserFullName,
		CourseTitle:       c.CourseTitle,
		IssuedAt:          c.IssuedAt.UTC().Format("2006-01-02"),
	})
}
