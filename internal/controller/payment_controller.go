package controller

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	apppayment "github.com/learnhub-th/coursepay/internal/application/payment"
	"github.com/learnhub-th/coursepay/internal/domain/payment"
)

// PaymentController handles charge and refund HTTP requests.
type PaymentController struct {
	chargeUC    *apppayment.CreateChargeUseCase
	refundUC    *apppayment.RefundPaymentUseCase
	paymentRepo payment.Repository
}

// NewPaymentController creates a new PaymentController.
func NewPaymentController(
	chargeUC *apppayment.CreateChargeUseCase,
	refundUC *apppayment.RefundPaymentUseCase,
	paymentRepo payment.Repository,
) *PaymentController {
	return &PaymentController{
		chargeUC:    chargeUC,
		refundUC:    refundUC,
		paymentRepo: paymentRepo,
	}
}

// CreateCharge handles POST /api/v1/charges
func (h *PaymentController) CreateCharge(w http.ResponseWriter, r *http.Request) {
	var req CreateChargeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	if idempotencyKey == "" {
		idempotencyKey = uuid.New().String()
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

	resp, err := h.chargeUC.Execute(r.Context(), apppayment.CreateChargeRequest{
		IdempotencyKey: idempotencyKey,
		UserID:         userID,
		CourseID:       courseID,
		AmountSatang:   bahtToSatang(req.Amount),
		Currency:       req.Currency,
		Method:         payment.Method(req.Method),
		CardToken:      req.CardToken,
		Description:    req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	// A pending payment means the gateway has not settled the charge yet;
	// the webhook will finish it.
	status := http.StatusCreated
	if resp.Payment.Status == payment.StatusPending {
		status = http.StatusAccepted
	}
	writeJSON(w, status, &ChargeResponse{
		Order:   FromOrder(resp.Order),
		Payment: FromPayment(resp.Payment),
	})
}

// GetPayment handles GET /api/v1/payments/{id}
func (h *PaymentController) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid payment id", Code: "invalid_id"})
		return
	}

	p, err := h.paymentRepo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromPayment(p))
}

// ListPayments handles GET /api/v1/payments
func (h *PaymentController) ListPayments(w http.ResponseWriter, r *http.Request) {
	filter := payment.ListFilter{}

	if s := r.URL.Query().Get("status"); s != "" {
		status := payment.Status(s)
		filter.Status = &status
	}
	if s := r.URL.Query().Get("user_id"); s != "" {
		id, err := uuid.Parse(s)
		if err == nil {
			filter.UserID = &id
		}
	}
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	filter.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	filter.SortBy = r.URL.Query().Get("sort_by")
	filter.SortOrder = r.URL.Query().Get("sort_order")

	payments, err := h.paymentRepo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*PaymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, FromPayment(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// RefundPayment handles POST /api/v1/payments/{id}/refund
func (h *PaymentController) RefundPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid payment id", Code: "invalid_id"})
		return
	}

	var req RefundRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	refund, err := h.refundUC.Execute(r.Context(), apppayment.RefundPaymentRequest{
		PaymentID: id,
		Reason:    req.Reason,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromRefund(refund))
}
