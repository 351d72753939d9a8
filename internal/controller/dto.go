package controller

import (
	"time"

	"github.com/learnhub-th/coursepay/internal/domain/certificate"
	"github.com/learnhub-th/coursepay/internal/domain/enrollment"
	"github.com/learnhub-th/coursepay/internal/domain/order"
	"github.com/learnhub-th/coursepay/internal/domain/payment"
)

// --- Request DTOs ---
// These DTOs handle HTTP/JSON concerns (float64 baht for money, strings for
// IDs, validation tags). Controllers convert them to use case requests before
// touching business logic; satang conversion happens exactly once, here.

// CreateChargeRequest holds the input for charging a course purchase.
type CreateChargeRequest struct {
	UserID      string  `json:"user_id" validate:"required,uuid"`
	CourseID    string  `json:"course_id" validate:"required,uuid"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Currency    string  `json:"currency" validate:"required,len=3"`
	Method      string  `json:"method" validate:"required,oneof=credit_card debit_card promptpay truemoney"`
	CardToken   string  `json:"card_token,omitempty"`
	Description string  `json:"description,omitempty"`
}

// RefundRequest holds the input for refunding a payment.
type RefundRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// UpdateProgressRequest holds a course progress report.
type UpdateProgressRequest struct {
	UserID       string   `json:"user_id" validate:"required,uuid"`
	CourseID     string   `json:"course_id" validate:"required,uuid"`
	Percentage   float64  `json:"percentage" validate:"gte=0,lte=100"`
	CourseTitle  string   `json:"course_title" validate:"required"`
	UserFullName string   `json:"user_full_name" validate:"required"`
	FinalScore   *float64 `json:"final_score,omitempty"`
	TotalHours   int      `json:"total_hours" validate:"gte=0"`
}

// --- Response DTOs ---

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	OrderNumber string    `json:"order_number"`
	OrderType   string    `json:"order_type"`
	ReferenceID string    `json:"reference_id"`
	Subtotal    float64   `json:"subtotal"`
	Discount    float64   `json:"discount"`
	Total       float64   `json:"total"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PaymentResponse represents a payment in API responses.
type PaymentResponse struct {
	ID             string     `json:"id"`
	OrderID        string     `json:"order_id"`
	UserID         string     `json:"user_id"`
	IdempotencyKey string     `json:"idempotency_key"`
	Method         string     `json:"method"`
	Provider       string     `json:"provider"`
	Amount         float64    `json:"amount"`
	Currency       string     `json:"currency"`
	Status         string     `json:"status"`
	TransactionID  *string    `json:"transaction_id,omitempty"`
	FailureReason  *string    `json:"failure_reason,omitempty"`
	Description    string     `json:"description,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ChargeResponse bundles the order/payment pair returned by a charge attempt.
type ChargeResponse struct {
	Order   *OrderResponse   `json:"order"`
	Payment *PaymentResponse `json:"payment"`
}

// RefundResponse represents a refund in API responses.
type RefundResponse struct {
	ID               string     `json:"id"`
	PaymentID        string     `json:"payment_id"`
	Amount           float64    `json:"amount"`
	Reason           string     `json:"reason"`
	Status           string     `json:"status"`
	ProviderRefundID *string    `json:"provider_refund_id,omitempty"`
	RequestedAt      time.Time  `json:"requested_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// EnrollmentResponse represents an enrollment in API responses.
type EnrollmentResponse struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"user_id"`
	CourseID             string     `json:"course_id"`
	Status               string     `json:"status"`
	PaymentStatus        string     `json:"payment_status"`
	Price                float64    `json:"price"`
	TransactionID        *string    `json:"transaction_id,omitempty"`
	CompletionPercentage float64    `json:"completion_percentage"`
	IsCompleted          bool       `json:"is_completed"`
	EnrolledAt           time.Time  `json:"enrolled_at"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
}

// CertificateResponse represents a certificate in API responses.
type CertificateResponse struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	CourseID          string    `json:"course_id"`
	CertificateNumber string    `json:"certificate_number"`
	VerificationCode  string    `json:"verification_code"`
	UserFullName      string    `json:"user_full_name"`
	CourseTitle       string    `json:"course_title"`
	FinalScore        *float64  `json:"final_score,omitempty"`
	TotalHours        int       `json:"total_hours"`
	Status            string    `json:"status"`
	PdfURL            *string   `json:"pdf_url,omitempty"`
	CompletionDate    time.Time `json:"completion_date"`
	IssuedAt          time.Time `json:"issued_at"`
}

// VerificationResponse is the public answer to a verification code lookup.
type VerificationResponse struct {
	Valid             bool   `json:"valid"`
	CertificateNumber string `json:"certificate_number,omitempty"`
	UserFullName      string `json:"user_full_name,omitempty"`
	CourseTitle       string `json:"course_title,omitempty"`
	IssuedAt          string `json:"issued_at,omitempty"`
}

// WebhookAckResponse acknowledges a stored gateway callback.
type WebhookAckResponse struct {
	ID       string `json:"id"`
	Received bool   `json:"received"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// --- Conversion helpers ---

// FromOrder converts a domain order to API response.
func FromOrder(o *order.Order) *OrderResponse {
	return &OrderResponse{
		ID:          o.ID.String(),
		UserID:      o.UserID.String(),
		OrderNumber: o.OrderNumber,
		OrderType:   string(o.OrderType),
		ReferenceID: o.ReferenceID.String(),
		Subtotal:    satangToBaht(o.SubtotalSatang),
		Discount:    satangToBaht(o.DiscountSatang),
		Total:       satangToBaht(o.TotalSatang),
		Currency:    o.Currency,
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

// FromPayment converts a domain payment to API response.
func FromPayment(p *payment.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:             p.ID.String(),
		OrderID:        p.OrderID.String(),
		UserID:         p.UserID.String(),
		IdempotencyKey: p.IdempotencyKey,
		Method:         string(p.Method),
		Provider:       p.Provider,
		Amount:         satangToBaht(p.Amount.ValueSatang),
		Currency:       p.Amount.Currency,
		Status:         string(p.Status),
		TransactionID:  p.TransactionID,
		FailureReason:  p.FailureReason,
		Description:    p.Description,
		PaidAt:         p.PaidAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// FromRefund converts a domain refund to API response.
func FromRefund(r *payment.Refund) *RefundResponse {
	return &RefundResponse{
		ID:               r.ID.String(),
		PaymentID:        r.PaymentID.String(),
		Amount:           satangToBaht(r.AmountSatang),
		Reason:           r.Reason,
		Status:           string(r.Status),
		ProviderRefundID: r.ProviderRefundID,
		RequestedAt:      r.RequestedAt,
		CompletedAt:      r.CompletedAt,
	}
}

// FromEnrollment converts a domain enrollment to API response.
func FromEnrollment(e *enrollment.Enrollment) *EnrollmentResponse {
	return &EnrollmentResponse{
		ID:                   e.ID.String(),
		UserID:               e.UserID.String(),
		CourseID:             e.CourseID.String(),
		Status:               string(e.Status),
		PaymentStatus:        string(e.PaymentStatus),
		Price:                satangToBaht(e.PriceSatang),
		TransactionID:        e.TransactionID,
		CompletionPercentage: e.CompletionPercentage,
		IsCompleted:          e.IsCompleted,
		EnrolledAt:           e.EnrolledAt,
		CompletedAt:          e.CompletedAt,
	}
}

// FromCertificate converts a domain certificate to API response.
func FromCertificate(c *certificate.Certificate) *CertificateResponse {
	return &CertificateResponse{
		ID:                c.ID.String(),
		UserID:            c.UserID.String(),
		CourseID:          c.CourseID.String(),
		CertificateNumber: c.CertificateNumber,
		VerificationCode:  c.VerificationCode,
		UserFullName:      c.UserFullName,
		CourseTitle:       c.CourseTitle,
		FinalScore:        c.FinalScore,
		TotalHours:        c.TotalHours,
		Status:            string(c.Status),
		PdfURL:            c.PdfURL,
		CompletionDate:    c.CompletionDate,
		IssuedAt:          c.IssuedAt,
	}
}

// bahtToSatang converts a float baht amount to satang.
func bahtToSatang(f float64) int64 {
	return int64(f*100 + 0.5)
}

// satangToBaht converts satang to a float baht amount.
func satangToBaht(satang int64) float64 {
	return float64(satang) / 100.0
}
