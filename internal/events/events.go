// Package events defines the topics and payload shapes exchanged between the
// payment, enrollment and certificate workflows. Consumers must tolerate
// duplicate deliveries of every event.
package events

import "github.com/google/uuid"

const (
	TopicPaymentReceived   = "payment.received"
	TopicCourseCompleted   = "course.completed"
	TopicCertificateIssued = "certificate.issued"
)

// PaymentReceived is published at most logically once per successful payment.
// CourseID carries the order's reference so the enrollment consumer does not
// need a cross-service order lookup.
type PaymentReceived struct {
	PaymentID     uuid.UUID `json:"payment_id"`
	OrderID       uuid.UUID `json:"order_id"`
	UserID        uuid.UUID `json:"user_id"`
	CourseID      uuid.UUID `json:"course_id"`
	AmountSatang  int64     `json:"amount_satang"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id"`
}

// CourseCompleted is published at most logically once per (user, course)
// completion.
type CourseCompleted struct {
	UserID       uuid.UUID `json:"user_id"`
	CourseID     uuid.UUID `json:"course_id"`
	CourseTitle  string    `json:"course_title"`
	UserFullName string    `json:"user_full_name"`
	FinalScore   *float64  `json:"final_score,omitempty"`
	TotalHours   int       `json:"total_hours"`
}

// CertificateIssued is informational fan-out; no workflow in this service
// consumes it.
type CertificateIssued struct {
	CertificateID     uuid.UUID `json:"certificate_id"`
	UserID            uuid.UUID `json:"user_id"`
	CourseID          uuid.UUID `json:"course_id"`
	CertificateNumber string    `json:"certificate_number"`
	PdfURL            string    `json:"pdf_url"`
}
