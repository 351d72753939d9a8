package errors

import (
	"errors"
	"fmt"
)

var (
	// Order errors
	ErrOrderNotFound          = errors.New("order not found")
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// Payment errors
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrPaymentNotRefundable    = errors.New("only successful payments can be refunded")
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// Gateway errors
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrGatewayTimeout     = errors.New("payment gateway request timeout")
	ErrChargeDeclined     = errors.New("charge declined by gateway")

	// Webhook errors
	ErrWebhookNotFound    = errors.New("webhook record not found")
	ErrInvalidSignature   = errors.New("webhook signature verification failed")
	ErrUnparseablePayload = errors.New("webhook payload could not be parsed")

	// Enrollment errors
	ErrEnrollmentNotFound  = errors.New("enrollment not found")
	ErrDuplicateEnrollment = errors.New("enrollment already exists for user and course")

	// Certificate errors
	ErrCertificateNotFound  = errors.New("certificate not found")
	ErrDuplicateCertificate = errors.New("certificate already exists for user and course")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidInput     = errors.New("invalid input")
)

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
