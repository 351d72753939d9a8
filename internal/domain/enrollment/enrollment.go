package enrollment

import (
	"time"

	"github.com/learnhub-th/coursepay/internal/domain/errors"
	"github.com/google/uuid"
)

// Status represents the enrollment status.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusSuspended Status = "suspended"
	StatusExpired   Status = "expired"
)

// PaymentStatus tracks the payment side of an enrollment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Enrollment ties a user to a course. At most one exists per (user, course);
// the unique constraint backs that up at persistence time.
type Enrollment struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	CourseID             uuid.UUID
	Status               Status
	PaymentStatus        PaymentStatus
	PriceSatang          int64
	TransactionID        *string
	CompletionPercentage float64
	IsCompleted          bool
	EnrolledAt           time.Time
	CompletedAt          *time.Time
	UpdatedAt            time.Time
}

// New creates an active enrollment awaiting payment confirmation.
func New(userID, courseID uuid.UUID, priceSatang int64) *Enrollment {
	now := time.Now()
	return &Enrollment{
		ID:            uuid.New(),
		UserID:        userID,
		CourseID:      courseID,
		Status:        StatusActive,
		PaymentStatus: PaymentPending,
		PriceSatang:   priceSatang,
		EnrolledAt:    now,
		UpdatedAt:     now,
	}
}

// ConfirmPayment flips the payment status to completed and activates the
// enrollment. Safe to call on an enrollment that pre-exists from a wishlist
// or free-enrollment path.
func (e *Enrollment) ConfirmPayment(transactionID string) {
	e.PaymentStatus = PaymentCompleted
	e.Status = StatusActive
	if transactionID != "" {
		e.TransactionID = &transactionID
	}
	e.UpdatedAt = time.Now()
}

// UpdateProgress records course progress. Progress never decreases.
func (e *Enrollment) UpdateProgress(percentage float64) error {
	if percentage < 0 || percentage > 100 {
		return errors.NewValidationError("completion_percentage", "must be between 0 and 100")
	}
	if percentage > e.CompletionPercentage {
		e.CompletionPercentage = percentage
		e.UpdatedAt = time.Now()
	}
	return nil
}

// Complete marks the enrollment finished at 100% progress.
func (e *Enrollment) Complete() {
	if e.IsCompleted {
		return
	}
	e.IsCompleted = true
	e.CompletionPercentage = 100
	now := time.Now()
	e.CompletedAt = &now
	e.UpdatedAt = now
}
