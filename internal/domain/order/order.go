package order

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/learnhub-th/coursepay/internal/domain/errors"
	"github.com/google/uuid"
)

// OrderType distinguishes what the purchase is for.
type OrderType string

const (
	TypeCourseEnrollment OrderType = "course_enrollment"
	TypeSubscription     OrderType = "subscription"
)

// Status represents the order status in the state machine.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

// Order records a purchase intent. Status transitions are driven only by the
// payment outcome, never directly by client input.
type Order struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	OrderNumber    string
	OrderType      OrderType
	ReferenceID    uuid.UUID // course or plan ID
	SubtotalSatang int64
	DiscountSatang int64
	TotalSatang    int64
	Currency       string
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// New creates a pending order for the given purchase.
func New(userID, referenceID uuid.UUID, orderType OrderType, totalSatang int64, currency string) (*Order, error) {
	if totalSatang <= 0 {
		return nil, errors.NewValidationError("amount", "must be greater than 0")
	}
	if len(currency) != 3 {
		return nil, errors.NewValidationError("currency", "must be a 3-letter ISO code")
	}
	now := time.Now()
	return &Order{
		ID:             uuid.New(),
		UserID:         userID,
		OrderNumber:    generateOrderNumber(),
		OrderType:      orderType,
		ReferenceID:    referenceID,
		SubtotalSatang: totalSatang,
		TotalSatang:    totalSatang,
		Currency:       currency,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// CanTransitionTo checks if the order can transition to the given status.
func (o *Order) CanTransitionTo(newStatus Status) bool {
	transitions := map[Status][]Status{
		StatusPending:   {StatusConfirmed, StatusCancelled},
		StatusConfirmed: {StatusRefunded},
		StatusCancelled: {}, // terminal
		StatusRefunded:  {}, // terminal
	}

	allowed, exists := transitions[o.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == newStatus {
			return true
		}
	}
	return false
}

// TransitionTo transitions the order to a new status.
func (o *Order) TransitionTo(newStatus Status) error {
	if !o.CanTransitionTo(newStatus) {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot transition order from "+string(o.Status)+" to "+string(newStatus),
			errors.ErrInvalidStateTransition,
		)
	}
	o.Status = newStatus
	o.UpdatedAt = time.Now()
	return nil
}

// Confirm marks the order confirmed after a successful charge.
func (o *Order) Confirm() error { return o.TransitionTo(StatusConfirmed) }

// Cancel marks the order cancelled after a declined charge.
func (o *Order) Cancel() error { return o.TransitionTo(StatusCancelled) }

// MarkRefunded marks a confirmed order as refunded.
func (o *Order) MarkRefunded() error { return o.TransitionTo(StatusRefunded) }

func generateOrderNumber() string {
	return fmt.Sprintf("ORD%s%04d", time.Now().UTC().Format("20060102150405"), rand.Intn(10000))
}
