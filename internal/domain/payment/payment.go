package payment

import (
	"fmt"
	"time"

	"github.com/learnhub-th/coursepay/internal/domain/errors"
	"github.com/google/uuid"
)

// Method represents how the charge is collected.
type Method string

const (
	MethodCreditCard Method = "credit_card"
	MethodDebitCard  Method = "debit_card"
	MethodPromptPay  Method = "promptpay"
	MethodTrueMoney  Method = "truemoney"
)

// Status represents the payment status in the state machine.
type Status string

const (
	StatusPending    Status = "pending"
	StatusSuccessful Status = "successful"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
)

// Payment is one charge attempt against the external gateway.
type Payment struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	UserID         uuid.UUID
	IdempotencyKey string
	Method         Method
	Provider       string
	Amount         Amount
	Status         Status
	TransactionID  *string // gateway charge ID, set once the gateway responds
	FailureReason  *string
	Description    string
	PaidAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Amount represents a monetary amount in the smallest currency unit (satang for THB).
type Amount struct {
	ValueSatang int64
	Currency    string
}

// String returns a human-readable representation of the amount.
func (a Amount) String() string {
	whole := a.ValueSatang / 100
	frac := a.ValueSatang % 100
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("%d.%02d %s", whole, frac, a.Currency)
}

// Validate checks that the amount is valid.
func (a Amount) Validate() error {
	return validateAmount(a)
}

// New creates a pending payment for an order.
func New(orderID, userID uuid.UUID, idempotencyKey string, method Method, amount Amount, description string) (*Payment, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if idempotencyKey == "" {
		return nil, errors.ErrInvalidInput
	}

	now := time.Now()
	return &Payment{
		ID:             uuid.New(),
		OrderID:        orderID,
		UserID:         userID,
		IdempotencyKey: idempotencyKey,
		Method:         method,
		Provider:       "omise",
		Amount:         amount,
		Status:         StatusPending,
		Description:    description,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// CanTransitionTo checks if the payment can transition to the given status.
// Only Pending→{Successful,Failed} and Successful→Refunded are valid.
func (p *Payment) CanTransitionTo(newStatus Status) bool {
	transitions := map[Status][]Status{
		StatusPending:    {StatusSuccessful, StatusFailed},
		StatusSuccessful: {StatusRefunded},
		StatusFailed:     {}, // terminal
		StatusRefunded:   {}, // terminal
	}

	allowed, exists := transitions[p.Status]
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

// TransitionTo transitions the payment to a new status.
func (p *Payment) TransitionTo(newStatus Status) error {
	if !p.CanTransitionTo(newStatus) {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot transition payment from "+string(p.Status)+" to "+string(newStatus),
			errors.ErrInvalidStateTransition,
		)
	}
	p.Status = newStatus
	p.UpdatedAt = time.Now()
	return nil
}

// MarkSuccessful transitions the payment to successful and records the gateway charge ID.
func (p *Payment) MarkSuccessful(transactionID string) error {
	if err := p.TransitionTo(StatusSuccessful); err != nil {
		return err
	}
	p.TransactionID = &transactionID
	now := time.Now()
	p.PaidAt = &now
	return nil
}

// MarkFailed transitions the payment to failed with the gateway's reason.
func (p *Payment) MarkFailed(reason string) error {
	if err := p.TransitionTo(StatusFailed); err != nil {
		return err
	}
	p.FailureReason = &reason
	return nil
}

// MarkRefunded transitions a successful payment to refunded.
func (p *Payment) MarkRefunded() error {
	return p.TransitionTo(StatusRefunded)
}

// IsTerminal checks if the payment is in a terminal state.
func (p *Payment) IsTerminal() bool {
	return p.Status == StatusFailed || p.Status == StatusRefunded
}

func validateAmount(amount Amount) error {
	if amount.ValueSatang <= 0 {
		return errors.NewValidationError("amount", "must be greater than 0")
	}
	if amount.Currency == "" {
		return errors.NewValidationError("currency", "cannot be empty")
	}
	if len(amount.Currency) != 3 {
		return errors.NewValidationError("currency", "must be a 3-letter ISO code")
	}
	return nil
}
