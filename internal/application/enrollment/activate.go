// Package enrollment implements the enrollment side of the purchase flow:
// activating access when a payment lands and publishing course.completed when
// progress reaches the end.
package enrollment

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/learnhub-th/coursepay/internal/domain/enrollment"
	domainErrors "github.com/learnhub-th/coursepay/internal/domain/errors"
	"github.com/learnhub-th/coursepay/internal/domain/outbox"
	"github.com/learnhub-th/coursepay/internal/events"
	"github.com/learnhub-th/coursepay/internal/idempotency"
)

// TransactionManager defines the interface for transaction management.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// OutboxWriter defines the interface for writing to the transactional outbox.
type OutboxWriter interface {
	Insert(ctx context.Context, entry *outbox.Entry) error
}

// Guard records that a logical event was processed.
type Guard interface {
	TryClaim(ctx context.Context, scope, key string) (bool, error)
}

// ActivateUseCase consumes payment.received and grants course access. The
// guard claim keyed by payment ID makes redeliveries no-ops; an enrollment
// that pre-exists the payment (wishlist/free path) gets its payment confirmed
// instead of a second row.
type ActivateUseCase struct {
	enrollmentRepo enrollment.Repository
	guard          Guard
	txManager      TransactionManager
	logger         zerolog.Logger
}

// NewActivateUseCase creates a new ActivateUseCase.
func NewActivateUseCase(
	enrollmentRepo enrollment.Repository,
	guard Guard,
	txManager TransactionManager,
	logger zerolog.Logger,
) *ActivateUseCase {
	return &ActivateUseCase{
		enrollmentRepo: enrollmentRepo,
		guard:          guard,
		txManager:      txManager,
		logger:         logger,
	}
}

// HandlePaymentReceived is the payment.received event handler. A malformed
// payload is acknowledged and logged rather than redelivered forever; the
// event bus retries only on infrastructure errors.
func (uc *ActivateUseCase) HandlePaymentReceived(ctx context.Context, payload []byte) error {
	var event events.PaymentReceived
	if err := json.Unmarshal(payload, &event); err != nil {
		uc.logger.Error().Err(err).Msg("discarding malformed payment.received payload")
		return nil
	}
	if event.PaymentID == uuid.Nil {
		uc.logger.Error().Msg("discarding payment.received without payment_id")
		return nil
	}

	log := uc.logger.With().
		Str("payment_id", event.PaymentID.String()).
		Str("user_id", event.UserID.String()).
		Str("course_id", event.CourseID.String()).
		Logger()

	err := uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		claimed, err := uc.guard.TryClaim(txCtx, idempotency.ScopeEnroll, event.PaymentID.String())
		if err != nil {
			return err
		}
		if !claimed {
			log.Debug().Msg("duplicate payment.received delivery, already enrolled")
			return nil
		}

		// An enrollment from the wishlist/free path may already exist. Look
		// it up before inserting: a unique-violation would abort the open
		// transaction and take the guard claim down with it, so the insert
		// must only run when no row is there.
		existing, err := uc.enrollmentRepo.GetByUserAndCourse(txCtx, event.UserID, event.CourseID)
		switch {
		case err == nil:
			existing.ConfirmPayment(event.TransactionID)
			if err := uc.enrollmentRepo.Update(txCtx, existing); err != nil {
				return err
			}
			log.Info().Str("enrollment_id", existing.ID.String()).Msg("pre-existing enrollment payment confirmed")
			return nil
		case !errors.Is(err, domainErrors.ErrEnrollmentNotFound):
			return err
		}

		e := enrollment.New(event.UserID, event.CourseID, event.AmountSatang)
		e.ConfirmPayment(event.TransactionID)
		if err := uc.enrollmentRepo.Create(txCtx, e); err != nil {
			return err
		}

		log.Info().Str("enrollment_id", e.ID.String()).Msg("enrollment activated")
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to activate enrollment")
		return err
	}
	return nil
}
