package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	domainErrors "github.com/learnhub-th/coursepay/internal/domain/errors"
	"github.com/learnhub-th/coursepay/internal/domain/order"
	"github.com/learnhub-th/coursepay/internal/domain/payment"
	"github.com/learnhub-th/coursepay/internal/gateway"
)

// RefundPaymentRequest holds the input for refunding a payment.
type RefundPaymentRequest struct {
	PaymentID uuid.UUID
	Reason    string
}

// RefundPaymentUseCase refunds a successful payment through the gateway and
// flips the payment/order pair to refunded.
type RefundPaymentUseCase struct {
	orderRepo   order.Repository
	paymentRepo payment.Repository
	gw          gateway.Gateway
	txManager   TransactionManager
	logger      zerolog.Logger
}

// NewRefundPaymentUseCase creates a new RefundPaymentUseCase.
func NewRefundPaymentUseCase(
	orderRepo order.Repository,
	paymentRepo payment.Repository,
	gw gateway.Gateway,
	txManager TransactionManager,
	logger zerolog.Logger,
) *RefundPaymentUseCase {
	return &RefundPaymentUseCase{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		gw:          gw,
		txManager:   txManager,
		logger:      logger,
	}
}

// Execute refunds the payment. Only successful payments are refundable; a
// repeated refund of the same payment returns ErrPaymentNotRefundable from
// the state machine rather than double-refunding.
func (uc *RefundPaymentUseCase) Execute(ctx context.Context, req RefundPaymentRequest) (*payment.Refund, error) {
	p, err := uc.paymentRepo.GetByID(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != payment.StatusSuccessful {
		return nil, domainErrors.ErrPaymentNotRefundable
	}
	if p.TransactionID == nil {
		return nil, domainErrors.ErrPaymentNotRefundable
	}

	result, err := uc.gw.CreateRefund(ctx, gateway.RefundRequest{
		TransactionID: *p.TransactionID,
		AmountSatang:  p.Amount.ValueSatang,
		Reason:        req.Reason,
	})
	if err != nil {
		uc.logger.Error().Err(err).Str("payment_id", p.ID.String()).Msg("gateway refund failed")
		return nil, err
	}

	refund := payment.NewRefund(p.ID, p.Amount.ValueSatang, req.Reason)
	refund.Complete(result.RefundID)

	err = uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := p.MarkRefunded(); err != nil {
			// Lost a race with another refund request; the money moved once.
			if errors.Is(err, domainErrors.ErrInvalidStateTransition) {
				return domainErrors.ErrPaymentNotRefundable
			}
			return err
		}
		if err := uc.paymentRepo.Update(txCtx, p); err != nil {
			return err
		}

		o, err := uc.orderRepo.GetByID(txCtx, p.OrderID)
		if err != nil {
			return err
		}
		if err := o.MarkRefunded(); err != nil {
			return err
		}
		if err := uc.orderRepo.Update(txCtx, o); err != nil {
			return err
		}

		if err := uc.paymentRepo.CreateRefund(txCtx, refund); err != nil {
			return err
		}

		return uc.paymentRepo.AddLog(txCtx, &payment.TransactionLog{
			ID:        uuid.New(),
			PaymentID: p.ID,
			Action:    "refund_charge",
			RequestData: map[string]any{
				"amount_satang": p.Amount.ValueSatang,
				"reason":        req.Reason,
			},
			ResponseData: map[string]any{
				"refund_id": result.RefundID,
			},
			IsSuccess: true,
		})
	})
	if err != nil {
		return nil, err
	}
	return refund, nil
}
