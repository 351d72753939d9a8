package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	domainErrors "github.com/learnhub-th/coursepay/internal/domain/errors"
	"github.com/learnhub-th/coursepay/internal/domain/order"
	"github.com/learnhub-th/coursepay/internal/domain/outbox"
	"github.com/learnhub-th/coursepay/internal/domain/payment"
	"github.com/learnhub-th/coursepay/internal/events"
	"github.com/learnhub-th/coursepay/internal/gateway"
	"github.com/learnhub-th/coursepay/internal/idempotency"
)

// CreateChargeRequest holds the input for charging a course purchase.
type CreateChargeRequest struct {
	IdempotencyKey string
	UserID         uuid.UUID
	CourseID       uuid.UUID
	AmountSatang   int64
	Currency       string
	Method         payment.Method
	CardToken      string
	Description    string
}

// CreateChargeResponse holds the order/payment pair after the attempt.
type CreateChargeResponse struct {
	Order   *order.Order
	Payment *payment.Payment
}

// CreateChargeUseCase orchestrates order creation, the gateway charge and the
// payment.received publish. The publish is claimed through the guard so the
// synchronous path and webhook reconciliation never both emit it.
type CreateChargeUseCase struct {
	orderRepo   order.Repository
	paymentRepo payment.Repository
	gw          gateway.Gateway
	outboxRepo  OutboxWriter
	guard       Guard
	txManager   TransactionManager
	logger      zerolog.Logger
}

// NewCreateChargeUseCase creates a new CreateChargeUseCase.
func NewCreateChargeUseCase(
	orderRepo order.Repository,
	paymentRepo payment.Repository,
	gw gateway.Gateway,
	outboxRepo OutboxWriter,
	guard Guard,
	txManager TransactionManager,
	logger zerolog.Logger,
) *CreateChargeUseCase {
	return &CreateChargeUseCase{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		gw:          gw,
		outboxRepo:  outboxRepo,
		guard:       guard,
		txManager:   txManager,
		logger:      logger,
	}
}

// Execute creates (or resumes) the order/payment pair for the idempotency key
// and attempts the charge. A repeated key never creates a second pair: settled
// payments are returned as-is, pending ones get their charge re-attempted.
func (uc *CreateChargeUseCase) Execute(ctx context.Context, req CreateChargeRequest) (*CreateChargeResponse, error) {
	p, o, err := uc.findOrCreatePair(ctx, req)
	if err != nil {
		return nil, err
	}

	// Terminal payments replay the recorded outcome without touching the
	// gateway again.
	if p.Status != payment.StatusPending {
		return &CreateChargeResponse{Order: o, Payment: p}, nil
	}

	return uc.attemptCharge(ctx, o, p, req.CardToken)
}

func (uc *CreateChargeUseCase) findOrCreatePair(ctx context.Context, req CreateChargeRequest) (*payment.Payment, *order.Order, error) {
	existing, err := uc.paymentRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
	if err == nil {
		o, err := uc.orderRepo.GetByID(ctx, existing.OrderID)
		if err != nil {
			return nil, nil, err
		}
		return existing, o, nil
	}
	if !errors.Is(err, domainErrors.ErrPaymentNotFound) {
		return nil, nil, err
	}

	o, err := order.New(req.UserID, req.CourseID, order.TypeCourseEnrollment, req.AmountSatang, req.Currency)
	if err != nil {
		return nil, nil, err
	}
	p, err := payment.New(o.ID, req.UserID, req.IdempotencyKey, req.Method,
		payment.Amount{ValueSatang: req.AmountSatang, Currency: req.Currency}, req.Description)
	if err != nil {
		return nil, nil, err
	}
	p.Provider = uc.gw.Name()

	err = uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.orderRepo.Create(txCtx, o); err != nil {
			return err
		}
		return uc.paymentRepo.Create(txCtx, p)
	})
	if err != nil {
		// A concurrent request with the same key won the insert; use its pair.
		if errors.Is(err, domainErrors.ErrDuplicateIdempotencyKey) {
			winner, gerr := uc.paymentRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
			if gerr != nil {
				return nil, nil, gerr
			}
			wo, gerr := uc.orderRepo.GetByID(ctx, winner.OrderID)
			if gerr != nil {
				return nil, nil, gerr
			}
			return winner, wo, nil
		}
		return nil, nil, err
	}
	return p, o, nil
}

func (uc *CreateChargeUseCase) attemptCharge(ctx context.Context, o *order.Order, p *payment.Payment, cardToken string) (*CreateChargeResponse, error) {
	result, err := uc.gw.CreateCharge(ctx, gateway.ChargeRequest{
		IdempotencyKey: p.IdempotencyKey,
		AmountSatang:   p.Amount.ValueSatang,
		Currency:       p.Amount.Currency,
		Method:         string(p.Method),
		CardToken:      cardToken,
		Description:    p.Description,
	})
	if err != nil {
		// Timeout or outage: the outcome is unknown, so the payment stays
		// pending until the webhook (or a retry) resolves it.
		uc.logger.Warn().Err(err).
			Str("payment_id", p.ID.String()).
			Msg("gateway charge unresolved, payment left pending")
		uc.addLog(ctx, p, "create_charge", false, err.Error(), nil)
		return &CreateChargeResponse{Order: o, Payment: p}, nil
	}

	switch result.Status {
	case gateway.StatusSuccessful:
		if err := uc.settleSuccess(ctx, o, p, result.TransactionID); err != nil {
			return nil, err
		}
	case gateway.StatusFailed:
		if err := uc.settleFailure(ctx, o, p, result.FailureMessage); err != nil {
			return nil, err
		}
	default:
		// Gateway accepted the charge but has not settled it yet.
		uc.addLog(ctx, p, "create_charge", true, "", map[string]any{
			"transaction_id": result.TransactionID,
			"status":         string(result.Status),
		})
	}

	return &CreateChargeResponse{Order: o, Payment: p}, nil
}

// settleSuccess marks the pair successful and stages payment.received, all in
// one transaction with the guard claim.
func (uc *CreateChargeUseCase) settleSuccess(ctx context.Context, o *order.Order, p *payment.Payment, transactionID string) error {
	return uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := p.MarkSuccessful(transactionID); err != nil {
			// Webhook reconciliation got here first; nothing left to do.
			if errors.Is(err, domainErrors.ErrInvalidStateTransition) {
				return nil
			}
			return err
		}
		if err := uc.paymentRepo.Update(txCtx, p); err != nil {
			return err
		}
		if err := o.Confirm(); err != nil {
			return err
		}
		if err := uc.orderRepo.Update(txCtx, o); err != nil {
			return err
		}

		claimed, err := uc.guard.TryClaim(txCtx, idempotency.ScopePaymentReceived, p.ID.String())
		if err != nil {
			return err
		}
		if claimed {
			if err := uc.outboxRepo.Insert(txCtx, outbox.NewEntry(
				"payment", p.ID, events.TopicPaymentReceived, paymentReceivedPayload(o, p),
			)); err != nil {
				return err
			}
		}

		uc.addLog(txCtx, p, "create_charge", true, "", map[string]any{
			"transaction_id": transactionID,
			"status":         "successful",
		})
		return nil
	})
}

func (uc *CreateChargeUseCase) settleFailure(ctx context.Context, o *order.Order, p *payment.Payment, reason string) error {
	return uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := p.MarkFailed(reason); err != nil {
			if errors.Is(err, domainErrors.ErrInvalidStateTransition) {
				return nil
			}
			return err
		}
		if err := uc.paymentRepo.Update(txCtx, p); err != nil {
			return err
		}
		if err := o.Cancel(); err != nil {
			return err
		}
		if err := uc.orderRepo.Update(txCtx, o); err != nil {
			return err
		}

		uc.addLog(txCtx, p, "create_charge", false, reason, nil)
		return nil
	})
}

func (uc *CreateChargeUseCase) addLog(ctx context.Context, p *payment.Payment, action string, success bool, errMsg string, response map[string]any) {
	entry := &payment.TransactionLog{
		ID:        uuid.New(),
		PaymentID: p.ID,
		Action:    action,
		RequestData: map[string]any{
			"amount_satang": p.Amount.ValueSatang,
			"currency":      p.Amount.Currency,
			"method":        string(p.Method),
		},
		ResponseData: response,
		IsSuccess:    success,
	}
	if errMsg != "" {
		entry.ErrorMessage = &errMsg
	}
	if err := uc.paymentRepo.AddLog(ctx, entry); err != nil {
		uc.logger.Error().Err(err).Str("payment_id", p.ID.String()).Msg("failed to append transaction log")
	}
}

// paymentReceivedPayload builds the payment.received event body.
func paymentReceivedPayload(o *order.Order, p *payment.Payment) map[string]any {
	transactionID := ""
	if p.TransactionID != nil {
		transactionID = *p.TransactionID
	}
	return map[string]any{
		"payment_id":     p.ID.String(),
		"order_id":       o.ID.String(),
		"user_id":        p.UserID.String(),
		"course_id":      o.ReferenceID.String(),
		"amount_satang":  p.Amount.ValueSatang,
		"currency":       p.Amount.Currency,
		"status":         string(p.Status),
		"transaction_id": transactionID,
	}
}
