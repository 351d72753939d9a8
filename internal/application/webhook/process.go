package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	domainErrors "github.com/learnhub-th/coursepay/internal/domain/errors"
	"github.com/learnhub-th/coursepay/internal/domain/order"
	"github.com/learnhub-th/coursepay/internal/domain/outbox"
	"github.com/learnhub-th/coursepay/internal/domain/payment"
	"github.com/learnhub-th/coursepay/internal/domain/webhook"
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

// gatewayEvent is the parsed shape of a gateway callback body.
type gatewayEvent struct {
	EventType string `json:"event_type"`
	Data      struct {
		ID             string `json:"id"`
		Status         string `json:"status"`
		FailureMessage string `json:"failure_message"`
		Metadata       struct {
			PaymentID string `json:"payment_id"`
		} `json:"metadata"`
	} `json:"data"`
}

// ProcessUseCase reconciles stored webhook records against payments. It is
// the settlement authority for charges whose synchronous outcome was lost to
// a timeout, and it uses the same publish guard as the synchronous path, so
// payment.received goes out exactly once per payment no matter which side
// settles first or how often the gateway redelivers.
type ProcessUseCase struct {
	webhookRepo   webhook.Repository
	paymentRepo   payment.Repository
	orderRepo     order.Repository
	outboxRepo    OutboxWriter
	guard         Guard
	txManager     TransactionManager
	signingSecret string
	logger        zerolog.Logger
}

// NewProcessUseCase creates a new ProcessUseCase.
func NewProcessUseCase(
	webhookRepo webhook.Repository,
	paymentRepo payment.Repository,
	orderRepo order.Repository,
	outboxRepo OutboxWriter,
	guard Guard,
	txManager TransactionManager,
	signingSecret string,
	logger zerolog.Logger,
) *ProcessUseCase {
	return &ProcessUseCase{
		webhookRepo:   webhookRepo,
		paymentRepo:   paymentRepo,
		orderRepo:     orderRepo,
		outboxRepo:    outboxRepo,
		guard:         guard,
		txManager:     txManager,
		signingSecret: signingSecret,
		logger:        logger,
	}
}

// ProcessBatch processes up to limit stored records. Returns how many records
// were picked up.
func (uc *ProcessUseCase) ProcessBatch(ctx context.Context, limit int) (int, error) {
	var count int
	err := uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		records, err := uc.webhookRepo.GetUnprocessed(txCtx, limit)
		if err != nil {
			return err
		}
		count = len(records)
		for _, rec := range records {
			uc.processRecord(txCtx, rec)
		}
		return nil
	})
	return count, err
}

// ProcessRecord processes a single stored record by ID.
func (uc *ProcessUseCase) ProcessRecord(ctx context.Context, id uuid.UUID) error {
	return uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		rec, err := uc.webhookRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if rec.IsDone() {
			return nil
		}
		uc.processRecord(txCtx, rec)
		return nil
	})
}

// processRecord interprets one record and persists the outcome. Terminal
// interpretation problems (bad signature, unparseable body, unknown charge
// status) mark the record processed with the error noted; transient failures
// count against the retry budget and dead-letter when it runs out.
func (uc *ProcessUseCase) processRecord(ctx context.Context, rec *webhook.Record) {
	log := uc.logger.With().Str("webhook_id", rec.ID.String()).Logger()

	outcomeErr := uc.reconcile(ctx, rec, log)
	switch {
	case outcomeErr == nil:
		rec.MarkProcessed("")
	case isTerminal(outcomeErr):
		log.Warn().Err(outcomeErr).Msg("webhook unusable, marking processed with error")
		rec.MarkProcessed(outcomeErr.Error())
	default:
		log.Error().Err(outcomeErr).Int("retry_count", rec.RetryCount+1).Msg("webhook processing failed")
		rec.MarkFailed(outcomeErr.Error())
		if rec.Status == webhook.StatusDead {
			log.Error().Msg("webhook dead-lettered after exhausting retries")
		}
	}

	if err := uc.webhookRepo.UpdateStatus(ctx, rec); err != nil {
		log.Error().Err(err).Msg("failed to persist webhook status")
	}
}

func (uc *ProcessUseCase) reconcile(ctx context.Context, rec *webhook.Record, log zerolog.Logger) error {
	if !uc.verifySignature(rec.Payload, rec.Signature) {
		return domainErrors.ErrInvalidSignature
	}

	var event gatewayEvent
	if err := json.Unmarshal(rec.Payload, &event); err != nil {
		return domainErrors.ErrUnparseablePayload
	}
	if event.Data.ID == "" {
		return domainErrors.ErrUnparseablePayload
	}

	p, err := uc.findPayment(ctx, event)
	if err != nil {
		// The payment row may not be visible yet; retry later.
		return err
	}

	switch event.Data.Status {
	case "successful":
		return uc.settleSuccess(ctx, p, event.Data.ID)
	case "failed":
		return uc.settleFailure(ctx, p, event.Data.FailureMessage)
	default:
		log.Warn().Str("status", event.Data.Status).Msg("unknown charge status in webhook")
		return domainErrors.ErrUnparseablePayload
	}
}

func (uc *ProcessUseCase) findPayment(ctx context.Context, event gatewayEvent) (*payment.Payment, error) {
	p, err := uc.paymentRepo.GetByTransactionID(ctx, event.Data.ID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domainErrors.ErrPaymentNotFound) {
		return nil, err
	}
	if event.Data.Metadata.PaymentID != "" {
		id, perr := uuid.Parse(event.Data.Metadata.PaymentID)
		if perr == nil {
			return uc.paymentRepo.GetByID(ctx, id)
		}
	}
	return nil, domainErrors.ErrPaymentNotFound
}

// settleSuccess resolves a pending payment as successful. A payment the
// synchronous path already settled is a duplicate notification; the guard
// keeps the publish single either way.
func (uc *ProcessUseCase) settleSuccess(ctx context.Context, p *payment.Payment, transactionID string) error {
	if p.Status == payment.StatusSuccessful || p.Status == payment.StatusRefunded {
		return nil
	}

	if err := p.MarkSuccessful(transactionID); err != nil {
		return err
	}
	if err := uc.paymentRepo.Update(ctx, p); err != nil {
		return err
	}

	o, err := uc.orderRepo.GetByID(ctx, p.OrderID)
	if err != nil {
		return err
	}
	if o.Status == order.StatusPending {
		if err := o.Confirm(); err != nil {
			return err
		}
		if err := uc.orderRepo.Update(ctx, o); err != nil {
			return err
		}
	}

	claimed, err := uc.guard.TryClaim(ctx, idempotency.ScopePaymentReceived, p.ID.String())
	if err != nil {
		return err
	}
	if claimed {
		if err := uc.outboxRepo.Insert(ctx, outbox.NewEntry("payment", p.ID, events.TopicPaymentReceived, map[string]any{
			"payment_id":     p.ID.String(),
			"order_id":       o.ID.String(),
			"user_id":        p.UserID.String(),
			"course_id":      o.ReferenceID.String(),
			"amount_satang":  p.Amount.ValueSatang,
			"currency":       p.Amount.Currency,
			"status":         string(p.Status),
			"transaction_id": transactionID,
		})); err != nil {
			return err
		}
	}

	uc.addReconcileLog(ctx, p, true, "")
	return nil
}

func (uc *ProcessUseCase) settleFailure(ctx context.Context, p *payment.Payment, reason string) error {
	if p.Status != payment.StatusPending {
		return nil
	}

	if err := p.MarkFailed(reason); err != nil {
		return err
	}
	if err := uc.paymentRepo.Update(ctx, p); err != nil {
		return err
	}

	o, err := uc.orderRepo.GetByID(ctx, p.OrderID)
	if err != nil {
		return err
	}
	if o.Status == order.StatusPending {
		if err := o.Cancel(); err != nil {
			return err
		}
		if err := uc.orderRepo.Update(ctx, o); err != nil {
			return err
		}
	}

	uc.addReconcileLog(ctx, p, false, reason)
	return nil
}

func (uc *ProcessUseCase) addReconcileLog(ctx context.Context, p *payment.Payment, success bool, errMsg string) {
	entry := &payment.TransactionLog{
		ID:        uuid.New(),
		PaymentID: p.ID,
		Action:    "webhook_reconcile",
		ResponseData: map[string]any{
			"status": string(p.Status),
		},
		IsSuccess: success,
	}
	if errMsg != "" {
		entry.ErrorMessage = &errMsg
	}
	if err := uc.paymentRepo.AddLog(ctx, entry); err != nil {
		uc.logger.Error().Err(err).Str("payment_id", p.ID.String()).Msg("failed to append transaction log")
	}
}

// verifySignature checks the HMAC-SHA256 hex signature over the raw payload.
func (uc *ProcessUseCase) verifySignature(payload []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(uc.signingSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign computes the signature a gateway would attach to payload. Exported for
// tests and the local development sender.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func isTerminal(err error) bool {
	return errors.Is(err, domainErrors.ErrInvalidSignature) ||
		errors.Is(err, domainErrors.ErrUnparseablePayload) ||
		errors.Is(err, domainErrors.ErrInvalidStateTransition)
}
