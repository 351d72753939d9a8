// Package webhook implements gateway callback intake and reconciliation.
// Intake persists the raw payload before anything reads it; interpretation is
// a separate, retryable step.
package webhook

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/learnhub-th/coursepay/internal/domain/webhook"
)

// ReceiveUseCase stores an incoming gateway callback.
type ReceiveUseCase struct {
	webhookRepo webhook.Repository
	logger      zerolog.Logger
}

// NewReceiveUseCase creates a new ReceiveUseCase.
func NewReceiveUseCase(webhookRepo webhook.Repository, logger zerolog.Logger) *ReceiveUseCase {
	return &ReceiveUseCase{webhookRepo: webhookRepo, logger: logger}
}

// Execute persists the raw body and signature untouched. No parsing, no
// signature check: a webhook that cannot be understood must still never be
// lost. Only a storage failure is reported back to the gateway, which will
// redeliver.
func (uc *ReceiveUseCase) Execute(ctx context.Context, payload []byte, signature string) (*webhook.Record, error) {
	rec := webhook.NewRecord(payload, signature)
	if err := uc.webhookRepo.Insert(ctx, rec); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("webhook_id", rec.ID.String()).
		Int("payload_bytes", len(payload)).
		Msg("webhook stored")
	return rec, nil
}
