package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	domainErrors "github.com/learnhub-th/coursepay/internal/domain/errors"
	"github.com/learnhub-th/coursepay/internal/infrastructure/config"
)

// OmiseGateway talks to the Omise charges API over HTTPS.
type OmiseGateway struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

// NewOmiseGateway creates a gateway client from config. Every request is
// bounded by cfg.RequestTimeout on top of the caller's context.
func NewOmiseGateway(cfg *config.GatewayConfig) *OmiseGateway {
	return &OmiseGateway{
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

func (g *OmiseGateway) Name() string { return "omise" }

type omiseChargeRequest struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Card        string `json:"card,omitempty"`
	Description string `json:"description,omitempty"`
}

type omiseChargeResponse struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	Paid           bool   `json:"paid"`
	FailureCode    string `json:"failure_code"`
	FailureMessage string `json:"failure_message"`
}

// CreateCharge creates a charge. The Idempotency-Key header makes a retried
// request return the original charge instead of creating a second one.
func (g *OmiseGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	body, err := json.Marshal(omiseChargeRequest{
		Amount:      req.AmountSatang,
		Currency:    req.Currency,
		Card:        req.CardToken,
		Description: req.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/charges", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build charge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	httpReq.SetBasicAuth(g.secretKey, "")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, domainErrors.ErrGatewayTimeout
		}
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", domainErrors.ErrGatewayUnavailable, resp.StatusCode)
	}

	var chargeResp omiseChargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&chargeResp); err != nil {
		return nil, fmt.Errorf("decode charge response: %w", err)
	}

	return &ChargeResult{
		TransactionID:  chargeResp.ID,
		Status:         mapChargeStatus(chargeResp),
		FailureMessage: chargeResp.FailureMessage,
	}, nil
}

type omiseRefundRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason,omitempty"`
}

type omiseRefundResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreateRefund refunds a settled charge.
func (g *OmiseGateway) CreateRefund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	body, err := json.Marshal(omiseRefundRequest{Amount: req.AmountSatang, Reason: req.Reason})
	if err != nil {
		return nil, fmt.Errorf("marshal refund request: %w", err)
	}

	url := fmt.Sprintf("%s/charges/%s/refunds", g.baseURL, req.TransactionID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build refund request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(g.secretKey, "")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, domainErrors.ErrGatewayTimeout
		}
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", domainErrors.ErrGatewayUnavailable, resp.StatusCode)
	}

	var refundResp omiseRefundResponse
	if err := json.NewDecoder(resp.Body).Decode(&refundResp); err != nil {
		return nil, fmt.Errorf("decode refund response: %w", err)
	}

	status := StatusSuccessful
	if refundResp.Status == "pending" {
		status = StatusPending
	}
	return &RefundResult{RefundID: refundResp.ID, Status: status}, nil
}

func mapChargeStatus(resp omiseChargeResponse) ChargeStatus {
	switch {
	case resp.Paid && resp.Status == "successful":
		return StatusSuccessful
	case resp.Status == "failed":
		return StatusFailed
	default:
		return StatusPending
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

var _ Gateway = (*OmiseGateway)(nil)
