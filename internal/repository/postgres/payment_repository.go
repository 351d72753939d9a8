package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	domainErrors "github.com/learnhub-th/coursepay/internal/domain/errors"
	"github.com/learnhub-th/coursepay/internal/domain/payment"
)

// allowedSortColumns is a whitelist of columns valid for ORDER BY.
var allowedSortColumns = map[string]string{
	"created_at": "created_at",
	"amount":     "amount",
	"status":     "status",
	"updated_at": "updated_at",
}

// PaymentRepository implements payment.Repository using PostgreSQL.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Create inserts a new payment.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO payments
		 (id, order_id, user_id, idempotency_key, method, provider,
		  amount, currency, status, transaction_id, failure_reason, description,
		  paid_at, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		p.ID, p.OrderID, p.UserID, p.IdempotencyKey, string(p.Method), p.Provider,
		satangToNumericString(p.Amount.ValueSatang), p.Amount.Currency, string(p.Status),
		p.TransactionID, p.FailureReason, p.Description,
		p.PaidAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domainErrors.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByID retrieves a payment by its ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return r.scanPayment(r.db(ctx).QueryRow(ctx,
		selectPayment+` WHERE id = $1`, id))
}

// GetByIdempotencyKey retrieves a payment by idempotency key.
func (r *PaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*payment.Payment, error) {
	return r.scanPayment(r.db(ctx).QueryRow(ctx,
		selectPayment+` WHERE idempotency_key = $1`, key))
}

// GetByTransactionID retrieves a payment by the gateway charge ID.
func (r *PaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*payment.Payment, error) {
	return r.scanPayment(r.db(ctx).QueryRow(ctx,
		selectPayment+` WHERE transaction_id = $1`, transactionID))
}

// Update updates an existing payment.
func (r *PaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE payments SET
		  status=$1, transaction_id=$2, failure_reason=$3, paid_at=$4, updated_at=$5
		 WHERE id=$6`,
		string(p.Status), p.TransactionID, p.FailureReason, p.PaidAt, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrPaymentNotFound
	}
	return nil
}

// List lists payments with optional filters.
func (r *PaymentRepository) List(ctx context.Context, f payment.ListFilter) ([]*payment.Payment, error) {
	query := selectPayment + ` WHERE 1=1`
	args := []any{}
	argIdx := 1

	if f.UserID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argIdx)
		args = append(args, *f.UserID)
		argIdx++
	}
	if f.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, string(*f.Status))
		argIdx++
	}

	// Strict whitelist for sort column
	sortBy := "created_at"
	if col, ok := allowedSortColumns[f.SortBy]; ok {
		sortBy = col
	}
	sortOrder := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		sortOrder = "ASC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, sortOrder)

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		p, err := r.scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// CreateRefund inserts a refund record.
func (r *PaymentRepository) CreateRefund(ctx context.Context, rf *payment.Refund) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO refunds (id, payment_id, amount, reason, status, provider_refund_id, requested_at, completed_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		rf.ID, rf.PaymentID, satangToNumericString(rf.AmountSatang), rf.Reason,
		string(rf.Status), rf.ProviderRefundID, rf.RequestedAt, rf.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert refund: %w", err)
	}
	return nil
}

// AddLog appends a transaction log entry.
func (r *PaymentRepository) AddLog(ctx context.Context, entry *payment.TransactionLog) error {
	reqData, err := json.Marshal(entry.RequestData)
	if err != nil {
		return fmt.Errorf("marshal request data: %w", err)
	}
	respData, err := json.Marshal(entry.ResponseData)
	if err != nil {
		return fmt.Errorf("marshal response data: %w", err)
	}
	_, err = r.db(ctx).Exec(ctx,
		`INSERT INTO payment_transaction_logs (id, payment_id, action, request_data, response_data, is_success, error_message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		entry.ID, entry.PaymentID, entry.Action, reqData, respData, entry.IsSuccess, entry.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("insert transaction log: %w", err)
	}
	return nil
}

// GetLogs retrieves the transaction log for a payment.
func (r *PaymentRepository) GetLogs(ctx context.Context, paymentID uuid.UUID) ([]*payment.TransactionLog, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT id, payment_id, action, request_data, response_data, is_success, error_message, created_at
		 FROM payment_transaction_logs WHERE payment_id = $1 ORDER BY created_at ASC`, paymentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transaction logs: %w", err)
	}
	defer rows.Close()

	var logs []*payment.TransactionLog
	for rows.Next() {
		e := &payment.TransactionLog{}
		var reqData, respData []byte
		if err := rows.Scan(&e.ID, &e.PaymentID, &e.Action, &reqData, &respData, &e.IsSuccess, &e.ErrorMessage, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction log: %w", err)
		}
		if len(reqData) > 0 {
			if err := json.Unmarshal(reqData, &e.RequestData); err != nil {
				return nil, fmt.Errorf("unmarshal request data: %w", err)
			}
		}
		if len(respData) > 0 {
			if err := json.Unmarshal(respData, &e.ResponseData); err != nil {
				return nil, fmt.Errorf("unmarshal response data: %w", err)
			}
		}
		logs = append(logs, e)
	}
	return logs, rows.Err()
}

// --- scanning helpers ---

const selectPayment = `SELECT id, order_id, user_id, idempotency_key, method, provider,
	        amount, currency, status, transaction_id, failure_reason, description,
	        paid_at, created_at, updated_at
	 FROM payments`

// scanPayment scans a payment from any source implementing the scanner interface.
func (r *PaymentRepository) scanPayment(s scanner) (*payment.Payment, error) {
	p := &payment.Payment{}
	var (
		method    string
		amountStr string
		status    string
	)
	err := s.Scan(
		&p.ID, &p.OrderID, &p.UserID, &p.IdempotencyKey, &method, &p.Provider,
		&amountStr, &p.Amount.Currency, &status, &p.TransactionID, &p.FailureReason, &p.Description,
		&p.PaidAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}

	satang, err := numericStringToSatang(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	p.Amount.ValueSatang = satang

	p.Method = payment.Method(method)
	p.Status = payment.Status(status)
	return p, nil
}
