package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	domainErrors "github.com/learnhub-th/coursepay/internal/domain/errors"
	"github.com/learnhub-th/coursepay/internal/domain/order"
)

// OrderRepository implements order.Repository using PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// Create inserts a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO orders
		 (id, user_id, order_number, order_type, reference_id,
		  subtotal, discount, total, currency, status, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		o.ID, o.UserID, o.OrderNumber, string(o.OrderType), o.ReferenceID,
		satangToNumericString(o.SubtotalSatang), satangToNumericString(o.DiscountSatang),
		satangToNumericString(o.TotalSatang), o.Currency, string(o.Status), o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetByID retrieves an order by its ID.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.scanOrder(r.db(ctx).QueryRow(ctx,
		`SELECT id, user_id, order_number, order_type, reference_id,
		        subtotal, discount, total, currency, status, created_at, updated_at
		 FROM orders WHERE id = $1`, id))
}

// Update updates an existing order.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE orders SET status=$1, updated_at=$2 WHERE id=$3`,
		string(o.Status), o.UpdatedAt, o.ID,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) scanOrder(s scanner) (*order.Order, error) {
	o := &order.Order{}
	var (
		orderType   string
		subtotalStr string
		discountStr string
		totalStr    string
		status      string
	)
	err := s.Scan(
		&o.ID, &o.UserID, &o.OrderNumber, &orderType, &o.ReferenceID,
		&subtotalStr, &discountStr, &totalStr, &o.Currency, &status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if o.SubtotalSatang, err = numericStringToSatang(subtotalStr); err != nil {
		return nil, fmt.Errorf("parse subtotal: %w", err)
	}
	if o.DiscountSatang, err = numericStringToSatang(discountStr); err != nil {
		return nil, fmt.Errorf("parse discount: %w", err)
	}
	if o.TotalSatang, err = numericStringToSatang(totalStr); err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	o.OrderType = order.OrderType(orderType)
	o.Status = order.Status(status)
	return o, nil
}
