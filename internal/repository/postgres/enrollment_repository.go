package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	domainErrors "github.com/learnhub-th/coursepay/internal/domain/errors"
	"github.com/learnhub-th/coursepay/internal/domain/enrollment"
)

// EnrollmentRepository implements enrollment.Repository using PostgreSQL.
type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

func (r *EnrollmentRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

const selectEnrollment = `SELECT id, user_id, course_id, status, payment_status, price,
	        transaction_id, completion_percentage, is_completed, enrolled_at, completed_at, updated_at
	 FROM enrollments`

// Create inserts a new enrollment. The unique index on (user_id, course_id)
// turns a duplicate insert into ErrDuplicateEnrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, e *enrollment.Enrollment) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO enrollments
		 (id, user_id, course_id, status, payment_status, price,
		  transaction_id, completion_percentage, is_completed, enrolled_at, completed_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		e.ID, e.UserID, e.CourseID, string(e.Status), string(e.PaymentStatus),
		satangToNumericString(e.PriceSatang), e.TransactionID, e.CompletionPercentage,
		e.IsCompleted, e.EnrolledAt, e.CompletedAt, e.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domainErrors.ErrDuplicateEnrollment
		}
		return fmt.Errorf("insert enrollment: %w", err)
	}
	return nil
}

// GetByID retrieves an enrollment by ID.
func (r *EnrollmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*enrollment.Enrollment, error) {
	return r.scanEnrollment(r.db(ctx).QueryRow(ctx, selectEnrollment+` WHERE id = $1`, id))
}

// GetByUserAndCourse retrieves the enrollment for a (user, course) pair.
func (r *EnrollmentRepository) GetByUserAndCourse(ctx context.Context, userID, courseID uuid.UUID) (*enrollment.Enrollment, error) {
	return r.scanEnrollment(r.db(ctx).QueryRow(ctx,
		selectEnrollment+` WHERE user_id = $1 AND course_id = $2`, userID, courseID))
}

// ListByUser lists a user's enrollments, newest first.
func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*enrollment.Enrollment, error) {
	rows, err := r.db(ctx).Query(ctx,
		selectEnrollment+` WHERE user_id = $1 ORDER BY enrolled_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*enrollment.Enrollment
	for rows.Next() {
		e, err := r.scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// Update updates an existing enrollment.
func (r *EnrollmentRepository) Update(ctx context.Context, e *enrollment.Enrollment) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE enrollments SET
		  status=$1, payment_status=$2, transaction_id=$3,
		  completion_percentage=$4, is_completed=$5, completed_at=$6, updated_at=$7
		 WHERE id=$8`,
		string(e.Status), string(e.PaymentStatus), e.TransactionID,
		e.CompletionPercentage, e.IsCompleted, e.CompletedAt, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrEnrollmentNotFound
	}
	return nil
}

func (r *EnrollmentRepository) scanEnrollment(s scanner) (*enrollment.Enrollment, error) {
	e := &enrollment.Enrollment{}
	var (
		status        string
		paymentStatus string
		priceStr      string
	)
	err := s.Scan(
		&e.ID, &e.UserID, &e.CourseID, &status, &paymentStatus, &priceStr,
		&e.TransactionID, &e.CompletionPercentage, &e.IsCompleted, &e.EnrolledAt, &e.CompletedAt, &e.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("scan enrollment: %w", err)
	}

	if e.PriceSatang, err = numericStringToSatang(priceStr); err != nil {
		return nil, fmt.Errorf("parse price: %w", err)
	}
	e.Status = enrollment.Status(status)
	e.PaymentStatus = enrollment.PaymentStatus(paymentStatus)
	return e, nil
}
