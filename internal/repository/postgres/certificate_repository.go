package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnhub-th/coursepay/internal/domain/certificate"
	domainErrors "github.com/learnhub-th/coursepay/internal/domain/errors"
)

// CertificateRepository implements certificate.Repository using PostgreSQL.
type CertificateRepository struct {
	pool *pgxpool.Pool
}

// NewCertificateRepository creates a new CertificateRepository.
func NewCertificateRepository(pool *pgxpool.Pool) *CertificateRepository {
	return &CertificateRepository{pool: pool}
}

func (r *CertificateRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

const selectCertificate = `SELECT id, user_id, course_id, certificate_number, verification_code,
	        user_full_name, course_title, final_score, total_hours, status, pdf_url,
	        completion_date, issued_at
	 FROM certificates`

// Create inserts a new certificate. The unique index on (user_id, course_id)
// turns a duplicate insert into ErrDuplicateCertificate.
func (r *CertificateRepository) Create(ctx context.Context, c *certificate.Certificate) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO certificates
		 (id, user_id, course_id, certificate_number, verification_code,
		  user_full_name, course_title, final_score, total_hours, status, pdf_url,
		  completion_date, issued_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		c.ID, c.UserID, c.CourseID, c.CertificateNumber, c.VerificationCode,
		c.UserFullName, c.CourseTitle, c.FinalScore, c.TotalHours, string(c.Status), c.PdfURL,
		c.CompletionDate, c.IssuedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domainErrors.ErrDuplicateCertificate
		}
		return fmt.Errorf("insert certificate: %w", err)
	}
	return nil
}

// GetByID retrieves a certificate by ID.
func (r *CertificateRepository) GetByID(ctx context.Context, id uuid.UUID) (*certificate.Certificate, error) {
	return r.scanCertificate(r.db(ctx).QueryRow(ctx, selectCertificate+` WHERE id = $1`, id))
}

// GetByUserAndCourse retrieves the certificate for a (user, course) pair.
func (r *CertificateRepository) GetByUserAndCourse(ctx context.Context, userID, courseID uuid.UUID) (*certificate.Certificate, error) {
	return r.scanCertificate(r.db(ctx).QueryRow(ctx,
		selectCertificate+` WHERE user_id = $1 AND course_id = $2`, userID, courseID))
}

// GetByVerificationCode retrieves a certificate by its verification code.
func (r *CertificateRepository) GetByVerificationCode(ctx context.Context, code string) (*certificate.Certificate, error) {
	return r.scanCertificate(r.db(ctx).QueryRow(ctx,
		selectCertificate+` WHERE verification_code = $1`, code))
}

// ListByUser lists a user's active certificates, newest first.
func (r *CertificateRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*certificate.Certificate, error) {
	rows, err := r.db(ctx).Query(ctx,
		selectCertificate+` WHERE user_id = $1 AND status = 'active' ORDER BY issued_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	var certs []*certificate.Certificate
	for rows.Next() {
		c, err := r.scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		certs = append(certs, c)
	}
	return certs, rows.Err()
}

// Update persists certificate mutations.
func (r *CertificateRepository) Update(ctx context.Context, c *certificate.Certificate) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE certificates SET status=$1, pdf_url=$2 WHERE id=$3`,
		string(c.Status), c.PdfURL, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update certificate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrCertificateNotFound
	}
	return nil
}

func (r *CertificateRepository) scanCertificate(s scanner) (*certificate.Certificate, error) {
	c := &certificate.Certificate{}
	var status string
	err := s.Scan(
		&c.ID, &c.UserID, &c.CourseID, &c.CertificateNumber, &c.VerificationCode,
		&c.UserFullName, &c.CourseTitle, &c.FinalScore, &c.TotalHours, &status, &c.PdfURL,
		&c.CompletionDate, &c.IssuedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrCertificateNotFound
		}
		return nil, fmt.Errorf("scan certificate: %w", err)
	}
	c.Status = certificate.Status(status)
	return c, nil
}
