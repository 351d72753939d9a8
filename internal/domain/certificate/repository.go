package certificate

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for certificate persistence.
type Repository interface {
	// Create inserts a new certificate. Returns
	// errors.ErrDuplicateCertificate when one already exists for the
	// same (user, course) pair.
	Create(ctx context.Context, c *Certificate) error

	// GetByID retrieves a certificate by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Certificate, error)

	// GetByUserAndCourse retrieves the certificate for a (user, course) pair.
	GetByUserAndCourse(ctx context.Context, userID, courseID uuid.UUID) (*Certificate, error)

	// GetByVerificationCode retrieves a certificate by its verification code.
	GetByVerificationCode(ctx context.Context, code string) (*Certificate, error)

	// ListByUser lists a user's active certificates.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Certificate, error)

	// Update persists certificate mutations (artifact URL, revocation).
	Update(ctx context.Context, c *Certificate) error
}
