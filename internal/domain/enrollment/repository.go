package enrollment

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for enrollment persistence.
type Repository interface {
	// Create inserts a new enrollment. Returns
	// errors.ErrDuplicateEnrollment when one already exists for the
	// same (user, course) pair.
	Create(ctx context.Context, e *Enrollment) error

	// GetByID retrieves an enrollment by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Enrollment, error)

	// GetByUserAndCourse retrieves the enrollment for a (user, course) pair.
	GetByUserAndCourse(ctx context.Context, userID, courseID uuid.UUID) (*Enrollment, error)

	// ListByUser lists a user's enrollments.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Enrollment, error)

	// Update updates an existing enrollment.
	Update(ctx context.Context, e *Enrollment) error
}
