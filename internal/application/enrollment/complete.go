package enrollment

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/learnhub-th/coursepay/internal/domain/enrollment"
	"github.com/learnhub-th/coursepay/internal/domain/outbox"
	"github.com/learnhub-th/coursepay/internal/events"
	"github.com/learnhub-th/coursepay/internal/idempotency"
)

// UpdateProgressRequest carries a progress report for a user's course.
// Course and learner display fields ride along so the completion event does
// not need a catalog lookup.
type UpdateProgressRequest struct {
	UserID       uuid.UUID
	CourseID     uuid.UUID
	Percentage   float64
	CourseTitle  string
	UserFullName string
	FinalScore   *float64
	TotalHours   int
}

// CompleteUseCase records course progress and, on reaching 100%, marks the
// enrollment completed and publishes course.completed. The guard claim keyed
// by (user, course) keeps the publish to one no matter how many progress
// reports arrive at or after the threshold.
type CompleteUseCase struct {
	enrollmentRepo enrollment.Repository
	outboxRepo     OutboxWriter
	guard          Guard
	txManager      TransactionManager
	logger         zerolog.Logger
}

// NewCompleteUseCase creates a new CompleteUseCase.
func NewCompleteUseCase(
	enrollmentRepo enrollment.Repository,
	outboxRepo OutboxWriter,
	guard Guard,
	txManager TransactionManager,
	logger zerolog.Logger,
) *CompleteUseCase {
	return &CompleteUseCase{
		enrollmentRepo: enrollmentRepo,
		outboxRepo:     outboxRepo,
		guard:          guard,
		txManager:      txManager,
		logger:         logger,
	}
}

// UpdateProgress applies a progress report. Progress never decreases; hitting
// 100% completes the enrollment exactly once.
func (uc *CompleteUseCase) UpdateProgress(ctx context.Context, req UpdateProgressRequest) (*enrollment.Enrollment, error) {
	e, err := uc.enrollmentRepo.GetByUserAndCourse(ctx, req.UserID, req.CourseID)
	if err != nil {
		return nil, err
	}

	if err := e.UpdateProgress(req.Percentage); err != nil {
		return nil, err
	}

	if e.CompletionPercentage < 100 || e.IsCompleted {
		if err := uc.enrollmentRepo.Update(ctx, e); err != nil {
			return nil, err
		}
		return e, nil
	}

	err = uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		claimKey := e.UserID.String() + ":" + e.CourseID.String()
		claimed, err := uc.guard.TryClaim(txCtx, idempotency.ScopeCourseCompleted, claimKey)
		if err != nil {
			return err
		}

		e.Complete()
		if err := uc.enrollmentRepo.Update(txCtx, e); err != nil {
			return err
		}

		if !claimed {
			// A concurrent report already completed this enrollment.
			return nil
		}

		return uc.outboxRepo.Insert(txCtx, outbox.NewEntry(
			"enrollment", e.ID, events.TopicCourseCompleted, map[string]any{
				"user_id":        e.UserID.String(),
				"course_id":      e.CourseID.String(),
				"course_title":   req.CourseTitle,
				"user_full_name": req.UserFullName,
				"final_score":    req.FinalScore,
				"total_hours":    req.TotalHours,
			},
		))
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("enrollment_id", e.ID.String()).
		Str("course_id", e.CourseID.String()).
		Msg("course completed")
	return e, nil
}
