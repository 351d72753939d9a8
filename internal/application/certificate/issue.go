// Package certificate implements certificate issuance off course.completed.
package certificate

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/learnhub-th/coursepay/internal/domain/certificate"
	domainErrors "github.com/learnhub-th/coursepay/internal/domain/errors"
	"github.com/learnhub-th/coursepay/internal/domain/outbox"
	"github.com/learnhub-th/coursepay/internal/events"
	"github.com/learnhub-th/coursepay/internal/idempotency"
	"github.com/learnhub-th/coursepay/internal/renderer"
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

// IssueUseCase consumes course.completed and issues at most one certificate
// per (user, course). The guard claim, the insert and the certificate.issued
// staging commit together, so a redelivered completion can never mint a
// second certificate or a second event.
type IssueUseCase struct {
	certRepo   certificate.Repository
	outboxRepo OutboxWriter
	guard      Guard
	txManager  TransactionManager
	renderer   renderer.Renderer
	logger     zerolog.Logger
}

// NewIssueUseCase creates a new IssueUseCase.
func NewIssueUseCase(
	certRepo certificate.Repository,
	outboxRepo OutboxWriter,
	guard Guard,
	txManager TransactionManager,
	rend renderer.Renderer,
	logger zerolog.Logger,
) *IssueUseCase {
	return &IssueUseCase{
		certRepo:   certRepo,
		outboxRepo: outboxRepo,
		guard:      guard,
		txManager:  txManager,
		renderer:   rend,
		logger:     logger,
	}
}

// HandleCourseCompleted is the course.completed event handler.
func (uc *IssueUseCase) HandleCourseCompleted(ctx context.Context, payload []byte) error {
	var event events.CourseCompleted
	if err := json.Unmarshal(payload, &event); err != nil {
		uc.logger.Error().Err(err).Msg("discarding malformed course.completed payload")
		return nil
	}
	if event.UserID == uuid.Nil || event.CourseID == uuid.Nil {
		uc.logger.Error().Msg("discarding course.completed without user or course")
		return nil
	}

	log := uc.logger.With().
		Str("user_id", event.UserID.String()).
		Str("course_id", event.CourseID.String()).
		Logger()

	// Redelivery fast path: the certificate already exists.
	if _, err := uc.certRepo.GetByUserAndCourse(ctx, event.UserID, event.CourseID); err == nil {
		log.Debug().Msg("certificate already issued")
		return nil
	} else if !errors.Is(err, domainErrors.ErrCertificateNotFound) {
		return err
	}

	cert, err := certificate.New(event.UserID, event.CourseID, event.UserFullName,
		event.CourseTitle, event.FinalScore, event.TotalHours)
	if err != nil {
		return err
	}

	// Render before committing. Rendering is best-effort: a failure leaves
	// pdf_url empty but never blocks issuance.
	if url, rerr := uc.renderer.Render(ctx, cert); rerr != nil {
		log.Warn().Err(rerr).Msg("certificate artifact render failed, issuing without pdf_url")
	} else {
		cert.SetPdfURL(url)
	}

	err = uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		claimKey := event.UserID.String() + ":" + event.CourseID.String()
		claimed, err := uc.guard.TryClaim(txCtx, idempotency.ScopeIssueCertificate, claimKey)
		if err != nil {
			return err
		}
		if !claimed {
			return nil
		}

		// A concurrent delivery may have committed between the fast path
		// above and this transaction. Re-check here: tripping the unique
		// (user, course) constraint would abort the open transaction, so
		// the insert must only run when no row is there.
		if _, err := uc.certRepo.GetByUserAndCourse(txCtx, event.UserID, event.CourseID); err == nil {
			log.Debug().Msg("certificate issued concurrently")
			return nil
		} else if !errors.Is(err, domainErrors.ErrCertificateNotFound) {
			return err
		}

		if err := uc.certRepo.Create(txCtx, cert); err != nil {
			return err
		}

		pdfURL := ""
		if cert.PdfURL != nil {
			pdfURL = *cert.PdfURL
		}
		return uc.outboxRepo.Insert(txCtx, outbox.NewEntry(
			"certificate", cert.ID, events.TopicCertificateIssued, map[string]any{
				"certificate_id":     cert.ID.String(),
				"user_id":            cert.UserID.String(),
				"course_id":          cert.CourseID.String(),
				"certificate_number": cert.CertificateNumber,
				"pdf_url":            pdfURL,
			},
		))
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to issue certificate")
		return err
	}

	log.Info().Str("certificate_number", cert.CertificateNumber).Msg("certificate issued")
	return nil
}
