package certificate_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appcertificate "github.com/learnhub-th/coursepay/internal/application/certificate"
	"github.com/learnhub-th/coursepay/internal/domain/certificate"
	domainErrors "github.com/learnhub-th/coursepay/internal/domain/errors"
	"github.com/learnhub-th/coursepay/internal/events"
	"github.com/learnhub-th/coursepay/internal/idempotency"
	"github.com/learnhub-th/coursepay/internal/testutil"
)

// stubRenderer scripts the render outcome.
type stubRenderer struct {
	url string
	err error
}

func (r *stubRenderer) Render(context.Context, *certificate.Certificate) (string, error) {
	return r.url, r.err
}

type issueFixture struct {
	uc     *appcertificate.IssueUseCase
	certs  *testutil.MockCertificateRepository
	outbox *testutil.MockOutboxRepository
	rend   *stubRenderer
}

func newIssueFixture(t *testing.T) *issueFixture {
	t.Helper()
	f := &issueFixture{
		certs:  testutil.NewMockCertificateRepository(),
		outbox: testutil.NewMockOutboxRepository(),
		rend:   &stubRenderer{url: "http://localhost:8080/certificates/test.html"},
	}
	f.uc = appcertificate.NewIssueUseCase(f.certs, f.outbox, idempotency.NewMemoryGuard(),
		&testutil.MockTxManager{}, f.rend, zerolog.Nop())
	return f
}

func courseCompletedPayload(t *testing.T, userID, courseID uuid.UUID) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"user_id":        userID.String(),
		"course_id":      courseID.String(),
		"course_title":   "Go Fundamentals",
		"user_full_name": "Somchai Jaidee",
		"total_hours":    24,
	})
	require.NoError(t, err)
	return body
}

func TestIssue_CreatesCertificateAndEvent(t *testing.T) {
	f := newIssueFixture(t)
	ctx := context.Background()
	userID, courseID := uuid.New(), uuid.New()

	require.NoError(t, f.uc.HandleCourseCompleted(ctx, courseCompletedPayload(t, userID, courseID)))

	cert, err := f.certs.GetByUserAndCourse(ctx, userID, courseID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cert.CertificateNumber, "CERT"))
	assert.Len(t, cert.VerificationCode, 32)
	assert.Equal(t, certificate.StatusActive, cert.Status)
	require.NotNil(t, cert.PdfURL)

	staged := f.outbox.EntriesForTopic(events.TopicCertificateIssued)
	require.Len(t, staged, 1)
	assert.Equal(t, cert.CertificateNumber, staged[0].Payload["certificate_number"])
}

func TestIssue_DuplicateDeliveryIssuesOnce(t *testing.T) {
	f := newIssueFixture(t)
	ctx := context.Background()
	userID, courseID := uuid.New(), uuid.New()
	payload := courseCompletedPayload(t, userID, courseID)

	require.NoError(t, f.uc.HandleCourseCompleted(ctx, payload))
	first, err := f.certs.GetByUserAndCourse(ctx, userID, courseID)
	require.NoError(t, err)

	// Redeliveries: same certificate, same number, no extra event.
	for i := 0; i < 3; i++ {
		require.NoError(t, f.uc.HandleCourseCompleted(ctx, payload))
	}

	assert.Equal(t, 1, f.certs.Count())
	after, err := f.certs.GetByUserAndCourse(ctx, userID, courseID)
	require.NoError(t, err)
	assert.Equal(t, first.CertificateNumber, after.CertificateNumber)
	assert.Equal(t, first.VerificationCode, after.VerificationCode)
	assert.Len(t, f.outbox.EntriesForTopic(events.TopicCertificateIssued), 1)
}

func TestIssue_RenderFailureStillIssues(t *testing.T) {
	f := newIssueFixture(t)
	f.rend.url = ""
	f.rend.err = errors.New("disk full")
	ctx := context.Background()
	userID, courseID := uuid.New(), uuid.New()

	require.NoError(t, f.uc.HandleCourseCompleted(ctx, courseCompletedPayload(t, userID, courseID)))

	cert, err := f.certs.GetByUserAndCourse(ctx, userID, courseID)
	require.NoError(t, err)
	assert.Equal(t, certificate.StatusActive, cert.Status)
	assert.Nil(t, cert.PdfURL)

	staged := f.outbox.EntriesForTopic(events.TopicCertificateIssued)
	require.Len(t, staged, 1)
	assert.Equal(t, "", staged[0].Payload["pdf_url"])
}

// racingCertRepo hides the certificate from the first lookup, modeling a
// concurrent delivery that commits between the handler's fast-path check and
// its transaction.
type racingCertRepo struct {
	*testutil.MockCertificateRepository
	misses int
}

func (r *racingCertRepo) GetByUserAndCourse(ctx context.Context, userID, courseID uuid.UUID) (*certificate.Certificate, error) {
	if r.misses > 0 {
		r.misses--
		return nil, domainErrors.ErrCertificateNotFound
	}
	return r.MockCertificateRepository.GetByUserAndCourse(ctx, userID, courseID)
}

func TestIssue_ConcurrentIssueDetectedInTransaction(t *testing.T) {
	base := testutil.NewMockCertificateRepository()
	outboxRepo := testutil.NewMockOutboxRepository()
	repo := &racingCertRepo{MockCertificateRepository: base, misses: 1}
	uc := appcertificate.NewIssueUseCase(repo, outboxRepo, idempotency.NewMemoryGuard(),
		&testutil.MockTxManager{}, &stubRenderer{}, zerolog.Nop())
	ctx := context.Background()

	userID, courseID := uuid.New(), uuid.New()
	won, err := certificate.New(userID, courseID, "Somchai Jaidee", "Go Fundamentals", nil, 24)
	require.NoError(t, err)
	require.NoError(t, base.Create(ctx, won))

	// The in-transaction re-check must spot the committed certificate; an
	// insert here would trip the unique (user, course) constraint and abort
	// the transaction.
	require.NoError(t, uc.HandleCourseCompleted(ctx, courseCompletedPayload(t, userID, courseID)))

	assert.Equal(t, 1, base.Count())
	assert.Empty(t, outboxRepo.EntriesForTopic(events.TopicCertificateIssued))
}

func TestIssue_MalformedPayloadAcked(t *testing.T) {
	f := newIssueFixture(t)

	assert.NoError(t, f.uc.HandleCourseCompleted(context.Background(), []byte(`{broken`)))
	assert.NoError(t, f.uc.HandleCourseCompleted(context.Background(), []byte(`{}`)))
	assert.Equal(t, 0, f.certs.Count())
}
