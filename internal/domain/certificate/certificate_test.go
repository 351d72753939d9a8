package certificate_test

import (
	"strings"
	"testing"

	"github.com/learnhub-th/coursepay/internal/domain/certificate"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Fields(t *testing.T) {
	userID, courseID := uuid.New(), uuid.New()
	score := 92.5
	c, err := certificate.New(userID, courseID, "Somchai Jaidee", "Go Fundamentals", &score, 12)
	require.NoError(t, err)

	assert.Equal(t, certificate.StatusActive, c.Status)
	assert.Equal(t, userID, c.UserID)
	assert.True(t, strings.HasPrefix(c.CertificateNumber, "CERT"))
	assert.Len(t, c.VerificationCode, 32) // 16 bytes hex-encoded
	assert.Nil(t, c.PdfURL)
}

func TestNew_VerificationCodesDiffer(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		c, err := certificate.New(uuid.New(), uuid.New(), "name", "title", nil, 1)
		require.NoError(t, err)
		assert.False(t, seen[c.VerificationCode], "verification code repeated")
		seen[c.VerificationCode] = true
	}
}

func TestSetPdfURL(t *testing.T) {
	c, err := certificate.New(uuid.New(), uuid.New(), "name", "title", nil, 1)
	require.NoError(t, err)
	c.SetPdfURL("/certificates/abc.pdf")
	require.NotNil(t, c.PdfURL)
	assert.Equal(t, "/certificates/abc.pdf", *c.PdfURL)
}

func TestRevoke(t *testing.T) {
	c, err := certificate.New(uuid.New(), uuid.New(), "name", "title", nil, 1)
	require.NoError(t, err)
	c.Revoke()
	assert.Equal(t, certificate.StatusRevoked, c.Status)
}
